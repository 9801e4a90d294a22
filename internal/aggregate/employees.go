package aggregate

import (
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/rollcall/internal/model"
	"github.com/ppiankov/rollcall/internal/normalize"
)

// Employees builds one roster row per tracked person with all of their
// company associations. observations holds the latest scrape time per
// company and decides the "new" flag.
func Employees(associations []model.EmploymentAssociation, profiles []model.Profile, observations map[string]time.Time) []model.EmployeeRow {
	profileByURL := make(map[string]model.Profile, len(profiles))
	for _, p := range profiles {
		profileByURL[normalize.ProfileURL(p.ProfileURL)] = p
	}

	rows := make(map[string]*model.EmployeeRow)
	assocs := make(map[string][]model.EmploymentAssociation)
	var keys []string

	for _, a := range associations {
		key := "name:" + a.PersonID
		url := normalize.ProfileURL(a.ProfileURL)
		if url != "" {
			key = url
		}

		row, ok := rows[key]
		if !ok {
			row = &model.EmployeeRow{PersonID: a.PersonID, DisplayName: a.PersonID, ProfileURL: url}
			if p, found := profileByURL[url]; found && url != "" {
				row.DisplayName = p.DisplayName
				row.Headline = p.Headline
				row.Location = p.Location
			}
			rows[key] = row
			keys = append(keys, key)
		}
		row.Companies = append(row.Companies, model.CompanyStatus{
			CompanyID: a.CompanyID,
			Status:    a.Status,
			FirstSeen: a.FirstSeen,
			LastSeen:  a.LastSeen,
		})
		assocs[key] = append(assocs[key], a)
	}

	out := make([]model.EmployeeRow, 0, len(keys))
	for _, key := range keys {
		row := rows[key]
		sort.SliceStable(row.Companies, func(i, j int) bool {
			a, b := row.Companies[i], row.Companies[j]
			if a.CompanyID != b.CompanyID {
				return a.CompanyID < b.CompanyID
			}
			return a.FirstSeen.Before(b.FirstSeen)
		})
		row.Flag = flag(assocs[key], observations)
		out = append(out, *row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].DisplayName), strings.ToLower(out[j].DisplayName)
		if a != b {
			return a < b
		}
		return out[i].ProfileURL < out[j].ProfileURL
	})
	return out
}

func flag(associations []model.EmploymentAssociation, observations map[string]time.Time) model.EmployeeFlag {
	companies := make(map[string]struct{})
	anyCurrent := false
	for _, a := range associations {
		companies[a.CompanyID] = struct{}{}
		if a.Status == model.StatusCurrent {
			anyCurrent = true
		}
	}

	switch {
	case !anyCurrent:
		return model.FlagFormer
	case len(companies) > 1:
		return model.FlagMultiple
	}

	if len(associations) == 1 {
		a := associations[0]
		if latest, ok := observations[a.CompanyID]; ok && a.FirstSeen.Equal(latest) {
			return model.FlagNew
		}
	}
	return model.FlagCurrent
}

// FormerEmployees keeps rows flagged former
func FormerEmployees(rows []model.EmployeeRow) []model.EmployeeRow {
	var out []model.EmployeeRow
	for _, r := range rows {
		if r.Flag == model.FlagFormer {
			out = append(out, r)
		}
	}
	return out
}
