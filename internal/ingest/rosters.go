package ingest

import (
	"io"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/rollcall/internal/model"
	"github.com/ppiankov/rollcall/internal/normalize"
)

// Rosters is a parsed company employees export
type Rosters struct {
	Rosters  []model.Roster
	Profiles []model.Profile
}

// ReadRosters parses a company employees export and groups members by
// company. All rosters share the batch observation time: the latest row
// timestamp, or fallback when no row carries one.
func ReadRosters(r io.Reader, fallback time.Time) (Rosters, error) {
	cr := newReader(r)
	h, err := readHeader(cr)
	if err != nil {
		return Rosters{}, err
	}
	if len(h) == 0 {
		return Rosters{}, nil
	}
	if _, err := h.require("query", "company"); err != nil {
		return Rosters{}, err
	}
	if _, err := h.require("fullname", "full_name", "name"); err != nil {
		return Rosters{}, err
	}

	var (
		observed time.Time
		order    []string
		byID     = make(map[string]*model.Roster)
		profiles = make(map[string]model.Profile)
	)

	err = eachRow(cr, func(_ int, row []string) error {
		if h.get(row, "error") != "" {
			return nil
		}
		if ts := h.get(row, "timestamp"); ts != "" {
			t, err := parseTimestamp(ts)
			if err != nil {
				return err
			}
			if t.After(observed) {
				observed = t
			}
		}

		companyID := companyKey(h.get(row, "query", "company"))
		name := h.get(row, "fullname", "full_name", "name")
		if companyID == "" || normalize.Name(name) == "" {
			return nil
		}

		member := model.RosterMember{
			NormalizedName: normalize.Name(name),
			DisplayName:    name,
			ProfileURL:     normalize.ProfileURL(h.get(row, "profileurl", "linkedin_url", "profile_url")),
			Headline:       h.get(row, "job", "headline"),
			Location:       h.get(row, "location"),
		}

		roster, ok := byID[companyID]
		if !ok {
			roster = &model.Roster{CompanyID: companyID}
			byID[companyID] = roster
			order = append(order, companyID)
		}
		roster.Members = append(roster.Members, member)

		if member.ProfileURL != "" {
			profiles[member.ProfileURL] = model.Profile{
				ProfileURL:     member.ProfileURL,
				DisplayName:    member.DisplayName,
				NormalizedName: member.NormalizedName,
				Headline:       member.Headline,
				Location:       member.Location,
			}
		}
		return nil
	})
	if err != nil {
		return Rosters{}, err
	}

	if observed.IsZero() {
		observed = fallback.UTC()
	}

	var out Rosters
	for _, id := range order {
		roster := byID[id]
		roster.ObservedAt = observed
		out.Rosters = append(out.Rosters, *roster)
	}
	for _, p := range profiles {
		out.Profiles = append(out.Profiles, p)
	}
	sort.Slice(out.Profiles, func(i, j int) bool { return out.Profiles[i].ProfileURL < out.Profiles[j].ProfileURL })
	return out, nil
}

// ReadRostersFile is ReadRosters over a file
func ReadRostersFile(path string, fallback time.Time) (Rosters, error) {
	var out Rosters
	err := openFile(path, func(r io.Reader) error {
		var err error
		out, err = ReadRosters(r, fallback)
		return err
	})
	return out, err
}

// companyKey canonicalizes company profile URLs and keeps plain names as-is
func companyKey(raw string) string {
	if strings.Contains(raw, "://") || strings.Contains(raw, ".") {
		return normalize.ProfileURL(raw)
	}
	return raw
}
