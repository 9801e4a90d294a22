// Package report writes fused views as flat CSV sheets and renders run
// summaries for the terminal. It never reads anything back.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/rollcall/internal/model"
)

// File names written into the output directory
const (
	SpeakersFile   = "speakers.csv"
	FormerFile     = "former_speakers.csv"
	EmployeesFile  = "employees.csv"
	UnresolvedFile = "unresolved.csv"
)

const dateLayout = "2006-01-02"

var speakerHeader = []string{
	"name", "normalized_name", "profile_url", "website_url", "employer",
	"talks", "conferences", "talk_titles", "employment_flag", "companies",
}

// WriteSpeakers writes one row per speaker profile
func WriteSpeakers(w io.Writer, profiles []model.PersonProfile) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(speakerHeader); err != nil {
		return err
	}
	for _, p := range profiles {
		var conferences, titles []string
		seenConf := make(map[string]struct{})
		for _, t := range p.Talks {
			conf := fmt.Sprintf("%s %d", t.ConferenceName, t.ConferenceYear)
			if _, ok := seenConf[conf]; !ok {
				seenConf[conf] = struct{}{}
				conferences = append(conferences, conf)
			}
			if t.Title != "" {
				titles = append(titles, t.Title)
			}
		}

		flag, companies := "", ""
		if p.Employment != nil {
			flag = string(p.Employment.Flag)
			companies = formatCompanies(p.Employment.Companies)
		}

		row := []string{
			p.Person.DisplayName,
			p.Person.NormalizedName,
			p.Person.ProfileURL,
			p.Person.WebsiteURL,
			p.Person.Employer,
			strconv.Itoa(len(p.Talks)),
			strings.Join(conferences, "; "),
			strings.Join(titles, "; "),
			flag,
			companies,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var employeeHeader = []string{
	"name", "profile_url", "headline", "location", "flag", "companies", "first_seen", "last_seen",
}

// WriteEmployees writes one row per tracked person
func WriteEmployees(w io.Writer, rows []model.EmployeeRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(employeeHeader); err != nil {
		return err
	}
	for _, r := range rows {
		first, last := span(r.Companies)
		row := []string{
			r.DisplayName,
			r.ProfileURL,
			r.Headline,
			r.Location,
			string(r.Flag),
			formatCompanies(r.Companies),
			formatDate(first),
			formatDate(last),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var unresolvedHeader = []string{"person_id", "name", "reason", "detail"}

// WriteUnresolved lists people left without a profile, sorted by name
func WriteUnresolved(w io.Writer, unresolved []model.Unresolved) error {
	sorted := append([]model.Unresolved{}, unresolved...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].DisplayName) < strings.ToLower(sorted[j].DisplayName)
	})

	cw := csv.NewWriter(w)
	if err := cw.Write(unresolvedHeader); err != nil {
		return err
	}
	for _, u := range sorted {
		if err := cw.Write([]string{u.PersonID, u.DisplayName, string(u.Reason), u.Detail}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile creates path (and its directory) and fills it with write
func WriteFile(path string, write func(io.Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func formatCompanies(companies []model.CompanyStatus) string {
	parts := make([]string, 0, len(companies))
	for _, c := range companies {
		parts = append(parts, fmt.Sprintf("%s (%s)", c.CompanyID, c.Status))
	}
	return strings.Join(parts, "; ")
}

func span(companies []model.CompanyStatus) (first, last time.Time) {
	for _, c := range companies {
		if first.IsZero() || c.FirstSeen.Before(first) {
			first = c.FirstSeen
		}
		if c.LastSeen.After(last) {
			last = c.LastSeen
		}
	}
	return first, last
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}
