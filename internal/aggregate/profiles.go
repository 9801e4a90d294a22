// Package aggregate fuses stored identities with their talks and employment
// into flat per-person views for reporting.
package aggregate

import (
	"sort"
	"strings"

	"github.com/ppiankov/rollcall/internal/model"
	"github.com/ppiankov/rollcall/internal/normalize"
)

// Profiles joins talks onto people by normalized name. Every person appears
// exactly once, talks are deduplicated, and people without talks get an
// empty list. Output is ordered by display name, case-insensitively, then by
// normalized name.
func Profiles(people []model.PersonIdentity, talks []model.TalkRecord) []model.PersonProfile {
	byName := make(map[string][]model.Talk)
	seen := make(map[string]map[model.Talk]struct{})
	for _, t := range talks {
		key := t.SpeakerNormalizedName
		if key == "" {
			continue
		}
		talk := model.Talk{
			ConferenceName: strings.TrimSpace(t.ConferenceName),
			ConferenceYear: t.ConferenceYear,
			Title:          strings.TrimSpace(t.TalkTitle),
		}
		if seen[key] == nil {
			seen[key] = make(map[model.Talk]struct{})
		}
		if _, dup := seen[key][talk]; dup {
			continue
		}
		seen[key][talk] = struct{}{}
		byName[key] = append(byName[key], talk)
	}

	out := make([]model.PersonProfile, 0, len(people))
	included := make(map[string]struct{}, len(people))
	for _, p := range people {
		id := p.ID
		if id == "" {
			id = p.DisplayName
		}
		if _, dup := included[id]; dup {
			continue
		}
		included[id] = struct{}{}

		if p.NormalizedName == "" {
			p.NormalizedName = normalize.Name(p.DisplayName)
		}

		personTalks := append([]model.Talk{}, byName[p.NormalizedName]...)
		sortTalks(personTalks)

		out = append(out, model.PersonProfile{Person: p, Talks: personTalks})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Person, out[j].Person
		if la, lb := strings.ToLower(a.DisplayName), strings.ToLower(b.DisplayName); la != lb {
			return la < lb
		}
		return a.NormalizedName < b.NormalizedName
	})
	return out
}

func sortTalks(talks []model.Talk) {
	sort.Slice(talks, func(i, j int) bool {
		a, b := talks[i], talks[j]
		if a.ConferenceYear != b.ConferenceYear {
			return a.ConferenceYear < b.ConferenceYear
		}
		if a.ConferenceName != b.ConferenceName {
			return a.ConferenceName < b.ConferenceName
		}
		return a.Title < b.Title
	})
}

// AttachEmployment sets the employment row of each profile whose URL is a
// tracked employee. The input slice is not modified.
func AttachEmployment(profiles []model.PersonProfile, employees []model.EmployeeRow) []model.PersonProfile {
	byURL := make(map[string]model.EmployeeRow, len(employees))
	for _, e := range employees {
		if e.ProfileURL == "" {
			continue
		}
		byURL[normalize.ProfileURL(e.ProfileURL)] = e
	}

	out := make([]model.PersonProfile, len(profiles))
	for i, p := range profiles {
		out[i] = p
		if p.Person.ProfileURL == "" {
			continue
		}
		if e, ok := byURL[normalize.ProfileURL(p.Person.ProfileURL)]; ok {
			row := e
			out[i].Employment = &row
		}
	}
	return out
}

// FormerSpeakers keeps profiles whose every known employment has ended
func FormerSpeakers(profiles []model.PersonProfile) []model.PersonProfile {
	var out []model.PersonProfile
	for _, p := range profiles {
		if p.Employment != nil && p.Employment.Flag == model.FlagFormer {
			out = append(out, p)
		}
	}
	return out
}
