package match

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/rollcall/internal/model"
)

// ErrConflictingMatch means a person ended up with more than one profile
var ErrConflictingMatch = errors.New("conflicting profile URLs for one person")

// Conflict names a person with several competing profiles
type Conflict struct {
	PersonID    string
	ProfileURLs []string
}

// ConflictError lists every conflicting person of a run
type ConflictError struct {
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	parts := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		parts = append(parts, fmt.Sprintf("%s -> [%s]", c.PersonID, strings.Join(c.ProfileURLs, ", ")))
	}
	return fmt.Sprintf("%s: %s", ErrConflictingMatch, strings.Join(parts, "; "))
}

func (e *ConflictError) Unwrap() error { return ErrConflictingMatch }

// Result is the serialized outcome of one resolution pass
type Result struct {
	Matches    []model.MatchResult
	Unresolved []model.Unresolved
	// OracleCalls counts oracle invocations across all groups
	OracleCalls int
}

// Collect merges unique matches with resolved groups into at most one match
// per person. Repeated identical matches collapse; two different profiles
// for one person yield a *ConflictError and no result.
func Collect(outcome Outcome, resolutions []Resolution) (Result, error) {
	byName := make(map[string]Resolution, len(resolutions))
	var res Result
	for _, r := range resolutions {
		byName[r.NormalizedName] = r
		res.OracleCalls += r.OracleCalls
	}

	chosen := make(map[string]model.MatchResult)
	competing := make(map[string]map[string]struct{})
	var order []string

	add := func(m model.MatchResult) {
		prev, ok := chosen[m.PersonID]
		if !ok {
			chosen[m.PersonID] = m
			order = append(order, m.PersonID)
			return
		}
		if prev.ProfileURL == m.ProfileURL {
			return
		}
		if competing[m.PersonID] == nil {
			competing[m.PersonID] = map[string]struct{}{prev.ProfileURL: {}}
		}
		competing[m.PersonID][m.ProfileURL] = struct{}{}
	}

	for _, m := range outcome.Unique {
		add(m)
	}

	for _, g := range outcome.Ambiguous {
		r, ok := byName[g.NormalizedName]
		if !ok {
			r = Resolution{NormalizedName: g.NormalizedName, Reason: model.ReasonOracleFailed, Detail: "group not resolved"}
		}
		for _, p := range g.People {
			if r.Resolved() {
				add(model.MatchResult{PersonID: p.ID, ProfileURL: r.ProfileURL, Method: r.Method})
				continue
			}
			res.Unresolved = append(res.Unresolved, model.Unresolved{
				PersonID:    p.ID,
				DisplayName: p.DisplayName,
				Reason:      r.Reason,
				Detail:      r.Detail,
			})
		}
	}

	if len(competing) > 0 {
		conflicts := make([]Conflict, 0, len(competing))
		for id, urls := range competing {
			c := Conflict{PersonID: id}
			for u := range urls {
				c.ProfileURLs = append(c.ProfileURLs, u)
			}
			sort.Strings(c.ProfileURLs)
			conflicts = append(conflicts, c)
		}
		sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].PersonID < conflicts[j].PersonID })
		return Result{}, &ConflictError{Conflicts: conflicts}
	}

	for _, id := range order {
		res.Matches = append(res.Matches, chosen[id])
	}
	res.Unresolved = append(res.Unresolved, outcome.Unmatched...)

	// A person matched through one entry must not also be listed as unresolved.
	filtered := res.Unresolved[:0]
	for _, u := range res.Unresolved {
		if _, ok := chosen[u.PersonID]; !ok {
			filtered = append(filtered, u)
		}
	}
	res.Unresolved = filtered

	return res, nil
}
