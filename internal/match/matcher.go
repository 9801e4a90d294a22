// Package match links unresolved people to candidate profiles.
//
// Match partitions people into unique matches, ambiguous groups and people
// without candidates. Resolver settles ambiguous groups by connection degree
// and, as a last resort, by asking an oracle. Collect merges both into the
// final per-person result set.
package match

import (
	"sort"

	"github.com/ppiankov/rollcall/internal/model"
	"github.com/ppiankov/rollcall/internal/normalize"
)

// Groups holds candidates keyed by normalized name
type Groups map[string][]model.CandidateIdentity

// GroupCandidates indexes candidates by normalized name. Candidates without
// a profile URL or a usable name are dropped.
func GroupCandidates(candidates []model.CandidateIdentity) Groups {
	groups := make(Groups)
	for _, c := range candidates {
		if c.ProfileURL == "" {
			continue
		}
		key := c.NormalizedName
		if key == "" {
			key = normalize.Name(c.QueryName)
		}
		if key == "" {
			continue
		}
		c.NormalizedName = key
		groups[key] = append(groups[key], c)
	}
	return groups
}

// DistinctURLs returns the canonical profile URLs of candidates, sorted
func DistinctURLs(candidates []model.CandidateIdentity) []string {
	seen := make(map[string]struct{}, len(candidates))
	var urls []string
	for _, c := range candidates {
		u := normalize.ProfileURL(c.ProfileURL)
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

// Group is one ambiguous name with everyone waiting on it
type Group struct {
	NormalizedName string
	People         []model.UnresolvedPerson
	Candidates     []model.CandidateIdentity
}

// Outcome is the partition produced by Match
type Outcome struct {
	Unique    []model.MatchResult
	Ambiguous []Group
	Unmatched []model.Unresolved
}

// AmbiguousByName exposes ambiguous candidates keyed by normalized name
func (o Outcome) AmbiguousByName() map[string][]model.CandidateIdentity {
	out := make(map[string][]model.CandidateIdentity, len(o.Ambiguous))
	for _, g := range o.Ambiguous {
		out[g.NormalizedName] = g.Candidates
	}
	return out
}

// Match looks up every unresolved person in the candidate pool. It has no
// side effects; ambiguous groups are returned sorted by name.
func Match(unresolved []model.UnresolvedPerson, candidates []model.CandidateIdentity) Outcome {
	groups := GroupCandidates(candidates)

	var out Outcome
	ambiguous := make(map[string]*Group)

	for _, p := range unresolved {
		key := p.NormalizedName
		if key == "" {
			key = normalize.Name(p.DisplayName)
			p.NormalizedName = key
		}

		group := groups[key]
		if key == "" || len(group) == 0 {
			out.Unmatched = append(out.Unmatched, model.Unresolved{
				PersonID:    p.ID,
				DisplayName: p.DisplayName,
				Reason:      model.ReasonNoCandidates,
			})
			continue
		}

		urls := DistinctURLs(group)
		if len(urls) == 1 {
			out.Unique = append(out.Unique, model.MatchResult{
				PersonID:   p.ID,
				ProfileURL: urls[0],
				Method:     model.MethodExactUnique,
			})
			continue
		}

		g, ok := ambiguous[key]
		if !ok {
			g = &Group{NormalizedName: key, Candidates: group}
			ambiguous[key] = g
		}
		g.People = append(g.People, p)
	}

	for _, g := range ambiguous {
		out.Ambiguous = append(out.Ambiguous, *g)
	}
	sort.Slice(out.Ambiguous, func(i, j int) bool {
		return out.Ambiguous[i].NormalizedName < out.Ambiguous[j].NormalizedName
	})

	return out
}
