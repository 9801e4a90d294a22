package match

import (
	"context"
	"errors"
	"fmt"

	"github.com/ppiankov/rollcall/internal/logging"
	"github.com/ppiankov/rollcall/internal/model"
	"github.com/ppiankov/rollcall/internal/normalize"
	"github.com/ppiankov/rollcall/internal/oracle"
	"github.com/ppiankov/rollcall/internal/worker"
)

// Resolution is the verdict for one ambiguous group. ProfileURL is empty
// when the group stays unresolved.
type Resolution struct {
	NormalizedName string
	ProfileURL     string
	Method         model.Method
	Reason         model.UnresolvedReason
	Detail         string
	OracleCalls    int
}

// Resolved reports whether a profile was chosen
func (r Resolution) Resolved() bool {
	return r.ProfileURL != ""
}

// Resolver settles ambiguous groups
type Resolver struct {
	oracle oracle.Oracle
}

// NewResolver creates a resolver. A nil oracle leaves top tiers with
// several profiles unresolved.
func NewResolver(o oracle.Oracle) *Resolver {
	return &Resolver{oracle: o}
}

// Resolve picks one profile for the group. The closest non-empty degree tier
// wins; if it still holds several profiles the oracle is asked exactly once.
// Oracle declines and failures leave the group unresolved and never return
// an error.
func (r *Resolver) Resolve(ctx context.Context, g Group) Resolution {
	res := Resolution{NormalizedName: g.NormalizedName}

	tier := topTier(g.Candidates)
	urls := DistinctURLs(tier)

	switch len(urls) {
	case 0:
		res.Reason = model.ReasonNoCandidates
		return res
	case 1:
		res.ProfileURL = urls[0]
		res.Method = model.MethodDegreePriority
		return res
	}

	if r.oracle == nil {
		res.Reason = model.ReasonOracleFailed
		res.Detail = "no oracle configured"
		return res
	}

	log := logging.FromContext(ctx).With().
		Str("person", g.NormalizedName).
		Str("oracle", r.oracle.Name()).
		Int("candidates", len(urls)).
		Logger()

	req := oracle.Request{
		NormalizedName: g.NormalizedName,
		Candidates:     uniqueByURL(tier),
	}
	if len(g.People) > 0 {
		req.PersonName = g.People[0].DisplayName
		req.SourceContext = g.People[0].SourceContext
	}
	if req.PersonName == "" {
		req.PersonName = g.NormalizedName
	}

	res.OracleCalls = 1
	decision, err := r.oracle.Disambiguate(ctx, req)
	switch {
	case errors.Is(err, oracle.ErrNoConfidentChoice):
		log.Info().Str("reason", err.Error()).Msg("oracle declined")
		res.Reason = model.ReasonOracleDeclined
		res.Detail = err.Error()
		return res
	case err != nil:
		log.Warn().Err(err).Msg("oracle failed")
		res.Reason = model.ReasonOracleFailed
		res.Detail = err.Error()
		return res
	}

	selected := normalize.ProfileURL(decision.ProfileURL)
	if !containsString(urls, selected) {
		log.Warn().Str("selected", decision.ProfileURL).Msg("oracle selected a profile outside the top tier")
		res.Reason = model.ReasonOracleFailed
		res.Detail = fmt.Sprintf("selected %q is not a top-tier candidate", decision.ProfileURL)
		return res
	}

	log.Debug().Str("profile_url", selected).Msg("oracle selected profile")
	res.ProfileURL = selected
	res.Method = model.MethodOracleDisambiguated
	return res
}

// ResolveAll resolves groups on a worker pool and returns resolutions in
// group order. A panic while resolving one group only affects that group.
func (r *Resolver) ResolveAll(ctx context.Context, groups []Group, workers int) []Resolution {
	outcomes := worker.Map(ctx, workers, groups, func(ctx context.Context, g Group) (Resolution, error) {
		return r.Resolve(ctx, g), nil
	})

	out := make([]Resolution, len(groups))
	for i, o := range outcomes {
		switch {
		case !o.Ran:
			out[i] = Resolution{
				NormalizedName: groups[i].NormalizedName,
				Reason:         model.ReasonOracleFailed,
				Detail:         "not resolved: run cancelled",
			}
		case o.Err != nil:
			logging.FromContext(ctx).Error().Err(o.Err).Str("person", groups[i].NormalizedName).Msg("resolution panicked")
			out[i] = Resolution{
				NormalizedName: groups[i].NormalizedName,
				Reason:         model.ReasonOracleFailed,
				Detail:         o.Err.Error(),
			}
		default:
			out[i] = o.Value
		}
	}
	return out
}

// topTier returns the candidates of the closest non-empty degree tier
func topTier(candidates []model.CandidateIdentity) []model.CandidateIdentity {
	for _, d := range model.DegreePriority {
		var tier []model.CandidateIdentity
		for _, c := range candidates {
			if c.Degree == d {
				tier = append(tier, c)
			}
		}
		if len(tier) > 0 {
			return tier
		}
	}
	return nil
}

// uniqueByURL keeps the first candidate per canonical URL
func uniqueByURL(candidates []model.CandidateIdentity) []model.CandidateIdentity {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]model.CandidateIdentity, 0, len(candidates))
	for _, c := range candidates {
		u := normalize.ProfileURL(c.ProfileURL)
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, c)
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
