// Package pipeline orchestrates rollcall runs: resolving people to profiles,
// reconciling company rosters, and writing reports.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/rollcall/internal/logging"
	"github.com/ppiankov/rollcall/internal/match"
	"github.com/ppiankov/rollcall/internal/model"
	"github.com/ppiankov/rollcall/internal/oracle"
	"github.com/ppiankov/rollcall/internal/report"
	"github.com/ppiankov/rollcall/internal/store"
)

// ErrInvariantViolation aborts a run whose results are internally
// inconsistent. Nothing is written when it is returned.
var ErrInvariantViolation = errors.New("invariant violation")

// Pipeline runs batches against one store
type Pipeline struct {
	store    store.Repository
	resolver *match.Resolver
	config   *model.Config
	now      func() time.Time
	dryRun   bool

	oracle    oracle.Oracle
	oracleSet bool
}

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithOracle replaces the configured oracle. A nil oracle disables it.
func WithOracle(o oracle.Oracle) Option {
	return func(p *Pipeline) {
		p.oracle = o
		p.oracleSet = true
	}
}

// WithClock sets the time source used for run timestamps
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithDryRun computes results without writing to the store or disk
func WithDryRun(dryRun bool) Option {
	return func(p *Pipeline) { p.dryRun = dryRun }
}

// NewPipeline creates a pipeline over repo. The oracle is built on the first
// Resolve, so commands that never resolve need no oracle credentials.
func NewPipeline(_ context.Context, cfg *model.Config, repo store.Repository, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		store:  repo,
		config: cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// resolverFor builds the oracle chain and resolver on first use
func (p *Pipeline) resolverFor(ctx context.Context) (*match.Resolver, error) {
	if p.resolver != nil {
		return p.resolver, nil
	}
	if !p.oracleSet {
		o, err := NewOracle(ctx, p.config)
		if err != nil {
			return nil, err
		}
		p.oracle = o
		p.oracleSet = true
	}
	if p.oracle == nil {
		logging.FromContext(ctx).Debug().Msg("no oracle configured; ambiguous top tiers stay unresolved")
	}
	p.resolver = match.NewResolver(p.oracle)
	return p.resolver, nil
}

// ResolveResult is the outcome of a resolve run
type ResolveResult struct {
	Summary    *model.RunSummary
	Matches    []model.MatchResult
	Unresolved []model.Unresolved
}

// Resolve matches every person without a profile against candidates,
// settles ambiguous groups and stores the matches.
func (p *Pipeline) Resolve(ctx context.Context, candidates []model.CandidateIdentity) (*ResolveResult, error) {
	resolver, err := p.resolverFor(ctx)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	log := logging.FromContext(ctx)
	summary := model.NewRunSummary(runID, "resolve", p.now())

	// 1. Load people awaiting a profile
	unresolved, err := p.store.UnresolvedPeople(ctx)
	if err != nil {
		return nil, fmt.Errorf("load unresolved people: %w", err)
	}
	summary.Considered = len(unresolved)

	// 2. Build the candidate pool
	pool := candidates
	if p.config.Match.IncludeKnownProfiles {
		profiles, err := p.store.Profiles(ctx)
		if err != nil {
			return nil, fmt.Errorf("load known profiles: %w", err)
		}
		pool = append(append([]model.CandidateIdentity{}, candidates...), knownProfileCandidates(profiles)...)
	}
	log.Debug().Int("people", len(unresolved)).Int("candidates", len(pool)).Msg("matching")

	// 3. Group by name
	outcome := match.Match(unresolved, pool)

	// 4. Resolve ambiguous groups concurrently
	resolutions := resolver.ResolveAll(ctx, outcome.Ambiguous, p.config.Concurrency.Workers)

	// 5. Serialize into at most one match per person
	result, err := match.Collect(outcome, resolutions)
	if err != nil {
		if errors.Is(err, match.ErrConflictingMatch) {
			return nil, fmt.Errorf("%w: %w", ErrInvariantViolation, err)
		}
		return nil, fmt.Errorf("collect matches: %w", err)
	}

	for _, m := range result.Matches {
		summary.Matched[m.Method]++
	}
	for _, u := range result.Unresolved {
		summary.Unresolved[u.Reason]++
	}

	// 6. Persist
	if !p.dryRun {
		at := p.now()
		for _, m := range result.Matches {
			if err := p.store.UpsertMatch(ctx, m, at); err != nil {
				return nil, fmt.Errorf("store match for %s: %w", m.PersonID, err)
			}
			summary.Updated++
		}

		if dir := p.config.Output.Dir; dir != "" {
			path := filepath.Join(dir, report.UnresolvedFile)
			err := report.WriteFile(path, func(w io.Writer) error {
				return report.WriteUnresolved(w, result.Unresolved)
			})
			if err != nil {
				return nil, fmt.Errorf("write unresolved: %w", err)
			}
			summary.Outputs = append(summary.Outputs, path)
		}
	}

	summary.FinishedAt = p.now()
	log.Info().
		Int("considered", summary.Considered).
		Int("matched", summary.TotalMatched()).
		Int("unresolved", summary.TotalUnresolved()).
		Int("oracle_calls", result.OracleCalls).
		Bool("dry_run", p.dryRun).
		Msg("resolve run finished")

	return &ResolveResult{
		Summary:    summary,
		Matches:    result.Matches,
		Unresolved: result.Unresolved,
	}, nil
}

// knownProfileCandidates offers stored profiles as candidates of unknown degree
func knownProfileCandidates(profiles []model.Profile) []model.CandidateIdentity {
	out := make([]model.CandidateIdentity, 0, len(profiles))
	for _, p := range profiles {
		if p.NormalizedName == "" || p.ProfileURL == "" {
			continue
		}
		out = append(out, model.CandidateIdentity{
			QueryName:      p.DisplayName,
			NormalizedName: p.NormalizedName,
			ProfileURL:     p.ProfileURL,
			Degree:         model.DegreeUnknown,
			FullName:       p.DisplayName,
			Headline:       p.Headline,
			Location:       p.Location,
		})
	}
	return out
}

// ImportSpeakers stores speakers and their talks
func (p *Pipeline) ImportSpeakers(ctx context.Context, records []model.SpeakerRecord) (*model.RunSummary, error) {
	summary := model.NewRunSummary(uuid.NewString(), "import", p.now())
	summary.Considered = len(records)

	if !p.dryRun {
		inserted, err := p.store.ImportSpeakers(ctx, records)
		if err != nil {
			return nil, fmt.Errorf("import speakers: %w", err)
		}
		summary.Inserted = inserted
	}

	summary.FinishedAt = p.now()
	logging.FromContext(ctx).Info().Int("records", len(records)).Int("talks_inserted", summary.Inserted).Msg("speakers imported")
	return summary, nil
}

// ImportProfiles stores known profiles without touching employment
func (p *Pipeline) ImportProfiles(ctx context.Context, profiles []model.Profile) (*model.RunSummary, error) {
	summary := model.NewRunSummary(uuid.NewString(), "import", p.now())
	summary.Considered = len(profiles)

	if !p.dryRun {
		if err := p.store.UpsertProfiles(ctx, profiles); err != nil {
			return nil, fmt.Errorf("import profiles: %w", err)
		}
		summary.Updated = len(profiles)
	}

	summary.FinishedAt = p.now()
	return summary, nil
}
