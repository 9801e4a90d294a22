package pipeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/ppiankov/rollcall/internal/employment"
	"github.com/ppiankov/rollcall/internal/logging"
	"github.com/ppiankov/rollcall/internal/model"
)

// ReconcileResult is the outcome of a reconcile run
type ReconcileResult struct {
	Summary *model.RunSummary
	Added   []model.EmploymentAssociation
	Updates []model.StatusUpdate
	// Stale lists companies whose roster predates their latest observation
	Stale []string
}

// Reconcile applies scraped rosters to the employment history. Rosters are
// processed oldest first; a roster older than the company's latest recorded
// observation is skipped.
func (p *Pipeline) Reconcile(ctx context.Context, rosters []model.Roster, profiles []model.Profile) (*ReconcileResult, error) {
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	log := logging.FromContext(ctx)
	summary := model.NewRunSummary(runID, "reconcile", p.now())
	res := &ReconcileResult{Summary: summary}

	if !p.dryRun && len(profiles) > 0 {
		if err := p.store.UpsertProfiles(ctx, profiles); err != nil {
			return nil, fmt.Errorf("store profiles: %w", err)
		}
	}

	observed, err := p.store.Observations(ctx)
	if err != nil {
		return nil, fmt.Errorf("load observations: %w", err)
	}

	ordered := append([]model.Roster{}, rosters...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ObservedAt.Before(ordered[j].ObservedAt) })

	for _, roster := range ordered {
		clog := log.With().Str("company", roster.CompanyID).Time("observed_at", roster.ObservedAt).Logger()

		if latest, ok := observed[roster.CompanyID]; ok && roster.ObservedAt.Before(latest) {
			clog.Warn().Time("latest", latest).Msg("skipping roster older than latest observation")
			res.Stale = append(res.Stale, roster.CompanyID)
			continue
		}

		known, err := p.store.Associations(ctx, roster.CompanyID)
		if err != nil {
			return nil, fmt.Errorf("load associations for %s: %w", roster.CompanyID, err)
		}

		added, updates := employment.Reconcile(roster.CompanyID, roster.Members, known, roster.ObservedAt)
		summary.Considered += len(roster.Members)
		summary.Skipped += countCurrent(known) - len(updates)
		res.Added = append(res.Added, added...)
		res.Updates = append(res.Updates, updates...)

		if p.dryRun {
			summary.Inserted += len(added)
			summary.Updated += len(updates)
			continue
		}

		for _, a := range added {
			inserted, err := p.store.InsertAssociation(ctx, a)
			if err != nil {
				return nil, fmt.Errorf("insert association %s@%s: %w", a.PersonID, a.CompanyID, err)
			}
			if inserted {
				summary.Inserted++
			}
		}
		for _, u := range updates {
			changed, err := p.store.UpdateStatus(ctx, u)
			if err != nil {
				return nil, fmt.Errorf("update association %d: %w", u.AssociationID, err)
			}
			if changed {
				summary.Updated++
				clog.Debug().Str("person", u.PersonID).Msg("now former")
			}
		}
		if err := p.store.RecordObservation(ctx, roster.CompanyID, roster.ObservedAt); err != nil {
			return nil, fmt.Errorf("record observation for %s: %w", roster.CompanyID, err)
		}
		observed[roster.CompanyID] = roster.ObservedAt

		clog.Info().Int("members", len(roster.Members)).Int("added", len(added)).Int("former", len(updates)).Msg("roster reconciled")
	}

	summary.FinishedAt = p.now()
	return res, nil
}

func countCurrent(associations []model.EmploymentAssociation) int {
	n := 0
	for _, a := range associations {
		if a.Status == model.StatusCurrent {
			n++
		}
	}
	return n
}
