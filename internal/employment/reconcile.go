// Package employment keeps person-company associations in step with scraped
// company rosters.
package employment

import (
	"sort"
	"time"

	"github.com/ppiankov/rollcall/internal/model"
	"github.com/ppiankov/rollcall/internal/normalize"
)

// Reconcile compares a company's scraped roster with its known associations.
//
// A CURRENT association whose person is missing from the roster becomes
// FORMER. A roster member without a CURRENT association for the company gets
// a new CURRENT association first seen at the given time; FORMER rows are
// never revived. Members present on both sides produce nothing, so a second
// pass over the same roster yields no work.
func Reconcile(companyID string, roster []model.RosterMember, known []model.EmploymentAssociation, at time.Time) ([]model.EmploymentAssociation, []model.StatusUpdate) {
	members := make(map[string]model.RosterMember, len(roster))
	for _, m := range roster {
		key := memberKey(m)
		if key == "" {
			continue
		}
		if prev, ok := members[key]; ok && prev.ProfileURL != "" {
			continue
		}
		members[key] = m
	}

	current := make(map[string]struct{})
	var updates []model.StatusUpdate
	for _, a := range known {
		if a.CompanyID != companyID || a.Status != model.StatusCurrent {
			continue
		}
		current[a.PersonID] = struct{}{}
		if _, listed := members[a.PersonID]; listed {
			continue
		}
		updates = append(updates, model.StatusUpdate{
			AssociationID: a.ID,
			PersonID:      a.PersonID,
			CompanyID:     companyID,
			From:          model.StatusCurrent,
			To:            model.StatusFormer,
			At:            at,
		})
	}

	var added []model.EmploymentAssociation
	for key, m := range members {
		if _, ok := current[key]; ok {
			continue
		}
		added = append(added, model.EmploymentAssociation{
			PersonID:   key,
			ProfileURL: normalize.ProfileURL(m.ProfileURL),
			CompanyID:  companyID,
			Status:     model.StatusCurrent,
			FirstSeen:  at,
			LastSeen:   at,
		})
	}

	sort.Slice(added, func(i, j int) bool { return added[i].PersonID < added[j].PersonID })
	sort.Slice(updates, func(i, j int) bool {
		if updates[i].PersonID != updates[j].PersonID {
			return updates[i].PersonID < updates[j].PersonID
		}
		return updates[i].AssociationID < updates[j].AssociationID
	})
	return added, updates
}

func memberKey(m model.RosterMember) string {
	if m.NormalizedName != "" {
		return m.NormalizedName
	}
	return normalize.Name(m.DisplayName)
}
