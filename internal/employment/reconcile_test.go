package employment

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/rollcall/internal/model"
)

var (
	march = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	april = time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
)

func members(names ...string) []model.RosterMember {
	out := make([]model.RosterMember, 0, len(names))
	for _, n := range names {
		out = append(out, model.RosterMember{NormalizedName: n, DisplayName: n})
	}
	return out
}

func current(id int64, person, company string) model.EmploymentAssociation {
	return model.EmploymentAssociation{
		ID: id, PersonID: person, CompanyID: company,
		Status: model.StatusCurrent, FirstSeen: march, LastSeen: march,
	}
}

// apply mimics the store: inserts get IDs, updates flip status.
func apply(known []model.EmploymentAssociation, added []model.EmploymentAssociation, updates []model.StatusUpdate) []model.EmploymentAssociation {
	out := append([]model.EmploymentAssociation{}, known...)
	for _, u := range updates {
		for i := range out {
			if out[i].ID == u.AssociationID && out[i].Status == u.From {
				out[i].Status = u.To
			}
		}
	}
	next := int64(len(out)) + 100
	for _, a := range added {
		next++
		a.ID = next
		out = append(out, a)
	}
	return out
}

func TestReconcile_RosterChange(t *testing.T) {
	known := []model.EmploymentAssociation{current(1, "alice", "acme"), current(2, "bob", "acme")}

	added, updates := Reconcile("acme", members("alice", "carol"), known, april)

	wantUpdates := []model.StatusUpdate{{
		AssociationID: 2, PersonID: "bob", CompanyID: "acme",
		From: model.StatusCurrent, To: model.StatusFormer, At: april,
	}}
	if diff := cmp.Diff(wantUpdates, updates); diff != "" {
		t.Errorf("updates mismatch (-want +got):\n%s", diff)
	}

	wantAdded := []model.EmploymentAssociation{{
		PersonID: "carol", CompanyID: "acme", Status: model.StatusCurrent, FirstSeen: april, LastSeen: april,
	}}
	if diff := cmp.Diff(wantAdded, added); diff != "" {
		t.Errorf("added mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	known := []model.EmploymentAssociation{current(1, "alice", "acme"), current(2, "bob", "acme")}
	roster := members("alice", "carol")

	added, updates := Reconcile("acme", roster, known, april)
	next := apply(known, added, updates)

	added, updates = Reconcile("acme", roster, next, april.Add(24*time.Hour))
	assert.Empty(t, added)
	assert.Empty(t, updates)
}

func TestReconcile_FormerNeverRevived(t *testing.T) {
	known := []model.EmploymentAssociation{
		{ID: 1, PersonID: "bob", CompanyID: "acme", Status: model.StatusFormer, FirstSeen: march, LastSeen: march},
	}

	added, updates := Reconcile("acme", members("bob"), known, april)
	assert.Empty(t, updates)
	require.Len(t, added, 1)
	assert.Equal(t, model.StatusCurrent, added[0].Status)
	assert.Equal(t, april, added[0].FirstSeen)
}

func TestReconcile_IgnoresOtherCompanies(t *testing.T) {
	known := []model.EmploymentAssociation{current(1, "alice", "globex")}

	added, updates := Reconcile("acme", nil, known, april)
	assert.Empty(t, added)
	assert.Empty(t, updates)
}

func TestReconcile_EmptyRosterRetiresEveryone(t *testing.T) {
	known := []model.EmploymentAssociation{current(1, "alice", "acme"), current(2, "bob", "acme")}

	_, updates := Reconcile("acme", nil, known, april)
	require.Len(t, updates, 2)
	for _, u := range updates {
		assert.Equal(t, model.StatusFormer, u.To)
	}
}

func TestReconcile_DuplicateMembersAndNormalization(t *testing.T) {
	roster := []model.RosterMember{
		{DisplayName: "Carol  Ng"},
		{NormalizedName: "carol ng", ProfileURL: "https://www.linkedin.com/in/CarolNg/"},
		{DisplayName: ""},
	}

	added, updates := Reconcile("acme", roster, nil, april)
	assert.Empty(t, updates)
	require.Len(t, added, 1)
	assert.Equal(t, "carol ng", added[0].PersonID)
	assert.Equal(t, "https://linkedin.com/in/carolng", added[0].ProfileURL)
}
