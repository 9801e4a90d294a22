// Package store persists identities, talks and employment associations.
//
// Every write is an idempotent upsert: applying the same input twice leaves
// the stored state unchanged. Repository is implemented by SQLite for real
// runs and by Memory for tests.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ppiankov/rollcall/internal/model"
)

// ErrNotFound is returned when an update targets a record that does not exist
var ErrNotFound = errors.New("record not found")

// IdentityStore reads people awaiting resolution and writes their matches
type IdentityStore interface {
	UnresolvedPeople(ctx context.Context) ([]model.UnresolvedPerson, error)
	People(ctx context.Context) ([]model.PersonIdentity, error)
	Profiles(ctx context.Context) ([]model.Profile, error)
	UpsertMatch(ctx context.Context, m model.MatchResult, at time.Time) error
}

// TalkStore holds conference speakers and their talks
type TalkStore interface {
	Talks(ctx context.Context) ([]model.TalkRecord, error)
	ImportSpeakers(ctx context.Context, records []model.SpeakerRecord) (int, error)
}

// EmploymentStore tracks person-company associations over time
type EmploymentStore interface {
	Associations(ctx context.Context, companyID string) ([]model.EmploymentAssociation, error)
	AllAssociations(ctx context.Context) ([]model.EmploymentAssociation, error)
	InsertAssociation(ctx context.Context, a model.EmploymentAssociation) (bool, error)
	UpdateStatus(ctx context.Context, u model.StatusUpdate) (bool, error)
	UpsertProfiles(ctx context.Context, profiles []model.Profile) error
	RecordObservation(ctx context.Context, companyID string, at time.Time) error
	Observations(ctx context.Context) (map[string]time.Time, error)
}

// Repository is the full read/write contract used by the pipeline
type Repository interface {
	IdentityStore
	TalkStore
	EmploymentStore
	Close() error
}
