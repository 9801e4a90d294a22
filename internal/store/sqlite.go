package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/rollcall/internal/model"
	"github.com/ppiankov/rollcall/internal/normalize"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes incompatibly
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by an incompatible version
var ErrSchemaMismatch = errors.New("schema version mismatch")

// SQLite is a Repository backed by a single SQLite file
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the database at path and applies the schema
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer at a time keeps busy errors away from batch runs
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	s := &SQLite{db: db, path: path}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database file location
func (s *SQLite) Path() string { return s.path }

// Close closes the underlying database connection
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d", ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

func (s *SQLite) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// UnresolvedPeople returns speakers that have no profile URL yet
func (s *SQLite) UnresolvedPeople(ctx context.Context) ([]model.UnresolvedPerson, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT s.name, s.norm_name,
               COALESCE((SELECT t.conference_name || '/' || t.conference_year
                           FROM talks t WHERE t.speaker_name = s.name
                          ORDER BY t.conference_year DESC, t.conference_name LIMIT 1), '')
          FROM speakers s
         WHERE s.profile_url IS NULL OR s.profile_url = ''
         ORDER BY s.name`)
	if err != nil {
		return nil, fmt.Errorf("query unresolved speakers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.UnresolvedPerson
	for rows.Next() {
		var p model.UnresolvedPerson
		var conf string
		if err := rows.Scan(&p.ID, &p.NormalizedName, &conf); err != nil {
			return nil, fmt.Errorf("scan unresolved speaker: %w", err)
		}
		p.DisplayName = p.ID
		if conf != "" {
			p.SourceContext = "conf:" + conf
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// People returns every stored speaker identity
func (s *SQLite) People(ctx context.Context) ([]model.PersonIdentity, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT s.name, s.norm_name, COALESCE(s.profile_url, ''), COALESCE(s.website_url, ''),
               COALESCE((SELECT t.company FROM talks t
                          WHERE t.speaker_name = s.name AND t.company IS NOT NULL AND t.company != ''
                          ORDER BY t.conference_year DESC LIMIT 1), '')
          FROM speakers s
         ORDER BY s.name`)
	if err != nil {
		return nil, fmt.Errorf("query speakers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.PersonIdentity
	for rows.Next() {
		var p model.PersonIdentity
		if err := rows.Scan(&p.ID, &p.NormalizedName, &p.ProfileURL, &p.WebsiteURL, &p.Employer); err != nil {
			return nil, fmt.Errorf("scan speaker: %w", err)
		}
		p.DisplayName = p.ID
		out = append(out, p)
	}
	return out, rows.Err()
}

// Profiles returns every known professional profile
func (s *SQLite) Profiles(ctx context.Context) ([]model.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT profile_url, name, norm_name, COALESCE(headline, ''), COALESCE(location, '')
          FROM profiles ORDER BY profile_url`)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Profile
	for rows.Next() {
		var p model.Profile
		if err := rows.Scan(&p.ProfileURL, &p.DisplayName, &p.NormalizedName, &p.Headline, &p.Location); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpsertMatch writes the resolved profile URL onto the person. Last write wins.
func (s *SQLite) UpsertMatch(ctx context.Context, m model.MatchResult, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE speakers SET profile_url = ?, resolution_method = ?, resolved_at = ? WHERE name = ?`,
		m.ProfileURL, string(m.Method), formatTime(at), m.PersonID,
	)
	if err != nil {
		return fmt.Errorf("update speaker %q: %w", m.PersonID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("speaker %q: %w", m.PersonID, ErrNotFound)
	}
	return nil
}

// Talks returns every talk keyed by the speaker's normalized name
func (s *SQLite) Talks(ctx context.Context) ([]model.TalkRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT s.norm_name, t.conference_name, t.conference_year, t.talk_title
          FROM talks t JOIN speakers s ON s.name = t.speaker_name
         ORDER BY t.id`)
	if err != nil {
		return nil, fmt.Errorf("query talks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.TalkRecord
	for rows.Next() {
		var t model.TalkRecord
		if err := rows.Scan(&t.SpeakerNormalizedName, &t.ConferenceName, &t.ConferenceYear, &t.TalkTitle); err != nil {
			return nil, fmt.Errorf("scan talk: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ImportSpeakers stores speakers, their conferences and talks. Existing
// profile and website URLs are never overwritten by an import. A talk
// stored without a title takes the title of a later import for the same
// speaker and conference. It returns the number of new talks.
func (s *SQLite) ImportSpeakers(ctx context.Context, records []model.SpeakerRecord) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	inserted := 0
	for _, r := range records {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO speakers (name, norm_name, website_url, profile_url)
            VALUES (?, ?, ?, ?)
            ON CONFLICT(name) DO UPDATE SET
                website_url = COALESCE(speakers.website_url, excluded.website_url),
                profile_url = COALESCE(NULLIF(speakers.profile_url, ''), excluded.profile_url)`,
			name, normalize.Name(name), nullableString(r.WebsiteURL), nullableString(normalize.ProfileURL(r.ProfileURL)),
		); err != nil {
			return 0, fmt.Errorf("upsert speaker %q: %w", name, err)
		}

		if r.ConferenceName == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO conferences (name, year) VALUES (?, ?)`,
			r.ConferenceName, r.ConferenceYear,
		); err != nil {
			return 0, fmt.Errorf("insert conference %s/%d: %w", r.ConferenceName, r.ConferenceYear, err)
		}
		title := strings.TrimSpace(r.TalkTitle)
		absorbed, err := fillTalkTitle(ctx, tx, name, r.ConferenceName, r.ConferenceYear, title, r.Company)
		if err != nil {
			return 0, fmt.Errorf("fill talk title for %q: %w", name, err)
		}
		if absorbed {
			continue
		}
		res, err := tx.ExecContext(ctx, `
            INSERT OR IGNORE INTO talks (speaker_name, conference_name, conference_year, talk_title, company)
            VALUES (?, ?, ?, ?, ?)`,
			name, r.ConferenceName, r.ConferenceYear, title, nullableString(r.Company),
		)
		if err != nil {
			return 0, fmt.Errorf("insert talk for %q: %w", name, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return inserted, nil
}

// fillTalkTitle merges an imported talk into an appearance at the same
// conference that is missing either side's title. It reports whether the
// import was absorbed.
func fillTalkTitle(ctx context.Context, tx *sql.Tx, speaker, conference string, year int, title, company string) (bool, error) {
	if title == "" {
		var n int
		err := tx.QueryRowContext(ctx, `
            SELECT COUNT(*) FROM talks
            WHERE speaker_name = ? AND conference_name = ? AND conference_year = ?`,
			speaker, conference, year,
		).Scan(&n)
		return n > 0, err
	}

	res, err := tx.ExecContext(ctx, `
        UPDATE talks SET talk_title = ?, company = COALESCE(company, ?)
        WHERE id = (
            SELECT id FROM talks
            WHERE speaker_name = ? AND conference_name = ? AND conference_year = ? AND talk_title = ''
            ORDER BY id LIMIT 1)
          AND NOT EXISTS (
            SELECT 1 FROM talks
            WHERE speaker_name = ? AND conference_name = ? AND conference_year = ? AND talk_title = ?)`,
		title, nullableString(company),
		speaker, conference, year,
		speaker, conference, year, title,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// UpsertProfiles stores or refreshes known profiles
func (s *SQLite) UpsertProfiles(ctx context.Context, profiles []model.Profile) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin profiles tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range profiles {
		if p.ProfileURL == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO profiles (profile_url, name, norm_name, headline, location)
            VALUES (?, ?, ?, ?, ?)
            ON CONFLICT(profile_url) DO UPDATE SET
                name = excluded.name,
                norm_name = excluded.norm_name,
                headline = COALESCE(excluded.headline, profiles.headline),
                location = COALESCE(excluded.location, profiles.location)`,
			p.ProfileURL, p.DisplayName, p.NormalizedName, nullableString(p.Headline), nullableString(p.Location),
		); err != nil {
			return fmt.Errorf("upsert profile %s: %w", p.ProfileURL, err)
		}
	}
	return tx.Commit()
}

// Associations returns all associations recorded for one company
func (s *SQLite) Associations(ctx context.Context, companyID string) ([]model.EmploymentAssociation, error) {
	return s.queryAssociations(ctx, `WHERE company_id = ?`, companyID)
}

// AllAssociations returns every association across companies
func (s *SQLite) AllAssociations(ctx context.Context) ([]model.EmploymentAssociation, error) {
	return s.queryAssociations(ctx, "")
}

func (s *SQLite) queryAssociations(ctx context.Context, where string, args ...any) ([]model.EmploymentAssociation, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, person_id, COALESCE(profile_url, ''), company_id, status, first_seen, last_seen
          FROM employment `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query associations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.EmploymentAssociation
	for rows.Next() {
		var a model.EmploymentAssociation
		var status, first, last string
		if err := rows.Scan(&a.ID, &a.PersonID, &a.ProfileURL, &a.CompanyID, &status, &first, &last); err != nil {
			return nil, fmt.Errorf("scan association: %w", err)
		}
		a.Status = model.EmploymentStatus(status)
		if a.FirstSeen, err = parseTime(first); err != nil {
			return nil, fmt.Errorf("association %d first_seen: %w", a.ID, err)
		}
		if a.LastSeen, err = parseTime(last); err != nil {
			return nil, fmt.Errorf("association %d last_seen: %w", a.ID, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// InsertAssociation adds a current association unless one already exists
// for the same person and company. It reports whether a row was written.
func (s *SQLite) InsertAssociation(ctx context.Context, a model.EmploymentAssociation) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
        INSERT OR IGNORE INTO employment (person_id, profile_url, company_id, status, first_seen, last_seen)
        VALUES (?, ?, ?, ?, ?, ?)`,
		a.PersonID, nullableString(a.ProfileURL), a.CompanyID, string(a.Status),
		formatTime(a.FirstSeen), formatTime(a.LastSeen),
	)
	if err != nil {
		return false, fmt.Errorf("insert association %s@%s: %w", a.PersonID, a.CompanyID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// UpdateStatus applies a status transition and appends it to the history.
// Applying the same update twice is a no-op.
func (s *SQLite) UpdateStatus(ctx context.Context, u model.StatusUpdate) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin status tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE employment SET status = ? WHERE id = ? AND status = ?`,
		string(u.To), u.AssociationID, string(u.From),
	)
	if err != nil {
		return false, fmt.Errorf("update association %d: %w", u.AssociationID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM employment WHERE id = ?`, u.AssociationID).Scan(&exists); err != nil {
			return false, fmt.Errorf("check association %d: %w", u.AssociationID, err)
		}
		if exists == 0 {
			return false, fmt.Errorf("association %d: %w", u.AssociationID, ErrNotFound)
		}
		return false, nil
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO employment_transitions (association_id, from_status, to_status, at) VALUES (?, ?, ?, ?)`,
		u.AssociationID, string(u.From), string(u.To), formatTime(u.At),
	); err != nil {
		return false, fmt.Errorf("record transition %d: %w", u.AssociationID, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit status: %w", err)
	}
	return true, nil
}

// RecordObservation remembers the latest scrape time of a company roster
func (s *SQLite) RecordObservation(ctx context.Context, companyID string, at time.Time) error {
	ts := formatTime(at)
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO companies (company_id, last_observed_at) VALUES (?, ?)
        ON CONFLICT(company_id) DO UPDATE SET
            last_observed_at = MAX(companies.last_observed_at, excluded.last_observed_at)`,
		companyID, ts,
	)
	if err != nil {
		return fmt.Errorf("record observation %s: %w", companyID, err)
	}
	return nil
}

// Observations returns the latest roster observation per company
func (s *SQLite) Observations(ctx context.Context) (map[string]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT company_id, last_observed_at FROM companies`)
	if err != nil {
		return nil, fmt.Errorf("query companies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]time.Time)
	for rows.Next() {
		var id, ts string
		if err := rows.Scan(&id, &ts); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		t, err := parseTime(ts)
		if err != nil {
			return nil, fmt.Errorf("company %s last_observed_at: %w", id, err)
		}
		out[id] = t
	}
	return out, rows.Err()
}

// Timestamps are stored in UTC with a fixed width so that string ordering
// (used by MAX above) matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func nullableString(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return s
}
