package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/rollcall/internal/model"
	"github.com/ppiankov/rollcall/internal/normalize"
)

type memorySpeaker struct {
	name       string
	normName   string
	websiteURL string
	profileURL string
	method     model.Method
	resolvedAt time.Time
}

type memoryTalk struct {
	speaker string
	talk    model.Talk
	company string
}

// Memory is an in-process Repository. It is safe for concurrent use.
type Memory struct {
	mu           sync.RWMutex
	speakers     map[string]*memorySpeaker
	talks        []memoryTalk
	profiles     map[string]model.Profile
	associations []model.EmploymentAssociation
	transitions  []model.StatusUpdate
	observed     map[string]time.Time
	nextID       int64
}

// NewMemory creates an empty in-memory repository
func NewMemory() *Memory {
	return &Memory{
		speakers: make(map[string]*memorySpeaker),
		profiles: make(map[string]model.Profile),
		observed: make(map[string]time.Time),
	}
}

// Close is a no-op
func (m *Memory) Close() error { return nil }

func (m *Memory) UnresolvedPeople(_ context.Context) ([]model.UnresolvedPerson, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.UnresolvedPerson
	for _, name := range m.speakerNames() {
		s := m.speakers[name]
		if s.profileURL != "" {
			continue
		}
		p := model.UnresolvedPerson{ID: s.name, DisplayName: s.name, NormalizedName: s.normName}
		if t, ok := m.latestTalk(s.name); ok {
			p.SourceContext = fmt.Sprintf("conf:%s/%d", t.talk.ConferenceName, t.talk.ConferenceYear)
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *Memory) People(_ context.Context) ([]model.PersonIdentity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.PersonIdentity
	for _, name := range m.speakerNames() {
		s := m.speakers[name]
		p := model.PersonIdentity{
			ID:             s.name,
			DisplayName:    s.name,
			NormalizedName: s.normName,
			ProfileURL:     s.profileURL,
			WebsiteURL:     s.websiteURL,
		}
		var latestYear int
		for _, t := range m.talks {
			if t.speaker == s.name && t.company != "" && (p.Employer == "" || t.talk.ConferenceYear > latestYear) {
				p.Employer = t.company
				latestYear = t.talk.ConferenceYear
			}
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *Memory) Profiles(_ context.Context) ([]model.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProfileURL < out[j].ProfileURL })
	return out, nil
}

func (m *Memory) UpsertMatch(_ context.Context, r model.MatchResult, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.speakers[r.PersonID]
	if !ok {
		return fmt.Errorf("speaker %q: %w", r.PersonID, ErrNotFound)
	}
	s.profileURL = r.ProfileURL
	s.method = r.Method
	s.resolvedAt = at
	return nil
}

func (m *Memory) Talks(_ context.Context) ([]model.TalkRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.TalkRecord, 0, len(m.talks))
	for _, t := range m.talks {
		out = append(out, model.TalkRecord{
			SpeakerNormalizedName: m.speakers[t.speaker].normName,
			ConferenceName:        t.talk.ConferenceName,
			ConferenceYear:        t.talk.ConferenceYear,
			TalkTitle:             t.talk.Title,
		})
	}
	return out, nil
}

// ImportSpeakers stores speakers and their talks. A talk without a title
// takes the title of a later import for the same speaker and conference.
func (m *Memory) ImportSpeakers(_ context.Context, records []model.SpeakerRecord) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inserted := 0
	for _, r := range records {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			continue
		}
		s, ok := m.speakers[name]
		if !ok {
			s = &memorySpeaker{name: name, normName: normalize.Name(name)}
			m.speakers[name] = s
		}
		if s.websiteURL == "" {
			s.websiteURL = strings.TrimSpace(r.WebsiteURL)
		}
		if s.profileURL == "" {
			s.profileURL = normalize.ProfileURL(r.ProfileURL)
		}

		if r.ConferenceName == "" {
			continue
		}
		t := memoryTalk{
			speaker: name,
			talk:    model.Talk{ConferenceName: r.ConferenceName, ConferenceYear: r.ConferenceYear, Title: strings.TrimSpace(r.TalkTitle)},
			company: strings.TrimSpace(r.Company),
		}
		if m.hasTalk(t) || m.fillTitle(t) {
			continue
		}
		m.talks = append(m.talks, t)
		inserted++
	}
	return inserted, nil
}

func (m *Memory) UpsertProfiles(_ context.Context, profiles []model.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range profiles {
		if p.ProfileURL == "" {
			continue
		}
		if prev, ok := m.profiles[p.ProfileURL]; ok {
			if p.Headline == "" {
				p.Headline = prev.Headline
			}
			if p.Location == "" {
				p.Location = prev.Location
			}
		}
		m.profiles[p.ProfileURL] = p
	}
	return nil
}

func (m *Memory) Associations(_ context.Context, companyID string) ([]model.EmploymentAssociation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.EmploymentAssociation
	for _, a := range m.associations {
		if a.CompanyID == companyID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *Memory) AllAssociations(_ context.Context) ([]model.EmploymentAssociation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]model.EmploymentAssociation(nil), m.associations...), nil
}

func (m *Memory) InsertAssociation(_ context.Context, a model.EmploymentAssociation) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.associations {
		if existing.CompanyID == a.CompanyID && existing.PersonID == a.PersonID &&
			existing.Status == model.StatusCurrent && a.Status == model.StatusCurrent {
			return false, nil
		}
	}
	m.nextID++
	a.ID = m.nextID
	a.FirstSeen = a.FirstSeen.UTC()
	a.LastSeen = a.LastSeen.UTC()
	m.associations = append(m.associations, a)
	return true, nil
}

func (m *Memory) UpdateStatus(_ context.Context, u model.StatusUpdate) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.associations {
		a := &m.associations[i]
		if a.ID != u.AssociationID {
			continue
		}
		if a.Status != u.From {
			return false, nil
		}
		a.Status = u.To
		m.transitions = append(m.transitions, u)
		return true, nil
	}
	return false, fmt.Errorf("association %d: %w", u.AssociationID, ErrNotFound)
}

func (m *Memory) RecordObservation(_ context.Context, companyID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	at = at.UTC()
	if prev, ok := m.observed[companyID]; !ok || at.After(prev) {
		m.observed[companyID] = at
	}
	return nil
}

func (m *Memory) Observations(_ context.Context) (map[string]time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]time.Time, len(m.observed))
	for k, v := range m.observed {
		out[k] = v
	}
	return out, nil
}

// Transitions returns the recorded status history
func (m *Memory) Transitions() []model.StatusUpdate {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]model.StatusUpdate(nil), m.transitions...)
}

func (m *Memory) speakerNames() []string {
	names := make([]string, 0, len(m.speakers))
	for name := range m.speakers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *Memory) latestTalk(speaker string) (memoryTalk, bool) {
	var best memoryTalk
	found := false
	for _, t := range m.talks {
		if t.speaker != speaker {
			continue
		}
		if !found || t.talk.ConferenceYear > best.talk.ConferenceYear ||
			(t.talk.ConferenceYear == best.talk.ConferenceYear && t.talk.ConferenceName < best.talk.ConferenceName) {
			best = t
			found = true
		}
	}
	return best, found
}

func (m *Memory) hasTalk(t memoryTalk) bool {
	for _, existing := range m.talks {
		if existing.speaker == t.speaker && existing.talk == t.talk {
			return true
		}
	}
	return false
}

// fillTitle merges t into an appearance at the same conference that is
// missing either side's title. It reports whether t was absorbed.
func (m *Memory) fillTitle(t memoryTalk) bool {
	for i := range m.talks {
		existing := &m.talks[i]
		if existing.speaker != t.speaker ||
			existing.talk.ConferenceName != t.talk.ConferenceName ||
			existing.talk.ConferenceYear != t.talk.ConferenceYear {
			continue
		}
		if t.talk.Title == "" {
			return true
		}
		if existing.talk.Title == "" {
			existing.talk.Title = t.talk.Title
			if existing.company == "" {
				existing.company = t.company
			}
			return true
		}
	}
	return false
}
