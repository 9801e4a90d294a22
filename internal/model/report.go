package model

import "time"

// PersonProfile is the fused one-row-per-person view
type PersonProfile struct {
	Person     PersonIdentity `json:"person"`
	Talks      []Talk         `json:"talks"`                // Deduplicated, never nil
	Employment *EmployeeRow   `json:"employment,omitempty"` // Set when the profile URL is a tracked employee
}

// EmployeeFlag summarizes a profile's employment picture across companies
type EmployeeFlag string

const (
	FlagNew      EmployeeFlag = "new"      // Single current association first seen in the latest scrape
	FlagCurrent  EmployeeFlag = "current"  // Single current association seen across scrapes
	FlagMultiple EmployeeFlag = "multiple" // Several companies, at least one current
	FlagFormer   EmployeeFlag = "former"   // Every association is former
)

// CompanyStatus is one association as shown on the employee roster
type CompanyStatus struct {
	CompanyID string           `json:"company"`
	Status    EmploymentStatus `json:"employment_status"`
	FirstSeen time.Time        `json:"first_seen"`
	LastSeen  time.Time        `json:"last_seen"`
}

// EmployeeRow is the roster view of one tracked person
type EmployeeRow struct {
	PersonID    string          `json:"person_id"`
	DisplayName string          `json:"name"`
	ProfileURL  string          `json:"profile_url,omitempty"`
	Headline    string          `json:"headline,omitempty"`
	Location    string          `json:"location,omitempty"`
	Companies   []CompanyStatus `json:"companies"`
	Flag        EmployeeFlag    `json:"flag"`
}

// RunSummary is the user-visible outcome of one pipeline invocation
type RunSummary struct {
	RunID      string                   `json:"run_id"`
	Kind       string                   `json:"kind"` // resolve, reconcile, report
	StartedAt  time.Time                `json:"started_at"`
	FinishedAt time.Time                `json:"finished_at"`
	Considered int                      `json:"considered"`
	Matched    map[Method]int           `json:"matched,omitempty"`
	Unresolved map[UnresolvedReason]int `json:"unresolved,omitempty"`
	Updated    int                      `json:"updated"`
	Inserted   int                      `json:"inserted"`
	Skipped    int                      `json:"skipped"`
	Outputs    []string                 `json:"outputs,omitempty"`
}

// NewRunSummary returns a summary with initialized counters
func NewRunSummary(runID, kind string, startedAt time.Time) *RunSummary {
	return &RunSummary{
		RunID:      runID,
		Kind:       kind,
		StartedAt:  startedAt,
		Matched:    make(map[Method]int),
		Unresolved: make(map[UnresolvedReason]int),
	}
}

// TotalMatched sums matches over all methods
func (s *RunSummary) TotalMatched() int {
	total := 0
	for _, n := range s.Matched {
		total += n
	}
	return total
}

// TotalUnresolved sums unresolved people over all reasons
func (s *RunSummary) TotalUnresolved() int {
	total := 0
	for _, n := range s.Unresolved {
		total += n
	}
	return total
}
