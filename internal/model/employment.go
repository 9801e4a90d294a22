package model

import "time"

// EmploymentStatus is the lifecycle state of a person-company association
type EmploymentStatus string

const (
	StatusCurrent EmploymentStatus = "current"
	StatusFormer  EmploymentStatus = "former"
)

// EmploymentAssociation links a person to a company. Only Status ever changes
// after creation, and only from current to former.
type EmploymentAssociation struct {
	ID         int64            `json:"id,omitempty"`
	PersonID   string           `json:"person_id"`             // Normalized name of the person
	ProfileURL string           `json:"profile_url,omitempty"` // Known profile, if the roster carried one
	CompanyID  string           `json:"company_id"`
	Status     EmploymentStatus `json:"status"`
	FirstSeen  time.Time        `json:"first_seen"`
	LastSeen   time.Time        `json:"last_seen"`
}

// StatusUpdate moves an existing association to a new status
type StatusUpdate struct {
	AssociationID int64            `json:"association_id"`
	PersonID      string           `json:"person_id"`
	CompanyID     string           `json:"company_id"`
	From          EmploymentStatus `json:"from"`
	To            EmploymentStatus `json:"to"`
	At            time.Time        `json:"at"`
}

// RosterMember is one person listed on a scraped company roster
type RosterMember struct {
	NormalizedName string `json:"normalized_name"`
	DisplayName    string `json:"display_name"`
	ProfileURL     string `json:"profile_url,omitempty"`
	Headline       string `json:"headline,omitempty"`
	Location       string `json:"location,omitempty"`
}

// Roster is a company's scraped member list at a point in time
type Roster struct {
	CompanyID  string         `json:"company_id"`
	ObservedAt time.Time      `json:"observed_at"`
	Members    []RosterMember `json:"members"`
}

// Profile is a known professional profile (typically a scraped employee)
type Profile struct {
	ProfileURL     string `json:"profile_url"`
	DisplayName    string `json:"display_name"`
	NormalizedName string `json:"normalized_name"`
	Headline       string `json:"headline,omitempty"`
	Location       string `json:"location,omitempty"`
}
