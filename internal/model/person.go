package model

import "strings"

// UnresolvedPerson is a person observed in a scrape batch that has no profile URL yet
type UnresolvedPerson struct {
	ID             string `json:"id"`                       // Stable person reference (speaker name for conference data)
	DisplayName    string `json:"display_name"`             // Name as scraped
	NormalizedName string `json:"normalized_name"`          // normalize.Name(DisplayName)
	SourceContext  string `json:"source_context,omitempty"` // Opaque origin, e.g. "conf:Devcon/2024"
}

// CandidateIdentity is one profile-search result for a queried name
type CandidateIdentity struct {
	QueryName      string `json:"query_name"`
	NormalizedName string `json:"normalized_name"`
	ProfileURL     string `json:"profile_url"`
	Degree         Degree `json:"connection_degree"`

	// Free-text profile details forwarded to the disambiguation oracle
	FullName string `json:"full_name,omitempty"`
	Headline string `json:"headline,omitempty"`
	Employer string `json:"employer,omitempty"`
	Location string `json:"location,omitempty"`
	Summary  string `json:"summary,omitempty"`
}

// Degree is the professional-network proximity of a candidate
type Degree int

const (
	DegreeUnknown Degree = 0
	DegreeFirst   Degree = 1
	DegreeSecond  Degree = 2
	DegreeThird   Degree = 3
)

// DegreePriority lists tiers from most to least trusted
var DegreePriority = []Degree{DegreeFirst, DegreeSecond, DegreeThird, DegreeUnknown}

func (d Degree) String() string {
	switch d {
	case DegreeFirst:
		return "1st"
	case DegreeSecond:
		return "2nd"
	case DegreeThird:
		return "3rd"
	default:
		return "unknown"
	}
}

// ParseDegree maps export values such as "1st", "2nd", "3rd+" onto a Degree.
// Anything unrecognized is DegreeUnknown.
func ParseDegree(s string) Degree {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(s, "1"), s == "first":
		return DegreeFirst
	case strings.HasPrefix(s, "2"), s == "second":
		return DegreeSecond
	case strings.HasPrefix(s, "3"), s == "third":
		return DegreeThird
	default:
		return DegreeUnknown
	}
}

// Method records how a match was produced
type Method string

const (
	MethodExactUnique         Method = "exact_unique"
	MethodDegreePriority      Method = "degree_priority"
	MethodOracleDisambiguated Method = "oracle_disambiguated"
)

// MatchResult binds an unresolved person to exactly one profile URL
type MatchResult struct {
	PersonID   string `json:"person_id"`
	ProfileURL string `json:"profile_url"`
	Method     Method `json:"resolution_method"`
}

// UnresolvedReason explains why a person left a run without a match
type UnresolvedReason string

const (
	ReasonNoCandidates   UnresolvedReason = "no_candidates"
	ReasonOracleDeclined UnresolvedReason = "oracle_declined"
	ReasonOracleFailed   UnresolvedReason = "oracle_failed"
)

// Unresolved records a person kept for retry or manual review
type Unresolved struct {
	PersonID    string           `json:"person_id"`
	DisplayName string           `json:"display_name"`
	Reason      UnresolvedReason `json:"reason"`
	Detail      string           `json:"detail,omitempty"`
}

// PersonIdentity is the canonical record of a person as stored
type PersonIdentity struct {
	ID             string `json:"id"`
	DisplayName    string `json:"display_name"`
	NormalizedName string `json:"normalized_name"`
	ProfileURL     string `json:"profile_url,omitempty"`
	WebsiteURL     string `json:"website_url,omitempty"`
	Employer       string `json:"employer,omitempty"`
}
