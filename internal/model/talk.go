package model

// TalkRecord is one talk given at a conference, keyed to a speaker by normalized name
type TalkRecord struct {
	SpeakerNormalizedName string `json:"speaker_normalized_name"`
	ConferenceName        string `json:"conference_name"`
	ConferenceYear        int    `json:"conference_year"`
	TalkTitle             string `json:"talk_title"`
}

// Talk is the deduplicated (conference, year, title) tuple attached to a profile
type Talk struct {
	ConferenceName string `json:"conference_name"`
	ConferenceYear int    `json:"conference_year"`
	Title          string `json:"title"`
}

// SpeakerRecord is a raw row of a conference speakers export
type SpeakerRecord struct {
	Name           string
	WebsiteURL     string
	ProfileURL     string
	TalkTitle      string
	ConferenceName string
	ConferenceYear int
	Company        string
}
