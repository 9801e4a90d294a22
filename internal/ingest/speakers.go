package ingest

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ppiankov/rollcall/internal/model"
)

// ReadSpeakers parses a conference speakers export. A website URL pointing
// at linkedin is treated as the speaker's profile URL.
func ReadSpeakers(r io.Reader) ([]model.SpeakerRecord, error) {
	cr := newReader(r)
	h, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	if len(h) == 0 {
		return nil, nil
	}
	for _, cols := range [][]string{
		{"speaker_name", "name"},
		{"conf_name", "conference_name"},
		{"conf_year", "conference_year"},
	} {
		if _, err := h.require(cols...); err != nil {
			return nil, err
		}
	}

	var out []model.SpeakerRecord
	err = eachRow(cr, func(_ int, row []string) error {
		name := h.get(row, "speaker_name", "name")
		if name == "" {
			return nil
		}

		yearText := h.get(row, "conf_year", "conference_year")
		year, err := strconv.Atoi(yearText)
		if err != nil {
			return fmt.Errorf("conference year %q: %w", yearText, err)
		}

		rec := model.SpeakerRecord{
			Name:           name,
			WebsiteURL:     h.get(row, "website_url"),
			ProfileURL:     h.get(row, "linkedin_url", "profile_url", "profileurl"),
			TalkTitle:      h.get(row, "talk_title", "title"),
			ConferenceName: h.get(row, "conf_name", "conference_name"),
			ConferenceYear: year,
			Company:        h.get(row, "company"),
		}
		if strings.Contains(strings.ToLower(rec.WebsiteURL), "linkedin") {
			if rec.ProfileURL == "" {
				rec.ProfileURL = rec.WebsiteURL
			}
			rec.WebsiteURL = ""
		}
		out = append(out, rec)
		return nil
	})
	return out, err
}

// ReadSpeakersFile is ReadSpeakers over a file
func ReadSpeakersFile(path string) ([]model.SpeakerRecord, error) {
	var out []model.SpeakerRecord
	err := openFile(path, func(r io.Reader) error {
		var err error
		out, err = ReadSpeakers(r)
		return err
	})
	return out, err
}
