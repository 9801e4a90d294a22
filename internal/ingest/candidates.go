package ingest

import (
	"io"

	"github.com/ppiankov/rollcall/internal/model"
	"github.com/ppiankov/rollcall/internal/normalize"
)

// ReadCandidates parses a profile-search export. Rows reporting a scraper
// error or lacking a profile URL are dropped.
func ReadCandidates(r io.Reader) ([]model.CandidateIdentity, error) {
	cr := newReader(r)
	h, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	if len(h) == 0 {
		return nil, nil
	}
	if _, err := h.require("query"); err != nil {
		return nil, err
	}
	if _, err := h.require("profileurl", "linkedin_url", "profile_url"); err != nil {
		return nil, err
	}

	var out []model.CandidateIdentity
	err = eachRow(cr, func(_ int, row []string) error {
		if h.get(row, "error") != "" {
			return nil
		}
		url := normalize.ProfileURL(h.get(row, "profileurl", "linkedin_url", "profile_url"))
		query := h.get(row, "query")
		if url == "" || query == "" {
			return nil
		}

		summary := h.get(row, "summary")
		if extra := h.get(row, "additionalinfo"); extra != "" {
			if summary != "" {
				summary += "\n"
			}
			summary += extra
		}

		out = append(out, model.CandidateIdentity{
			QueryName:      query,
			NormalizedName: normalize.Name(query),
			ProfileURL:     url,
			Degree:         model.ParseDegree(h.get(row, "connectiondegree", "connection_degree")),
			FullName:       h.get(row, "fullname", "full_name"),
			Headline:       h.get(row, "job", "headline"),
			Employer:       h.get(row, "currentjob", "company"),
			Location:       h.get(row, "location"),
			Summary:        summary,
		})
		return nil
	})
	return out, err
}

// ReadCandidatesFile is ReadCandidates over a file
func ReadCandidatesFile(path string) ([]model.CandidateIdentity, error) {
	var out []model.CandidateIdentity
	err := openFile(path, func(r io.Reader) error {
		var err error
		out, err = ReadCandidates(r)
		return err
	})
	return out, err
}
