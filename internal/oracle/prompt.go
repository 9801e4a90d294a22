package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/rollcall/internal/normalize"
)

const systemPrompt = "You match conference speakers to professional profiles. " +
	"You only ever answer with one JSON object and you never invent profile URLs."

// maxPromptCandidates bounds the prompt size for very common names
const maxPromptCandidates = 25

// BuildPrompt renders the disambiguation question for one group
func BuildPrompt(req Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Several professional profiles match the name %q.\n", req.PersonName)
	if req.SourceContext != "" {
		fmt.Fprintf(&b, "The person was found in: %s.\n", describeContext(req.SourceContext))
	}
	b.WriteString("Pick the single profile most likely to belong to this person.\n\nCandidates:\n")

	for i, c := range req.Candidates {
		if i >= maxPromptCandidates {
			fmt.Fprintf(&b, "... and %d more candidates omitted\n", len(req.Candidates)-maxPromptCandidates)
			break
		}
		fmt.Fprintf(&b, "%d. profile_url: %s\n", i+1, c.ProfileURL)
		writeField(&b, "name", c.FullName)
		writeField(&b, "headline", c.Headline)
		writeField(&b, "employer", c.Employer)
		writeField(&b, "location", c.Location)
		writeField(&b, "connection", c.Degree.String())
		writeField(&b, "summary", truncate(c.Summary, 300))
	}

	b.WriteString(`
Answer with exactly one JSON object:
{"profile_url": "<one of the candidate URLs, or empty>", "confident": true|false, "reason": "<short reason>"}

Rules:
- profile_url MUST be copied verbatim from the candidate list.
- If no candidate is clearly the right person, set profile_url to "" and confident to false.
- Do not include any text outside the JSON object.
`)
	return b.String()
}

func writeField(b *strings.Builder, name, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	fmt.Fprintf(b, "   %s: %s\n", name, value)
}

func describeContext(sourceContext string) string {
	if rest, ok := strings.CutPrefix(sourceContext, "conf:"); ok {
		return "the speaker list of " + strings.Replace(rest, "/", " ", 1)
	}
	if rest, ok := strings.CutPrefix(sourceContext, "company:"); ok {
		return "the employee list of " + rest
	}
	return sourceContext
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}

type answer struct {
	ProfileURL  string `json:"profile_url"`
	LinkedInURL string `json:"linkedin_url"`
	Confident   *bool  `json:"confident"`
	Reason      string `json:"reason"`
}

// ParseDecision interprets a backend answer. The selected URL must be one of
// the request's candidates; the candidate's own spelling is returned.
func ParseDecision(text string, req Request) (Decision, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return Decision{}, fmt.Errorf("%w: no JSON object in %q", ErrMalformedResponse, truncate(text, 120))
	}

	var a answer
	if err := json.Unmarshal([]byte(text[start:end+1]), &a); err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	selected := strings.TrimSpace(a.ProfileURL)
	if selected == "" {
		selected = strings.TrimSpace(a.LinkedInURL)
	}
	switch strings.ToLower(selected) {
	case "", "null", "none", "n/a":
		selected = ""
	}

	if selected == "" || (a.Confident != nil && !*a.Confident) {
		if a.Reason != "" {
			return Decision{}, fmt.Errorf("%w: %s", ErrNoConfidentChoice, a.Reason)
		}
		return Decision{}, ErrNoConfidentChoice
	}

	want := normalize.ProfileURL(selected)
	for _, c := range req.Candidates {
		if normalize.ProfileURL(c.ProfileURL) == want {
			return Decision{ProfileURL: c.ProfileURL, Reason: a.Reason}, nil
		}
	}
	return Decision{}, fmt.Errorf("%w: selected %q is not among the candidates", ErrMalformedResponse, selected)
}
