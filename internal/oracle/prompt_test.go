package oracle

import (
	"errors"
	"strings"
	"testing"
)

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(sampleRequest())

	for _, want := range []string{
		`"John Smith"`,
		"the speaker list of GopherCon 2024",
		"https://linkedin.com/in/jsmith-go",
		"https://linkedin.com/in/jsmith-baker",
		"headline: Go engineer at Acme",
		"connection: 1st",
		`"profile_url"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestParseDecision(t *testing.T) {
	req := sampleRequest()

	tests := []struct {
		name    string
		text    string
		want    string
		wantErr error
	}{
		{
			name: "plain selection",
			text: `{"profile_url": "https://linkedin.com/in/jsmith-go", "confident": true, "reason": "Go talk"}`,
			want: "https://linkedin.com/in/jsmith-go",
		},
		{
			name: "fenced and respelled",
			text: "```json\n{\"profile_url\": \"https://www.linkedin.com/in/JSmith-Go/\", \"confident\": true}\n```",
			want: "https://linkedin.com/in/jsmith-go",
		},
		{
			name: "legacy key",
			text: `{"linkedin_url": "https://linkedin.com/in/jsmith-baker"}`,
			want: "https://linkedin.com/in/jsmith-baker",
		},
		{
			name:    "explicit decline",
			text:    `{"profile_url": "", "confident": false, "reason": "both plausible"}`,
			wantErr: ErrNoConfidentChoice,
		},
		{
			name:    "null url",
			text:    `{"profile_url": "null"}`,
			wantErr: ErrNoConfidentChoice,
		},
		{
			name:    "not confident",
			text:    `{"profile_url": "https://linkedin.com/in/jsmith-go", "confident": false}`,
			wantErr: ErrNoConfidentChoice,
		},
		{
			name:    "url outside the candidate list",
			text:    `{"profile_url": "https://linkedin.com/in/someone-else", "confident": true}`,
			wantErr: ErrMalformedResponse,
		},
		{
			name:    "no json",
			text:    "I think it is the first one",
			wantErr: ErrMalformedResponse,
		},
		{
			name:    "broken json",
			text:    `{"profile_url": }`,
			wantErr: ErrMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecision(tt.text, req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ProfileURL != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got.ProfileURL)
			}
		})
	}
}

func TestDecline_IsNotMalformed(t *testing.T) {
	_, err := ParseDecision(`{"profile_url": ""}`, sampleRequest())
	if errors.Is(err, ErrMalformedResponse) {
		t.Error("decline must be distinguishable from a malformed answer")
	}
}
