package oracle

import (
	"context"
	"sync/atomic"

	"github.com/ppiankov/rollcall/internal/model"
)

func sampleRequest() Request {
	return Request{
		PersonName:     "John Smith",
		NormalizedName: "john smith",
		SourceContext:  "conf:GopherCon/2024",
		Candidates: []model.CandidateIdentity{
			{QueryName: "John Smith", NormalizedName: "john smith", ProfileURL: "https://linkedin.com/in/jsmith-go",
				Degree: model.DegreeFirst, FullName: "John Smith", Headline: "Go engineer at Acme"},
			{QueryName: "John Smith", NormalizedName: "john smith", ProfileURL: "https://linkedin.com/in/jsmith-baker",
				Degree: model.DegreeFirst, FullName: "John Smith", Headline: "Baker"},
		},
	}
}

// scriptedOracle returns queued answers in order and counts calls
type scriptedOracle struct {
	calls   atomic.Int32
	answers []scriptedAnswer
}

type scriptedAnswer struct {
	decision Decision
	err      error
}

func (s *scriptedOracle) Name() string { return "scripted" }

func (s *scriptedOracle) Disambiguate(_ context.Context, _ Request) (Decision, error) {
	n := int(s.calls.Add(1)) - 1
	if n >= len(s.answers) {
		n = len(s.answers) - 1
	}
	a := s.answers[n]
	return a.decision, a.err
}
