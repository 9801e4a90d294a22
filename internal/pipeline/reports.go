package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/ppiankov/rollcall/internal/aggregate"
	"github.com/ppiankov/rollcall/internal/model"
	"github.com/ppiankov/rollcall/internal/report"
)

// Sheets selects which reports to write
type Sheets struct {
	Speakers  bool
	Employees bool
}

// Report holds the fused views of the store
type Report struct {
	Speakers  []model.PersonProfile
	Former    []model.PersonProfile
	Employees []model.EmployeeRow
}

// BuildReport reads the store and fuses people, talks and employment
func (p *Pipeline) BuildReport(ctx context.Context) (*Report, error) {
	people, err := p.store.People(ctx)
	if err != nil {
		return nil, fmt.Errorf("load people: %w", err)
	}
	talks, err := p.store.Talks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load talks: %w", err)
	}
	associations, err := p.store.AllAssociations(ctx)
	if err != nil {
		return nil, fmt.Errorf("load associations: %w", err)
	}
	profiles, err := p.store.Profiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	observed, err := p.store.Observations(ctx)
	if err != nil {
		return nil, fmt.Errorf("load observations: %w", err)
	}

	employees := aggregate.Employees(associations, profiles, observed)
	speakers := aggregate.AttachEmployment(aggregate.Profiles(people, talks), employees)

	return &Report{
		Speakers:  speakers,
		Former:    aggregate.FormerSpeakers(speakers),
		Employees: employees,
	}, nil
}

// WriteReport builds the report and writes the selected sheets into the
// output directory
func (p *Pipeline) WriteReport(ctx context.Context, sheets Sheets) (*model.RunSummary, *Report, error) {
	summary := model.NewRunSummary(uuid.NewString(), "report", p.now())

	rep, err := p.BuildReport(ctx)
	if err != nil {
		return nil, nil, err
	}

	type sheet struct {
		name  string
		write func(io.Writer) error
	}
	var out []sheet
	if sheets.Speakers {
		summary.Considered += len(rep.Speakers)
		out = append(out,
			sheet{report.SpeakersFile, func(w io.Writer) error { return report.WriteSpeakers(w, rep.Speakers) }},
			sheet{report.FormerFile, func(w io.Writer) error { return report.WriteSpeakers(w, rep.Former) }},
		)
	}
	if sheets.Employees {
		summary.Considered += len(rep.Employees)
		out = append(out, sheet{report.EmployeesFile, func(w io.Writer) error { return report.WriteEmployees(w, rep.Employees) }})
	}

	if !p.dryRun {
		for _, s := range out {
			path := filepath.Join(p.config.Output.Dir, s.name)
			if err := report.WriteFile(path, s.write); err != nil {
				return nil, nil, fmt.Errorf("write report: %w", err)
			}
			summary.Outputs = append(summary.Outputs, path)
		}
	}

	summary.FinishedAt = p.now()
	return summary, rep, nil
}
