package cli

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/rollcall/internal/ingest"
	"github.com/ppiankov/rollcall/internal/model"
	"github.com/ppiankov/rollcall/internal/report"
)

var observedAt string

// employeesCmd groups company roster commands
var employeesCmd = &cobra.Command{
	Use:   "employees",
	Short: "Track company rosters over time",
}

var employeesReconcileCmd = &cobra.Command{
	Use:   "reconcile <employees-export.csv>...",
	Short: "Apply scraped company rosters to the employment history",
	Long: `Reconcile compares each company's scraped roster with the people known to
work there:
- people no longer listed become former employees
- people listed for the first time are added as current
- everyone else is left untouched

Running it twice on the same export changes nothing.

Example:
  rollcall employees reconcile acme-2024-04.csv
  rollcall employees reconcile export.csv --at 2024-04-01`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEmployeesReconcile,
}

func init() {
	rootCmd.AddCommand(employeesCmd)
	employeesCmd.AddCommand(employeesReconcileCmd)

	employeesReconcileCmd.Flags().StringVar(&observedAt, "at", "", "observation time for exports without timestamps (RFC3339 or YYYY-MM-DD, default now)")
}

func parseObservedAt(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid --at %q: use RFC3339 or YYYY-MM-DD", s)
}

func runEmployeesReconcile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	fallback, err := parseObservedAt(observedAt)
	if err != nil {
		return err
	}
	ctx := cmdContext(cmd)

	banner("Rollcall Employees",
		[2]string{"Store", cfg.Store.Path},
		[2]string{"Exports", strconv.Itoa(len(args))},
	)

	var (
		rosters  []model.Roster
		profiles []model.Profile
	)
	for _, path := range args {
		batch, err := ingest.ReadRostersFile(path, fallback)
		if err != nil {
			return fmt.Errorf("read rosters: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Loaded %d companies from %s\n", len(batch.Rosters), path)
		rosters = append(rosters, batch.Rosters...)
		profiles = append(profiles, batch.Profiles...)
	}

	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	res, err := s.pipeline.Reconcile(ctx, rosters, profiles)
	if err != nil {
		return fmt.Errorf("reconcile failed: %w", err)
	}

	for _, company := range res.Stale {
		fmt.Fprintf(os.Stderr, "✗ %s: roster is older than the latest observation, skipped\n", company)
	}
	if cfg.Output.Verbose {
		for _, u := range res.Updates {
			fmt.Fprintf(os.Stderr, "  %s left %s\n", u.PersonID, u.CompanyID)
		}
		for _, a := range res.Added {
			fmt.Fprintf(os.Stderr, "  %s joined %s\n", a.PersonID, a.CompanyID)
		}
	}

	report.PrintSummary(os.Stdout, res.Summary)
	return nil
}
