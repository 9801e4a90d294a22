package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/rollcall/internal/pipeline"
	"github.com/ppiankov/rollcall/internal/report"
)

// reportCmd groups the CSV report commands
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write CSV reports from the store",
	Long: `Write flat CSV sheets for spreadsheets:
  speakers   one row per speaker with talks and employment, plus former_speakers.csv
  employees  one row per tracked employee with every company association`,
}

var reportSpeakersCmd = &cobra.Command{
	Use:   "speakers",
	Short: "Write speakers.csv and former_speakers.csv",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, pipeline.Sheets{Speakers: true})
	},
}

var reportEmployeesCmd = &cobra.Command{
	Use:   "employees",
	Short: "Write employees.csv",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, pipeline.Sheets{Employees: true})
	},
}

var reportAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Write every report",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, pipeline.Sheets{Speakers: true, Employees: true})
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportSpeakersCmd)
	reportCmd.AddCommand(reportEmployeesCmd)
	reportCmd.AddCommand(reportAllCmd)
}

func runReport(cmd *cobra.Command, sheets pipeline.Sheets) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmdContext(cmd)

	banner("Rollcall Report",
		[2]string{"Store", cfg.Store.Path},
		[2]string{"Output dir", cfg.Output.Dir},
	)

	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	summary, rep, err := s.pipeline.WriteReport(ctx, sheets)
	if err != nil {
		return fmt.Errorf("report failed: %w", err)
	}

	if sheets.Speakers {
		fmt.Fprintf(os.Stderr, "✓ %d speakers, %d former employees\n", len(rep.Speakers), len(rep.Former))
	}
	if sheets.Employees {
		fmt.Fprintf(os.Stderr, "✓ %d tracked employees\n", len(rep.Employees))
	}

	report.PrintSummary(os.Stdout, summary)
	return nil
}
