package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/rollcall/internal/ingest"
	"github.com/ppiankov/rollcall/internal/model"
	"github.com/ppiankov/rollcall/internal/report"
)

// importCmd groups the data import commands
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load scraped exports into the store",
}

var importSpeakersCmd = &cobra.Command{
	Use:   "speakers <speakers.csv>...",
	Short: "Import conference speakers and their talks",
	Long: `Import reads speaker exports with the columns
speaker_name, website_url, linkedIn_url, talk_title, conf_name, conf_year, company.

Speakers without a profile URL become candidates for 'rollcall resolve'.
Importing the same file twice adds nothing.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImportSpeakers,
}

var importProfilesCmd = &cobra.Command{
	Use:   "profiles <employees-export.csv>...",
	Short: "Import known profiles without changing employment history",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runImportProfiles,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.AddCommand(importSpeakersCmd)
	importCmd.AddCommand(importProfilesCmd)
}

func runImportSpeakers(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmdContext(cmd)

	var records []model.SpeakerRecord
	for _, path := range args {
		r, err := ingest.ReadSpeakersFile(path)
		if err != nil {
			return fmt.Errorf("read speakers: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Loaded %d speaker rows from %s\n", len(r), path)
		records = append(records, r...)
	}

	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	summary, err := s.pipeline.ImportSpeakers(ctx, records)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "✓ Imported %d new talks\n", summary.Inserted)
	return nil
}

func runImportProfiles(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmdContext(cmd)

	var profiles []model.Profile
	for _, path := range args {
		batch, err := ingest.ReadRostersFile(path, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("read profiles: %w", err)
		}
		profiles = append(profiles, batch.Profiles...)
	}

	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	summary, err := s.pipeline.ImportProfiles(ctx, profiles)
	if err != nil {
		return err
	}
	report.PrintSummary(os.Stdout, summary)
	return nil
}
