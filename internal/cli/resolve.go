package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/rollcall/internal/ingest"
	"github.com/ppiankov/rollcall/internal/model"
	"github.com/ppiankov/rollcall/internal/report"
)

var resolveTimeout time.Duration

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve <search-export.csv>...",
	Short: "Match unresolved speakers to profiles from search exports",
	Long: `Resolve loads every speaker without a profile URL and looks their name
up in one or more profile-search exports:
- exactly one profile for the name: matched
- several profiles: the closest connection degree wins
- still several: the configured oracle picks one or declines

People left without a profile are written to unresolved.csv.

Example:
  rollcall resolve searches.csv
  rollcall resolve searches.csv --oracle openai --model gpt-4o-mini
  rollcall resolve a.csv b.csv --workers 8 --dry-run`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().DurationVar(&resolveTimeout, "timeout", 30*time.Minute, "overall run timeout")
	resolveCmd.Flags().String("oracle", "", "oracle provider (openai, gemini, anthropic, ollama)")
	resolveCmd.Flags().String("model", "", "oracle model name")
	resolveCmd.Flags().Int("workers", 0, "concurrent oracle workers")
	resolveCmd.Flags().Bool("no-cache", false, "disable the oracle decision cache")
	resolveCmd.Flags().Bool("no-known-profiles", false, "do not offer stored employee profiles as candidates")

	_ = viper.BindPFlag("oracle.provider", resolveCmd.Flags().Lookup("oracle"))
	_ = viper.BindPFlag("oracle.model", resolveCmd.Flags().Lookup("model"))
	_ = viper.BindPFlag("concurrency.workers", resolveCmd.Flags().Lookup("workers"))
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}
	if noKnown, _ := cmd.Flags().GetBool("no-known-profiles"); noKnown {
		cfg.Match.IncludeKnownProfiles = false
	}

	ctx, cancel := context.WithTimeout(cmdContext(cmd), resolveTimeout)
	defer cancel()

	oracleName := cfg.Oracle.Provider
	if oracleName == "" {
		oracleName = "disabled"
	} else if cfg.Oracle.Model != "" {
		oracleName += "/" + cfg.Oracle.Model
	}
	banner("Rollcall Resolve",
		[2]string{"Store", cfg.Store.Path},
		[2]string{"Exports", strconv.Itoa(len(args))},
		[2]string{"Oracle", oracleName},
		[2]string{"Workers", strconv.Itoa(cfg.Concurrency.Workers)},
		[2]string{"Output dir", cfg.Output.Dir},
	)

	var candidates []model.CandidateIdentity
	for _, path := range args {
		c, err := ingest.ReadCandidatesFile(path)
		if err != nil {
			return fmt.Errorf("read candidates: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Loaded %d candidates from %s\n", len(c), path)
		candidates = append(candidates, c...)
	}

	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	fmt.Fprintf(os.Stderr, "⚙️  Resolving...\n")
	res, err := s.pipeline.Resolve(ctx, candidates)
	if err != nil {
		return fmt.Errorf("resolve failed: %w", err)
	}

	if cfg.Output.Verbose {
		for _, m := range res.Matches {
			fmt.Fprintf(os.Stderr, "✓ %s → %s (%s)\n", m.PersonID, m.ProfileURL, m.Method)
		}
		for _, u := range res.Unresolved {
			fmt.Fprintf(os.Stderr, "✗ %s: %s\n", u.DisplayName, u.Reason)
		}
	}

	report.PrintSummary(os.Stdout, res.Summary)
	return nil
}
