package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/rollcall/internal/logging"
	"github.com/ppiankov/rollcall/internal/model"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

var (
	cfgFile string
	verbose bool
	dryRun  bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "rollcall",
	Short: "Rollcall - resolve conference speakers to professional profiles",
	Long: `Rollcall links people scraped from conference agendas to their
professional profiles and tracks who still works where.

It matches speakers against profile-search exports by normalized name,
prefers closer network connections when several profiles share a name,
and asks a language model only when it still cannot tell them apart.
Company rosters are reconciled over time so former employees stay visible.

Absence of a match is a normal outcome: unresolved people are listed for
the next run or for manual review.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		level := cfg.Log.Level
		if verbose {
			level = "debug"
		}
		logger := logging.New(logging.Config{Level: level, Format: cfg.Log.Format, Output: os.Stderr})
		logging.SetDefault(logger)
		cmd.SetContext(logging.WithLogger(cmdContext(cmd), &logger))
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of rollcall.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("rollcall v0.1.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.rollcall/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "compute results without writing to the store or disk")
	rootCmd.PersistentFlags().String("store", "", "SQLite database path")
	rootCmd.PersistentFlags().String("output-dir", "", "directory for CSV reports")
	rootCmd.PersistentFlags().String("log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (console, json, auto)")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("store"))
	_ = viper.BindPFlag("output.dir", rootCmd.PersistentFlags().Lookup("output-dir"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	setDefaults(model.DefaultConfig())

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(filepath.Join(home, ".rollcall"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match ROLLCALL_*, e.g. ROLLCALL_ORACLE_PROVIDER
	viper.SetEnvPrefix("ROLLCALL")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every config key so env variables can override it
func setDefaults(cfg *model.Config) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return
	}
	setDefaultTree("", tree)

	// Omitted from the marshaled defaults when empty
	for _, key := range []string{"oracle.api_key", "oracle.base_url", "oracle.http_proxy", "oracle.https_proxy", "oracle.no_proxy"} {
		viper.SetDefault(key, "")
	}
}

func setDefaultTree(prefix string, tree map[string]any) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			setDefaultTree(key, sub)
			continue
		}
		viper.SetDefault(key, v)
	}
}

// loadConfig resolves the effective configuration
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Provider keys may come from the conventional variables
	if cfg.Oracle.APIKey == "" {
		switch strings.ToLower(cfg.Oracle.Provider) {
		case "openai":
			cfg.Oracle.APIKey = os.Getenv("OPENAI_API_KEY")
		case "gemini", "google":
			cfg.Oracle.APIKey = firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY")
		case "anthropic", "claude":
			cfg.Oracle.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
	if cfg.Oracle.BaseURL == "" && strings.EqualFold(cfg.Oracle.Provider, "ollama") {
		cfg.Oracle.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}
	cfg.Output.Verbose = cfg.Output.Verbose || verbose

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
