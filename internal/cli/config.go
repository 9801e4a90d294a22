package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/rollcall/internal/model"
)

const configHierarchy = `Configuration hierarchy (highest to lowest priority):
  1. CLI flags
  2. Environment variables (ROLLCALL_*, OPENAI_API_KEY, GEMINI_API_KEY, ANTHROPIC_API_KEY)
  3. Config file (~/.rollcall/config.yaml or --config)
  4. Defaults`

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage rollcall configuration",
	Long:  "Manage rollcall configuration files and settings.\n\n" + configHierarchy,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if f := viper.ConfigFileUsed(); f != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", f)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		if cfg.Oracle.APIKey != "" {
			cfg.Oracle.APIKey = "********"
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}

		fmt.Println(rule)
		fmt.Println("  Current Configuration")
		fmt.Println(rule)
		fmt.Println()
		fmt.Println(string(data))
		fmt.Println(rule)
		fmt.Println()
		fmt.Println(configHierarchy)
		fmt.Println()
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the effective configuration for errors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "✗ %v\n", err)
			return err
		}

		provider := cfg.Oracle.Provider
		if provider == "" {
			provider = "disabled"
		}
		fmt.Printf("✓ Configuration is valid (oracle: %s, store: %s)\n", provider, cfg.Store.Path)
		if cfg.Oracle.Provider != "" && cfg.Oracle.APIKey == "" && cfg.Oracle.Provider != "ollama" {
			fmt.Fprintf(os.Stderr, "  warning: no API key found for %s; resolve will fail, other commands are unaffected\n", cfg.Oracle.Provider)
		}
		return nil
	},
}

var forceInit bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write a default configuration file with every available option.
The file goes to --config when given, otherwise ~/.rollcall/config.yaml.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := initConfigPath()
		if err != nil {
			return err
		}

		if _, err := os.Stat(path); err == nil && !forceInit {
			return fmt.Errorf("config file already exists: %s\nUse 'rollcall config show' to view it, or pass --force to overwrite", path)
		}
		if dryRun {
			fmt.Printf("Would write %s\n", path)
			return nil
		}

		data, err := defaultConfigFile()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return fmt.Errorf("write config: %w", err)
		}

		fmt.Printf("✓ Created default configuration: %s\n", path)
		fmt.Printf("\nTo view the configuration:\n  rollcall config show\n")
		fmt.Printf("\nTo customize, edit the file with your preferred editor:\n  $EDITOR %s\n\n", path)
		return nil
	},
}

func initConfigPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".rollcall", "config.yaml"), nil
}

// defaultConfigFile renders the commented default configuration
func defaultConfigFile() ([]byte, error) {
	body, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("# Rollcall Configuration File\n#\n")
	for _, line := range bytes.Split([]byte(configHierarchy), []byte("\n")) {
		fmt.Fprintf(&buf, "# %s\n", line)
	}
	buf.WriteString("#\n# Durations use Go syntax such as \"500ms\" and \"720h0m0s\".\n\n")
	buf.Write(body)
	buf.WriteString(`
# API keys are best kept in the environment or a .env file:
#   export OPENAI_API_KEY=sk-...
#   export GEMINI_API_KEY=...
#   export ANTHROPIC_API_KEY=sk-ant-...
#   export OLLAMA_BASE_URL=http://localhost:11434
`)
	return buf.Bytes(), nil
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing config file")

	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configValidateCmd, configInitCmd)
}
