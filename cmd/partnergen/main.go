// ABOUTME: Entry point for the partnergen contact list generator.
// ABOUTME: Defines the generate, merge, history and mock-server commands.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/2389/partnergen/internal/config"
	"github.com/2389/partnergen/internal/contact"
	"github.com/2389/partnergen/internal/gateway"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:   "partnergen",
		Short: "Generate partner contact lists per city with a language model",
		Long: `partnergen asks a generative language model for outreach contacts
(influencers, podcasters, journalists, activists, NGOs, other) in every city
of a cities file and writes one CSV per city and partner type:

  <out>/<city_id>/<type>/contacts.csv

An existing file marks its pair as done, so interrupted runs resume where they
stopped. Delete a file to regenerate that pair.

Quick Start:
  partnergen --per-type 50                 # Generate for the built-in cities
  partnergen --cities cities.json          # Generate for your own cities
  partnergen merge                         # Merge every CSV into one file

Environment Variables:
  OPENAI_API_KEY       API key for --provider openai
  GEMINI_API_KEY       API key for --provider gemini
  PARTNERGEN_*         Any flag, e.g. PARTNERGEN_PER_TYPE=20
  PARTNERGEN_DB_PATH   Run history database location`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(v, cmd.Flags(), nil); err != nil {
				return err
			}
			cfg, err := config.Load(v, configFile)
			if err != nil {
				return err
			}
			if cfg.Merge {
				return runMerge(cmd, cfg)
			}
			return runGenerate(cmd, cfg)
		},
	}

	fs := rootCmd.Flags()
	fs.String("cities", "", "Cities file (JSON or YAML); defaults to the built-in list")
	fs.String("out", config.DefaultOut, "Output root directory")
	fs.String("model", "", "Model name (default gpt-4o, or gemini-2.5-flash for gemini)")
	fs.String("provider", config.DefaultProvider, "Generation provider: "+strings.Join(gateway.Providers(), " or "))
	fs.String("base-url", "", "Override the provider API base URL")
	fs.Int("per-type", config.DefaultPerType, "Target contacts per city and partner type")
	fs.String("delay", config.DefaultDelay.String(), "Pause between calls (duration, or seconds as a number)")
	fs.Int("max-attempts", config.DefaultMaxAttempts, "Generation attempts per pair")
	fs.Int("over-request", config.DefaultOverRequest, "Rows accepted per attempt as a multiple of the target")
	fs.Float64("temperature", config.DefaultTemperature, "Sampling temperature")
	fs.Int("max-tokens", 0, "Maximum output tokens per call (0 for the provider default)")
	fs.Duration("timeout", 0, "Timeout per generation call (0 for none)")
	fs.StringSlice("types", nil, "Partner types to process: "+strings.Join(contact.TypeNames(), ","))
	fs.Bool("merge", false, "Merge existing CSVs instead of generating")
	fs.String("merge-output", config.DefaultMergeOutput, "Merged CSV path")
	fs.String("history", "", "Run history database (default under XDG data home, 'off' to disable)")
	fs.String("metrics-file", "", "Write Prometheus metrics to this file at the end of the run")
	rootCmd.PersistentFlags().String("log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", config.DefaultLogFormat, "Log format: console or json")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (YAML, JSON or TOML)")

	rootCmd.AddCommand(
		newMergeCmd(&configFile),
		newHistoryCmd(&configFile),
		newMockServerCmd(&configFile),
	)
	return rootCmd
}

func newMergeCmd(configFile *string) *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge every per-pair CSV into one deduplicated file",
		Long: `Walk the output root for contacts.csv files and write their union,
deduplicated by email (or Instagram handle when there is no email).
The first occurrence in lexical path order wins. Unreadable files are
reported and skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(v, cmd.Flags(), nil); err != nil {
				return err
			}
			cfg, err := config.Load(v, *configFile)
			if err != nil {
				return err
			}
			return runMerge(cmd, cfg)
		},
	}
	cmd.Flags().String("out", config.DefaultOut, "Output root directory to merge")
	cmd.Flags().String("merge-output", config.DefaultMergeOutput, "Merged CSV path")
	cmd.Flags().String("metrics-file", "", "Write Prometheus metrics to this file after merging")
	return cmd
}

func newHistoryCmd(configFile *string) *cobra.Command {
	v := viper.New()
	var limit int
	var runID string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs and pair results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(v, cmd.Flags(), nil); err != nil {
				return err
			}
			cfg, err := config.Load(v, *configFile)
			if err != nil {
				return err
			}
			return runHistory(cmd, cfg, runID, limit)
		},
	}
	cmd.Flags().String("history", "", "Run history database (default under XDG data home)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of pair results to show")
	cmd.Flags().StringVar(&runID, "run", "", "Only show pair results of this run id")
	return cmd
}

func newMockServerCmd(configFile *string) *cobra.Command {
	v := viper.New()
	var tokens []string
	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Start an OpenAI-compatible mock service that fabricates contacts",
		Long: `Start a local chat-completions service for dry runs:

  partnergen mock-server --port 9090 &
  OPENAI_API_KEY=mock partnergen --base-url http://localhost:9090/v1 --model mock-contacts

Models:
  mock-contacts   Plausible contacts echoing the requested constraints
  mock-truncate   Output cut mid-record with finish_reason "length"
  mock-error      Always fails with HTTP 500`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(v, cmd.Flags(), map[string]string{"port": "mock_port"}); err != nil {
				return err
			}
			cfg, err := config.Load(v, *configFile)
			if err != nil {
				return err
			}
			return runMockServer(cmd, cfg, tokens)
		},
	}
	cmd.Flags().IntP("port", "p", config.DefaultMockPort, "Port to listen on")
	cmd.Flags().StringSliceVar(&tokens, "token", nil, "Accepted bearer tokens (default: any)")
	return cmd
}

// bindFlags binds every flag to the viper key of the same name with dashes
// turned into underscores, unless rename maps it elsewhere.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet, rename map[string]string) error {
	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		switch f.Name {
		case "config", "limit", "run", "token", "help":
			return
		}
		key := strings.ReplaceAll(f.Name, "-", "_")
		if to, ok := rename[f.Name]; ok {
			key = to
		}
		if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
			bindErr = fmt.Errorf("bind flag %s: %w", f.Name, err)
		}
	})
	return bindErr
}
