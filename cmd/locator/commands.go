package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/txbooks/locator/internal/config"
	"github.com/txbooks/locator/internal/fbop"
	"github.com/txbooks/locator/internal/locate"
	"github.com/txbooks/locator/internal/storage"
	"github.com/txbooks/locator/internal/tdcj"
)

// --- id ---

var idCmd = &cobra.Command{
	Use:   "id <inmate-number>",
	Short: "Search by inmate number",
	Long: `Search by inmate number.

Examples:
  locator id 12345678
  locator id 12345-678 --jurisdictions Federal
  locator id 42 --jurisdictions Texas --timeout 5s`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loc, opts, asJSON, err := querySetup(cmd)
		if err != nil {
			return err
		}

		result, err := loc.QueryByID(cmd.Context(), args[0], opts)
		if err != nil {
			return err
		}
		return printResult(result, asJSON)
	},
}

// --- name ---

var nameCmd = &cobra.Command{
	Use:   "name [first] [last]",
	Short: "Search by name",
	Long: `Search by first and last name. An omitted component acts as a wildcard.

Examples:
  locator name John Doe
  locator name "" Doe --jurisdictions Texas`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		loc, opts, asJSON, err := querySetup(cmd)
		if err != nil {
			return err
		}

		first := args[0]
		last := ""
		if len(args) == 2 {
			last = args[1]
		}

		result, err := loc.QueryByName(cmd.Context(), first, last, opts)
		if err != nil {
			return err
		}
		return printResult(result, asJSON)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{idCmd, nameCmd} {
		cmd.Flags().String("jurisdictions", "", "comma-separated subset of sources to query (Federal, Texas)")
		cmd.Flags().Duration("timeout", 0, "per-source timeout (default from config)")
		cmd.Flags().Bool("json", false, "print the raw result as JSON")
	}
	historyCmd.Flags().Int("limit", 20, "number of searches to list")
}

// querySetup loads config and builds a Locator for one CLI query.
func querySetup(cmd *cobra.Command) (*locate.Locator, locate.QueryOptions, bool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, locate.QueryOptions{}, false, err
	}
	logger := newLogger(cfg)

	loc := buildLocator(cfg, logger)

	var opts locate.QueryOptions
	if raw, _ := cmd.Flags().GetString("jurisdictions"); raw != "" {
		for _, j := range strings.Split(raw, ",") {
			if j = strings.TrimSpace(j); j != "" {
				opts.Jurisdictions = append(opts.Jurisdictions, locate.Jurisdiction(j))
			}
		}
	}
	opts.Timeout, _ = cmd.Flags().GetDuration("timeout")

	asJSON, _ := cmd.Flags().GetBool("json")
	return loc, opts, asJSON, nil
}

func buildLocator(cfg config.Config, logger *slog.Logger, extra ...locate.Option) *locate.Locator {
	timeout, err := time.ParseDuration(cfg.Sources.QueryTimeout)
	if err != nil {
		logger.Warn("invalid query timeout, using default 10s", "value", cfg.Sources.QueryTimeout, "error", err)
		timeout = 10 * time.Second
	}

	opts := append([]locate.Option{
		locate.WithTimeout(timeout),
		locate.WithLogger(logger),
	}, extra...)

	return locate.New(
		[]locate.Source{
			fbop.New(cfg.Sources.FBOPBaseURL, logger),
			tdcj.New(cfg.Sources.TDCJBaseURL, logger),
		},
		opts...,
	)
}

func newLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func printResult(result locate.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	for _, rec := range result.Records {
		release := rec.Release.String()
		if release == "" {
			release = "unknown"
		}
		fmt.Printf("%-8s #%-10s %s, %s  unit %s  release %s\n",
			rec.Jurisdiction, rec.ID, rec.LastName, rec.FirstName, rec.Unit, release)
	}

	for _, qe := range result.Errors {
		printError("%s: %v", qe.Jurisdiction, qe.Err)
	}

	if len(result.Records) == 0 && len(result.Errors) == 0 {
		printWarning("no matches")
	} else {
		printSuccess("%d record(s), %d source error(s)", len(result.Records), len(result.Errors))
	}
	return nil
}

// --- history ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent searches",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		searches, err := store.RecentSearches(limit)
		if err != nil {
			return fmt.Errorf("listing searches: %w", err)
		}

		if len(searches) == 0 {
			printWarning("no recorded searches")
			return nil
		}
		for _, s := range searches {
			fmt.Printf("%s  %-4s %-24q %d record(s), %d error(s)\n",
				s.CreatedAt.Local().Format("2006-01-02 15:04"), s.Kind, s.Query, s.RecordCount, s.ErrorCount)
		}
		return nil
	},
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show resolved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		for _, k := range config.ShowAll(cfg) {
			printStatus(k.Key, "%s (env %s)", k.Value, k.EnvVar)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config key",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetKey(args[0], args[1]); err != nil {
			return fmt.Errorf("%w (valid keys: %s)", err, strings.Join(config.ValidKeys(), ", "))
		}
		printSuccess("set %s", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
