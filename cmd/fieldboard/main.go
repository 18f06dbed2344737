package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/datsun80zx/fieldboard.git/internal/config"
)

func newRootCmd(out io.Writer) *cobra.Command {
	v := config.New()

	rootCmd := &cobra.Command{
		Use:   "fieldboard",
		Short: "Field-service job board and finance dashboard",
		Long: `fieldboard filters field-service jobs by status, technician, date and
free-text search, and aggregates transactions into revenue, expense and
profit breakdowns.

Data comes from a directory of CSV exports (--data) or from a database
previously filled with 'fieldboard import' (--database-url).

Configuration is read from flags, FIELDBOARD_* environment variables, a
.env file in the working directory and an optional --config file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(v, out)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a != nil {
				_ = a.log.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (yaml, toml or json)")
	flags.StringP("data", "d", "", "directory holding jobs.csv, transactions.csv and optional rosters")
	flags.String("database-url", "", "SQLite file path or postgres:// url of an imported dataset")
	flags.String("table-prefix", "", "prefix for database table names")
	flags.String("timezone", "Local", "IANA time zone used for relative dates")
	flags.String("week-start", "monday", "first day of the week for this-week and last-week")
	flags.Int("cache-size", 128, "number of filtered views kept in memory")
	flags.String("views", "", "YAML file with saved views")
	flags.Bool("json", false, "print results as JSON")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.Bool("log-json", false, "write logs as JSON")
	flags.String("log-file", "", "write logs to a rotated file instead of stderr")

	for key, flag := range map[string]string{
		"config":       "config",
		"data":         "data",
		"database-url": "database-url",
		"table-prefix": "table-prefix",
		"timezone":     "timezone",
		"week-start":   "week-start",
		"cache-size":   "cache-size",
		"views":        "views",
		"json":         "json",
		"log.level":    "log-level",
		"log.json":     "log-json",
		"log.file":     "log-file",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.AddCommand(
		importCmd(),
		jobsCmd(),
		financeCmd(),
		summaryCmd(),
		techniciansCmd(),
		redFlagsCmd(),
		validateCmd(),
		datesCmd(),
		viewsCmd(),
	)
	return rootCmd
}

func init() {
	cobra.OnInitialize(initEnv)
}

// initEnv loads .env before flags and environment are resolved
func initEnv() {
	if err := config.LoadEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  %v\n", err)
	}
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}
