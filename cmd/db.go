package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"text/tabwriter"

	"github.com/benfordscope/benfordscope/internal/utils"
	"github.com/benfordscope/benfordscope/pkg/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Interact with the run archive",
}

// archivePath resolves --dbpath, then db.path from the config, then the
// default location.
func archivePath(cmd *cobra.Command) (string, error) {
	path, _ := cmd.Flags().GetString("dbpath")
	if path == "" {
		path = viper.GetString("db.path")
	}
	return utils.GetAbsDBPath(path)
}

func openArchive(cmd *cobra.Command) (*storage.DB, error) {
	path, err := archivePath(cmd)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("database file not found: %s", path)
	}
	return storage.Open(path)
}

// shellCmd represents the shell command
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive shell to the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := archivePath(cmd)
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("database file not found: %s", path)
		}

		sqlitePath, err := exec.LookPath("sqlite3")
		if err != nil {
			return fmt.Errorf("sqlite3 command not found in your PATH. Please install it to use the db shell")
		}

		fmt.Println("--> Database schema:")
		schemaCmd := exec.Command(sqlitePath, path, ".schema")
		schemaCmd.Stdout = os.Stdout
		schemaCmd.Stderr = os.Stderr
		if err := schemaCmd.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: couldn't retrieve schema: %v\n", err)
		}
		fmt.Println("\n--> Starting interactive shell... (Ctrl+D to exit)")

		c := exec.Command(sqlitePath, path)
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr

		return c.Run()
	},
}

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints statistics about the archived runs.",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openArchive(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats(context.Background())
		if err != nil {
			return err
		}

		if len(stats) == 0 {
			fmt.Println("No runs in the database to generate stats.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "YEAR\tSOURCE\tRUNS\tFINDINGS\tMAX %\tLAST RUN\t")

		var totalRuns, totalFindings int
		for _, s := range stats {
			fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%.2f\t%s\t\n", s.Year, s.Source, s.RunCount, s.FindingCount, s.MaxPercent, s.LastRun.Format("2006-01-02 15:04:05"))
			totalRuns += s.RunCount
			totalFindings += s.FindingCount
		}

		fmt.Fprintln(w, " \t \t \t \t \t \t")
		fmt.Fprintf(w, "TOTAL\t \t%d\t%d\t \t \t\n", totalRuns, totalFindings)

		w.Flush()

		return nil
	},
}

var findingsCmd = &cobra.Command{
	Use:   "findings",
	Short: "List the findings of a run, highest score first (default: latest run)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		run, _ := cmd.Flags().GetString("run")
		year, _ := cmd.Flags().GetInt("year")
		kind, _ := cmd.Flags().GetString("kind")
		minScore, _ := cmd.Flags().GetFloat64("min-score")
		limit, _ := cmd.Flags().GetInt("limit")

		db, err := openArchive(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		rows, err := db.ListFindings(context.Background(), storage.FindingFilter{
			RunID:    run,
			Year:     year,
			Kind:     kind,
			MinScore: minScore,
			Limit:    limit,
		})
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "YEAR\tENTITY\tKIND\tDIGIT\tFIELDS\tTOTAL\tCHI\tSCORE\tWINDOW")
		for _, f := range rows {
			window := "-"
			if f.WindowStart >= 0 {
				window = fmt.Sprintf("%d-%d", f.WindowStart, f.WindowEnd)
			}
			fmt.Fprintf(w, "%d\t%s %s\t%s\t%d\t[%s]\t%d\t%.2f\t%v\t%s\n", f.Year, f.EntityID, f.Name, f.Kind, f.Digit, f.Fields, f.Total, f.Chi, f.Score, window)
		}
		return w.Flush()
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent runs (default 50)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		db, err := openArchive(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.ListRuns(context.Background(), limit)
		if err != nil {
			return err
		}
		for _, r := range runs {
			ts := r.StartedAt.Format("2006-01-02 15:04:05")
			fmt.Printf("%s  %s  %d  %-8s  entities=%d  findings=%d  fraud=%.2f\n", ts, r.ID, r.Year, r.Source, r.Entities, r.Findings, r.FraudPercent)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(shellCmd)
	dbCmd.AddCommand(statsCmd)
	dbCmd.AddCommand(findingsCmd)
	dbCmd.AddCommand(runsCmd)
	dbCmd.PersistentFlags().String("dbpath", "", "Path to SQLite DB file (default: ~/.config/benfordscope/benfordscope.sqlite)")

	findingsCmd.Flags().String("run", "", "Run id (default: latest run)")
	findingsCmd.Flags().Int("year", 0, "Restrict the latest-run lookup to a year")
	findingsCmd.Flags().String("kind", "all", "Finding kind: cross-section, time-series, window or all")
	findingsCmd.Flags().Float64("min-score", 0, "Only show findings scoring at least this much")
	findingsCmd.Flags().Int("limit", 0, "Maximum number of findings (0 = all)")
	runsCmd.Flags().Int("limit", 50, "Number of recent runs to show")
}
