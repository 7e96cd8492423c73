package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/benfordscope/benfordscope/internal/utils"
	"github.com/benfordscope/benfordscope/pkg/analysis"
	"github.com/benfordscope/benfordscope/pkg/entity"
	"github.com/benfordscope/benfordscope/pkg/ingest"
	"github.com/benfordscope/benfordscope/pkg/metrics"
	"github.com/benfordscope/benfordscope/pkg/storage"
)

const covidFile = "us-states.csv"

// analyseCmd implements: benfordscope analyse
//
//	--year int            Election year: 2012, 2016 or 2020
//	--file string         Input file, overrides the year-based lookup
//	--covid               Analyse case counts instead of an election
//	--db                  Archive the run and print changes since the previous one
//	--metrics-file string Write Prometheus metrics of the run to this file
var analyseCmd = &cobra.Command{
	Use:   "analyse",
	Short: "Run the digit tests over a dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return fmt.Errorf("unknown command: '%s'. See 'benfordscope analyse --help'", args[0])
		}
		start := time.Now()

		year, _ := cmd.Flags().GetInt("year")
		file, _ := cmd.Flags().GetString("file")
		covid, _ := cmd.Flags().GetBool("covid")
		saveDB, _ := cmd.Flags().GetBool("db")
		metricsFile, _ := cmd.Flags().GetString("metrics-file")

		if !covid && year != 2012 && year != 2016 && year != 2020 {
			return fmt.Errorf("unsupported year %d, choose 2012, 2016 or 2020", year)
		}

		folder := dataFolder()
		source := "nytimes"
		base := strconv.Itoa(year)
		var (
			records []entity.Record
			input   string
			err     error
		)
		if covid {
			source, base = "covid", "covid"
			input = file
			if input == "" {
				input = filepath.Join(folder, covidFile)
			}
			records, err = loadCovid(input)
		} else {
			input, err = electionInput(folder, year, file)
			if err == nil {
				records, err = ingest.LoadElection(input)
			}
		}
		if err != nil {
			utils.Log.WithFields(logrus.Fields{
				"status":   "analyse__error",
				"filename": input,
			}).Error(err)
			return err
		}
		fmt.Printf("Go %s (%s, %d entities)\n", base, input, len(records))

		collector := metrics.New()
		report := analysis.Run(records, analysis.Config{
			Log:      utils.Log,
			Recorder: collector,
			OnLine:   func(line string) { fmt.Println(line) },
		})

		printSummary(report)

		output := make(map[string]*entity.Result, len(report.Results)+1)
		for id, r := range report.Results {
			output[id] = r
		}
		output[entity.TotalID] = report.Total

		jsonPath := filepath.Join(folder, base+".json")
		lock, err := utils.NewFileLock(jsonPath)
		if err != nil {
			return err
		}
		if err := lock.Lock(); err != nil {
			return err
		}
		err = storage.SaveJSON(jsonPath, output)
		if err == nil {
			err = storage.WriteLines(filepath.Join(folder, base+".log"), report.Lines)
		}
		if uerr := lock.Unlock(); uerr != nil {
			utils.Log.Warn(uerr)
		}
		if err != nil {
			return err
		}
		utils.Log.Infof("Saved %s", jsonPath)

		if saveDB {
			if err := archiveRun(cmd, year, source, report); err != nil {
				return err
			}
		}

		if metricsFile != "" {
			if err := collector.WriteTextfile(metricsFile); err != nil {
				return err
			}
			utils.Log.Infof("Metrics written to %s", metricsFile)
		}

		fmt.Printf("\nELAPSED: %.3f seconds\n", time.Since(start).Seconds())
		return nil
	},
}

// electionInput picks the results file of a year: an explicit file (looked
// up in the data folder when it is a bare name), then for 2020 the December
// and November downloads, then the document converted from the saved page.
func electionInput(folder string, year int, file string) (string, error) {
	if file != "" {
		if filepath.Base(file) == file && !utils.FileExists(file) {
			return filepath.Join(folder, file), nil
		}
		return file, nil
	}
	var candidates []string
	if year == 2020 {
		for _, suffix := range []string{"-1202", ""} {
			candidates = append(candidates, filepath.Join(folder, fmt.Sprintf("%d-president-data%s.json", year, suffix)))
		}
	}
	candidates = append(candidates, filepath.Join(folder, fmt.Sprintf("%d-president-html.json", year)))
	return utils.FirstExisting(candidates...)
}

func loadCovid(path string) ([]entity.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ingest.ParseCovid(f)
}

func printSummary(report *analysis.Report) {
	fmt.Println()
	for _, r := range report.Ordered() {
		fmt.Printf("%-4s %-24s votes=%-10d fraud=%-8v percent=%.2f findings=%d flags=%v\n",
			r.ID, r.Name, r.Votes.Total, r.Fraud, r.FraudPercent, len(r.Findings), r.Flags)
	}
	t := report.Total
	fmt.Printf("%-4s %-24s votes=%-10d dem=%d rep=%d other=%d electoral=%d\n",
		t.ID, "TOTAL", t.Votes.Total, t.Votes.Dem, t.Votes.Rep, t.Votes.Other, t.Electoral)
}

func archiveRun(cmd *cobra.Command, year int, source string, report *analysis.Report) error {
	dbPath, _ := cmd.Flags().GetString("dbpath")
	if dbPath == "" {
		dbPath = viper.GetString("db.path")
	}
	absPath, err := utils.GetAbsDBPath(dbPath)
	if err != nil {
		return err
	}

	lock, err := utils.NewFileLock(absPath)
	if err != nil {
		return err
	}
	if err := lock.Lock(); err != nil {
		return err
	}
	defer lock.Unlock()

	db, err := storage.Open(absPath)
	if err != nil {
		return err
	}
	defer db.Close()

	run := &storage.Run{Year: year, Source: source}
	results := report.Ordered()
	for _, r := range results {
		if r.Fraud > run.Fraud {
			run.Fraud = r.Fraud
		}
		if r.FraudPercent > run.FraudPercent {
			run.FraudPercent = r.FraudPercent
		}
	}

	changes, err := db.SaveRun(context.Background(), run, results)
	if err != nil {
		return err
	}
	utils.Log.Infof("Archived run %s in %s", run.ID, absPath)
	for _, c := range changes {
		fmt.Println(c)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(analyseCmd)
	analyseCmd.Flags().Int("year", 2020, "Election year to analyse (2012, 2016, 2020)")
	analyseCmd.Flags().String("file", "", "Input filename, ex: 2020-president-data.json")
	analyseCmd.Flags().Bool("covid", false, "Analyse COVID-19 case counts (us-states.csv)")
	analyseCmd.Flags().Bool("db", false, "Archive the run in the database and print changes")
	analyseCmd.Flags().String("dbpath", "", "Path to SQLite DB file (default: ~/.config/benfordscope/benfordscope.sqlite)")
	analyseCmd.Flags().String("metrics-file", "", "Write Prometheus metrics of the run to this file")
}
