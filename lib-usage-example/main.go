package main

import (
	"flag"
	"fmt"
	"sort"

	"github.com/benfordscope/benfordscope/pkg/analysis"
	"github.com/benfordscope/benfordscope/pkg/ingest"
)

func main() {
	// Usage: go run *.go -file ../data/2020-president-data.json -top 5

	fileFlag := flag.String("file", "", "Election results JSON document")
	topFlag := flag.Int("top", 10, "Number of entities to print")

	// Parse the command-line flags
	flag.Parse()

	if *fileFlag == "" {
		fmt.Println("File is required. Please provide it using -file flag.")
		return
	}

	records, err := ingest.LoadElection(*fileFlag)
	if err != nil {
		fmt.Println(err)
		return
	}

	// Every test line is kept in report.Lines; no logger needed
	report := analysis.Run(records, analysis.Config{})

	results := report.Ordered()
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].FraudPercent > results[j].FraudPercent
	})
	if len(results) > *topFlag {
		results = results[:*topFlag]
	}

	for _, r := range results {
		fmt.Printf("%s %-20s %.2f (%d findings)\n", r.ID, r.Name, r.FraudPercent, len(r.Findings))
		for _, f := range r.Findings {
			fmt.Printf("    %-13s digit=%d fields=%v total=%d score=%v\n", f.Kind, f.Digit, f.Fields, f.Total, f.Score)
		}
	}
}
