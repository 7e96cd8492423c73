package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/benfordscope/benfordscope/pkg/ballots"
)

var paCmd = &cobra.Command{
	Use:   "pa",
	Short: "Count Pennsylvania mail-ballot requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		if file == "" {
			file = filepath.Join(dataFolder(), ballots.DefaultFile)
		}

		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer f.Close()

		stats, err := ballots.Count(f)
		if err != nil {
			return err
		}

		fmt.Printf("requests=%d returned=%d\n", stats.Requested, stats.Returned)
		for _, party := range []string{"D", "R"} {
			if p, ok := stats.Parties[party]; ok {
				fmt.Printf("%s requests=%d returned=%d\n", party, p.Requested, p.Returned)
			}
		}

		fmt.Println("\nReturned ballots by date:")
		for _, d := range stats.SortedDates() {
			fmt.Printf("  %s %d\n", d.Date, d.Count)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "\nCOUNTY\tREQUESTED\tRETURNED\tD REQ\tD RET\tR REQ\tR RET\t")
		for _, name := range stats.CountyNames() {
			c := stats.Counties[name]
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t\n", name, c.Requested, c.Returned, c.DemRequested, c.DemReturned, c.RepRequested, c.RepReturned)
		}
		w.Flush()

		fmt.Println("\nDigit tests over county request counts:")
		for _, t := range stats.Tests() {
			res := t.Result
			fmt.Printf("  digit=%d field=%d total=%d chi=%.2f score=%v %s\n", t.Position, t.Field, res.Total, res.Chi, res.Score, res.Reliability())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(paCmd)
	paCmd.Flags().String("file", "", "Mail ballot request CSV (default: <data>/"+ballots.DefaultFile+")")
}
