package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/benfordscope/benfordscope/internal/utils"
	"github.com/benfordscope/benfordscope/pkg/convert"
)

var convertCmd = &cobra.Command{
	Use:   "convert [file.html ...]",
	Short: "Extract the results JSON from saved results pages",
	Long: `Converts every .html page of the data folder, or the given pages, into
<name>-html.json documents that analyse can read.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			outputs, err := convert.Folder(dataFolder())
			if err != nil {
				return err
			}
			fmt.Printf("Converted %d pages\n", len(outputs))
			return nil
		}

		for _, filename := range args {
			output, err := convert.File(filename)
			if err != nil {
				utils.Log.Errorf("%s: %v", filename, err)
				continue
			}
			fmt.Println(output)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
}
