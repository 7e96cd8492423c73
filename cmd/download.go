package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/benfordscope/benfordscope/internal/utils"
	"github.com/benfordscope/benfordscope/pkg/whttp"
)

// download targets: config key of the URL and file name in the data folder
var downloadTargets = map[string]struct{ key, file string }{
	"nytimes": {"sources.nytimes", "2020-president-data.json"},
	"covid":   {"sources.covid", covidFile},
}

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download a source dataset into the data folder",
	RunE: func(cmd *cobra.Command, args []string) error {
		source, _ := cmd.Flags().GetString("source")
		target, ok := downloadTargets[source]
		if !ok {
			return fmt.Errorf("unknown source %q, choose nytimes or covid", source)
		}

		client, err := whttp.NewClient(viper.GetString("proxy"))
		if err != nil {
			return err
		}

		url := viper.GetString(target.key)
		output := filepath.Join(dataFolder(), target.file)
		res, err := whttp.Download(cmd.Context(), url, output, client)
		if err != nil {
			fields := logrus.Fields{"status": "download__error", "url": url}
			if res != nil {
				fields["status_code"] = res.StatusCode
			}
			utils.Log.WithFields(fields).Error(err)
			return err
		}
		fmt.Printf("downloaded %d bytes to %s\n", len(res.Body), output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)
	downloadCmd.Flags().String("source", "nytimes", "Dataset to download: nytimes or covid")
}
