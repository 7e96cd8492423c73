package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/benfordscope/benfordscope/internal/utils"
	"github.com/spf13/cobra"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `	 _                 __               _
	| |__   ___ _ __  / _| ___  _ __ __| |___  ___ ___  _ __   ___
	| '_ \ / _ \ '_ \| |_ / _ \| '__/ _' / __|/ __/ _ \| '_ \ / _ \
	| |_) |  __/ | | |  _| (_) | | | (_| \__ \ (_| (_) | |_) |  __/
	|_.__/ \___|_| |_|_|  \___/|_|  \__,_|___/\___\___/| .__/ \___|
	                                                   |_|
`

	defaultNYTimesURL = "https://static01.nyt.com/elections-assets/2020/data/api/2020-11-03/national-map-page/national/president.json"
	defaultCovidURL   = "https://raw.githubusercontent.com/nytimes/covid-19-data/master/us-states.csv"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "benfordscope",
	Short: "Benford's law screening of election and case-count data.",
	Long: LOGO + `benfordscope checks the leading digits of vote counts, vote increments and
case counts against Benford's law and points at the states and time windows
whose numbers do not look naturally grown.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.benfordscope.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy (Useful for debugging. Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().String("data", "", "Data folder holding inputs and outputs (default: ./data)")

	viper.BindPFlag("data.folder", rootCmd.PersistentFlags().Lookup("data"))
	viper.BindPFlag("proxy", rootCmd.PersistentFlags().Lookup("proxy"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".benfordscope")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("benfordscope")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("data.folder", "data")
	viper.SetDefault("db.path", "")
	viper.SetDefault("sources.nytimes", defaultNYTimesURL)
	viper.SetDefault("sources.covid", defaultCovidURL)
	viper.SetDefault("proxy", "")
	viper.SetDefault("server.username", "")
	viper.SetDefault("server.password", "")

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := filepath.Join(home, ".benfordscope.yaml")
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}

func dataFolder() string {
	return viper.GetString("data.folder")
}
