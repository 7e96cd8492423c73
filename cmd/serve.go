package cmd

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/benfordscope/benfordscope/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the run archive as a read-only JSON API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		addr, _ := cmd.Flags().GetString("listen")

		db, err := openArchive(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		s := server.New(db, viper.GetString("server.username"), viper.GetString("server.password"))
		s.Gatherer = registry
		return s.Start(addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", "127.0.0.1:8080", "Address to listen on")
	serveCmd.Flags().String("dbpath", "", "Path to SQLite DB file (default: ~/.config/benfordscope/benfordscope.sqlite)")
}
