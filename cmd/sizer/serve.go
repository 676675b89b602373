package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/container-make/sizer/cloud/api"
	"github.com/container-make/sizer/pkg/docker"
	"github.com/container-make/sizer/pkg/estimate"
)

var (
	servePort     int
	serveDBDriver string
	serveDBURL    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web control plane",
	Long: `Start the HTTP server. Estimations are launched through the API and run
on a worker; clients poll /api/progress for coarse progress and read
results from /api/results, with history persisted to the database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := docker.NewSource()
		if err != nil {
			return err
		}
		defer source.Close()

		server, err := api.NewServer(api.Config{
			Port:           servePort,
			DatabaseDriver: serveDBDriver,
			DatabaseURL:    serveDBURL,
		}, estimate.New(source))
		if err != nil {
			return err
		}

		fmt.Printf("Listening on http://localhost:%d\n", servePort)
		return server.Start()
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&serveDBDriver, "db-driver", "sqlite", "Database driver (sqlite or postgres)")
	serveCmd.Flags().StringVar(&serveDBURL, "db-url", "", "Database DSN (default ~/.sizer/sizer.db)")

	rootCmd.AddCommand(serveCmd)
}
