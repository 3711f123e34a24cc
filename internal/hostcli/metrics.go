package hostcli

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var metricsAddr string

var metricsCmd = &cobra.Command{
	Use:   "serve-metrics",
	Short: "Serve registry metrics (hosts cached, builds, evictions) over HTTP.",
	Run: func(cmd *cobra.Command, args []string) {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		log.Info("serving metrics on %s", metricsAddr)
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			fatalf("%v", err)
		}
	},
}

func init() {
	metricsCmd.Flags().StringVar(&metricsAddr, "addr", ":9090", "address to serve /metrics on")
	rootCmd.AddCommand(metricsCmd)
}
