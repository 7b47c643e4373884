package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/musicdash/internal/server"
	"github.com/KaramelBytes/musicdash/internal/view"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard API over HTTP",
	Long: `Serve loads the dataset once, then serves sessions, rankings, comparisons,
distributions and rendered charts as JSON/SVG until interrupted. A dataset that
fails to load stops the server before it listens.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf := currentConfig()
		log := newLogger()
		addr := conf.ServerAddr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Info("Loading dataset", "source", conf.DatasetSource)
		start := time.Now()
		ds, err := loadDataset(ctx)
		if err != nil {
			log.WithError(err).Error("Dataset load failed")
			return fmt.Errorf("load dataset: %w", err)
		}
		log.Info("Dataset ready", "rows", ds.Len(), "genres", len(ds.Genres()), "took", time.Since(start).Round(time.Millisecond))

		srv := server.New(server.Options{
			Dataset:        ds,
			Sessions:       view.NewRegistry(conf.SessionTTL()),
			Logger:         log,
			CORSOrigins:    conf.CORSOrigins,
			RateLimitRPS:   conf.RateLimitRPS,
			RateLimitBurst: conf.RateLimitBurst,
			TrustProxy:     conf.TrustProxy,
			TopN:           conf.TopN,
			Bins:           conf.HistogramBins,
		})
		defer srv.Close()

		return server.ListenAndServe(ctx, addr, srv, log, 10*time.Second)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address (overrides config server_addr)")
}
