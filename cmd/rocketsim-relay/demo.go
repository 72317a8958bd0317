package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"rocketsim-relay/internal/feed"
	"rocketsim-relay/internal/logging"
	"rocketsim-relay/internal/telemetry"
)

var (
	demoTarget string
	demoRate   float64
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Send synthetic game states to a relay",
	Long:  "demo emits a ball circling midfield with one car per team at a fixed rate until interrupted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logging.New(os.Stderr, slog.LevelInfo)
		sender, err := feed.NewUDPSender(demoTarget)
		if err != nil {
			return err
		}
		defer sender.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Info("sending demo states", "target", demoTarget, "rate", demoRate)
		sent, err := feed.RunDemo(ctx, telemetry.NewGenerator(time.Now()), sender, demoRate, log)
		log.Info("demo stopped", "sent", sent)
		return err
	},
}

func init() {
	demoCmd.Flags().StringVar(&demoTarget, "target", "127.0.0.1:9273", "Relay UDP address")
	demoCmd.Flags().Float64Var(&demoRate, "rate", 60, "States per second")
}
