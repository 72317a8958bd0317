package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"rocketsim-relay/internal/feed"
	"rocketsim-relay/internal/logging"
)

var (
	replayInput    string
	replayTarget   string
	replayInterval time.Duration
	replaySpeed    float64
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a captured state log",
	Long:  "replay sends each line of a JSONL capture file to a relay as one datagram.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" {
			return fmt.Errorf("input file required")
		}
		log := logging.New(os.Stderr, slog.LevelInfo)
		sender, err := feed.NewUDPSender(replayTarget)
		if err != nil {
			return err
		}
		defer sender.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sent, err := feed.ReplayLogFile(ctx, replayInput, sender, replayInterval, replaySpeed)
		if err != nil {
			return fmt.Errorf("replay failed after %d datagrams: %w", sent, err)
		}
		log.Info("replay finished", "input", replayInput, "sent", sent)
		return nil
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to JSONL capture file")
	replayCmd.Flags().StringVar(&replayTarget, "target", "127.0.0.1:9273", "Relay UDP address")
	replayCmd.Flags().DurationVar(&replayInterval, "interval", 16*time.Millisecond, "Delay between datagrams at speed 1")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier")
	replayCmd.MarkFlagRequired("input")
}
