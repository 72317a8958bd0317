package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"rocketsim-relay/internal/config"
	"rocketsim-relay/internal/logging"
	"rocketsim-relay/internal/monitor"
	"rocketsim-relay/internal/relay"
)

const statsRefresh = 500 * time.Millisecond

var (
	rootConfigPath string
	rootHTTPAddr   string
	rootUDPAddr    string
	rootStaticDir  string
	rootLogLevel   string
	rootTUI        bool
)

var rootCmd = &cobra.Command{
	Use:   "rocketsim-relay",
	Short: "Relay RocketSim state from UDP to WebSocket clients",
	Long: "rocketsim-relay receives game state datagrams on a UDP port and pushes each one " +
		"to every connected WebSocket client, serving the visualizer front end on the same HTTP port.",
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runRelay(ctx, cfg, rootTUI)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVar(&rootConfigPath, "config", "", "Path to relay configuration YAML")
	rootCmd.Flags().StringVar(&rootHTTPAddr, "http-addr", config.DefaultHTTPAddr, "HTTP/WebSocket listen address")
	rootCmd.Flags().StringVar(&rootUDPAddr, "udp-addr", config.DefaultUDPAddr, "UDP state ingress address")
	rootCmd.Flags().StringVar(&rootStaticDir, "static-dir", "", "Directory with the built front end")
	rootCmd.Flags().StringVar(&rootLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.Flags().BoolVar(&rootTUI, "tui", false, "Show a live terminal monitor")

	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(replayCmd)
}

// loadConfig layers the YAML file, environment and explicitly set flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(rootConfigPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	flags := cmd.Flags()
	if flags.Changed("http-addr") {
		cfg.HTTPAddr = rootHTTPAddr
	}
	if flags.Changed("udp-addr") {
		cfg.UDPAddr = rootUDPAddr
	}
	if flags.Changed("static-dir") {
		cfg.StaticDir = rootStaticDir
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = rootLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runRelay binds both listeners and serves until ctx is cancelled. Bind
// failures are returned before anything is served.
func runRelay(ctx context.Context, cfg *config.Config, tui bool) error {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}

	var logOut io.Writer = os.Stderr
	var mon *monitor.Monitor
	if tui {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return errors.New("--tui requires a terminal on stdout")
		}
		mon = monitor.New()
		defer mon.Close()
		logOut = mon
	}
	log := logging.New(logOut, level)
	ctx = logging.NewContext(ctx, log)

	hub := relay.NewHub(log)
	if mon != nil {
		hub.SetObserver(mon)
		go pushStats(ctx, mon, hub)
	}

	listener, err := relay.ListenUDP(cfg.UDPAddr, hub, log)
	if err != nil {
		return err
	}
	if err := listener.SetReadBuffer(cfg.UDPReadBuffer); err != nil {
		log.Warn("cannot set udp read buffer", "bytes", cfg.UDPReadBuffer, "err", err)
	}
	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		listener.Close()
		return fmt.Errorf("listen http %s: %w", cfg.HTTPAddr, err)
	}
	srv := relay.NewServer(hub, cfg.StaticDir, cfg.SendQueue, log)
	log.Info("relay running", "http", ln.Addr().String(), "udp", listener.Addr().String())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errc := make(chan error, 2)
	go func() { errc <- listener.Serve(ctx) }()
	go func() { errc <- srv.Serve(ctx, ln) }()

	// either a signal or a failed component stops both
	first := <-errc
	cancel()
	second := <-errc
	logging.FromContext(ctx).Info("relay stopped")
	return errors.Join(first, second)
}

func pushStats(ctx context.Context, mon *monitor.Monitor, hub *relay.Hub) {
	t := time.NewTicker(statsRefresh)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			mon.UpdateStats(hub.StatsRow())
		}
	}
}
