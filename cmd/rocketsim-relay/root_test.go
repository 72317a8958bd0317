package main

import (
	"context"
	"net"
	"testing"
	"time"

	"rocketsim-relay/internal/config"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.UDPAddr = "127.0.0.1:0"
	cfg.StaticDir = ""
	cfg.LogLevel = "error"
	return cfg
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	t.Setenv("RELAY_HTTP_ADDR", ":8088")
	t.Setenv("RELAY_UDP_ADDR", "")
	t.Setenv("RELAY_STATIC_DIR", "")
	if err := rootCmd.ParseFlags([]string{"--udp-addr", "127.0.0.1:9500"}); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	t.Cleanup(func() {
		rootUDPAddr = config.DefaultUDPAddr
		rootCmd.Flags().Lookup("udp-addr").Changed = false
	})

	cfg, err := loadConfig(rootCmd)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.UDPAddr != "127.0.0.1:9500" {
		t.Errorf("flag override not applied, got %q", cfg.UDPAddr)
	}
	if cfg.HTTPAddr != ":8088" {
		t.Errorf("env override not applied, got %q", cfg.HTTPAddr)
	}
}

func TestRunRelayStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runRelay(ctx, testConfig(), false) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runRelay returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("runRelay did not stop")
	}
}

func TestRunRelayUDPBindFailure(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer pc.Close()
	cfg := testConfig()
	cfg.UDPAddr = pc.LocalAddr().String()
	if err := runRelay(context.Background(), cfg, false); err == nil {
		t.Fatalf("expected bind error")
	}
}

func TestRunRelayHTTPBindFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	cfg := testConfig()
	cfg.HTTPAddr = ln.Addr().String()
	if err := runRelay(context.Background(), cfg, false); err == nil {
		t.Fatalf("expected bind error")
	}
}

func TestRunRelayRejectsLogLevel(t *testing.T) {
	cfg := testConfig()
	cfg.LogLevel = "chatty"
	if err := runRelay(context.Background(), cfg, false); err == nil {
		t.Fatalf("expected log level error")
	}
}

func TestReplayRequiresInput(t *testing.T) {
	replayInput = ""
	if err := replayCmd.RunE(replayCmd, nil); err == nil {
		t.Fatalf("expected error without input")
	}
}
