package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/park285/arena-console/internal/backend"
	appcfg "github.com/park285/arena-console/internal/config"
	"github.com/park285/arena-console/internal/protocol"
	"github.com/park285/arena-console/internal/wsconn"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	window := 10 * time.Second
	if v := strings.TrimSpace(os.Getenv("ARENACHECK_WINDOW")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			window = d
		}
	}

	client := backend.NewClient(cfg.HTTPURL, backend.WithTimeout(8*time.Second))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	res, err := client.Probe(ctx)
	cancel()
	if err != nil {
		log.Printf("GET %s error after %d attempts: %v", res.URL, res.Attempts, err)
	} else {
		log.Printf("GET %s ok: status=%d latency=%s server=%q", res.URL, res.Status, res.Latency, res.Server)
	}

	ws := wsconn.New(cfg.WSURL, wsconn.Options{ReconnectDelay: cfg.ReconnectDelay})
	ws.OnStateChange(func(state wsconn.State) {
		log.Printf("WS state: %s", state)
	})
	ws.OnFrame(func(frame []byte) {
		ev, err := protocol.Decode(frame)
		if err != nil {
			fmt.Printf("WS frame (undecoded: %v) %s\n", err, truncate(string(frame), 200))
			return
		}
		fmt.Printf("WS event=%s %s\n", ev.Kind(), truncate(string(frame), 200))
	})

	cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer ccancel()
	if err := ws.Connect(cctx); err != nil {
		log.Printf("WS connect error: %v", err)
	}
	if ws.State() == wsconn.StateConnected {
		// A fresh stats push confirms the command path too.
		ws.Send(cctx, protocol.GetStats())
	}

	// Observe for a short window
	t := time.NewTimer(window)
	<-t.C

	_ = ws.Close(context.Background())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
