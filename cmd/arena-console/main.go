package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/arena-console/internal/backend"
	appcfg "github.com/park285/arena-console/internal/config"
	"github.com/park285/arena-console/internal/console"
	"github.com/park285/arena-console/internal/mirror"
	"github.com/park285/arena-console/internal/msgcat"
	"github.com/park285/arena-console/internal/obslog"
	"github.com/park285/arena-console/internal/session"
	"github.com/park285/arena-console/internal/snapshot"
	"github.com/park285/arena-console/internal/wsconn"
)

const redrawEvery = 500 * time.Millisecond

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger, err := obslog.Init(cfg.Log)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	sessionID := uuid.NewString()
	logger = logger.With(zap.String("session", sessionID))

	cat, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		logger.Fatal("msgcat_init_failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.HTTPURL != "" {
		pctx, pcancel := context.WithTimeout(ctx, 5*time.Second)
		res, err := backend.NewClient(cfg.HTTPURL).Probe(pctx)
		pcancel()
		if err != nil {
			logger.Warn("backend_probe_failed", zap.String("url", res.URL), zap.Int("attempts", res.Attempts), zap.Error(err))
		} else {
			logger.Info("backend_probe_ok", zap.String("url", res.URL), zap.Int("status", res.Status), zap.Duration("latency", res.Latency))
		}
	}

	ws := wsconn.New(cfg.WSURL, wsconn.Options{
		ReconnectDelay: cfg.ReconnectDelay,
		Logger:         logger.Named("ws"),
	})
	loop := session.NewLoop(ctx, session.Options{
		SessionID:    sessionID,
		Logger:       logger.Named("session"),
		HighlightFor: cfg.HighlightFor,
		NoticeFor:    cfg.NoticeFor,
	}, ws)
	ws.OnFrame(loop.HandleFrame)
	ws.OnStateChange(loop.HandleLink)

	if cfg.RedisURL != "" {
		mctx, mcancel := context.WithTimeout(ctx, 5*time.Second)
		m, err := mirror.Dial(mctx, cfg.RedisURL, cfg.MirrorChannel, logger.Named("mirror"))
		mcancel()
		if err != nil {
			logger.Warn("mirror_disabled", zap.Error(err))
		} else {
			defer func() { _ = m.Close() }()
			_, views, err := loop.Subscribe(ctx, 16)
			if err == nil {
				go m.Run(ctx, views)
				logger.Info("mirror_enabled", zap.String("channel", m.Channel()))
			}
		}
	}

	renderer := console.NewRenderer(cat, true)
	_, views, err := loop.Subscribe(ctx, 1)
	if err != nil {
		logger.Fatal("subscribe_failed", zap.Error(err))
	}
	go draw(ctx, renderer, views)

	// The first dial may fail; the manager keeps retrying on its own.
	if err := ws.Connect(ctx); err != nil && !errors.Is(err, wsconn.ErrClosed) {
		logger.Warn("ws_initial_connect_failed", zap.Error(err))
	}

	exporter := snapshot.New(cfg.SnapshotDir, logger.Named("snapshot"))
	repl := console.NewREPL(loop, renderer, exporter.Write, cfg.Start, os.Stdout, logger.Named("console"))
	fmt.Println(cat.Text("console.help", nil))
	if err := repl.Run(ctx, os.Stdin); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("console_stopped", zap.Error(err))
	}

	stop()
	cctx, ccancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer ccancel()
	_ = ws.Close(cctx)
	loop.Close()
	logger.Info("session_closed")
}

// draw redraws at most once per tick, from the latest view.
func draw(ctx context.Context, r *console.Renderer, views <-chan session.View) {
	tick := time.NewTicker(redrawEvery)
	defer tick.Stop()
	var latest session.View
	var drawn uint64
	have := false
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-views:
			if !ok {
				return
			}
			latest, have = v, true
		case <-tick.C:
			if have && latest.Seq != drawn {
				drawn = latest.Seq
				_ = r.Write(os.Stdout, latest)
			}
		}
	}
}
