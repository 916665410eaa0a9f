// Package mirror republishes session views on a Redis pub/sub channel so
// secondary displays can follow a run. Nothing is stored.
package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/arena-console/internal/session"
)

const (
	DefaultChannel = "arena:view"
	publishTimeout = 2 * time.Second
)

// Message is the payload published for every view.
type Message struct {
	SessionID   string       `json:"session_id"`
	PublishedAt time.Time    `json:"published_at"`
	View        session.View `json:"view"`
}

type Mirror struct {
	rdb     *redis.Client
	channel string
	log     *zap.Logger
	now     func() time.Time
}

func New(rdb *redis.Client, channel string, logger *zap.Logger) *Mirror {
	if strings.TrimSpace(channel) == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mirror{rdb: rdb, channel: channel, log: logger, now: time.Now}
}

// Dial connects to redisURL (redis://host:port/db) and pings it.
func Dial(ctx context.Context, redisURL, channel string, logger *zap.Logger) (*Mirror, error) {
	opt, err := redis.ParseURL(strings.TrimSpace(redisURL))
	if err != nil {
		return nil, fmt.Errorf("mirror: parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("mirror: ping: %w", err)
	}
	return New(rdb, channel, logger), nil
}

func (m *Mirror) Channel() string { return m.channel }

// Publish sends v and returns the number of receivers.
func (m *Mirror) Publish(ctx context.Context, v session.View) (int64, error) {
	raw, err := json.Marshal(Message{SessionID: v.SessionID, PublishedAt: m.now().UTC(), View: v})
	if err != nil {
		return 0, fmt.Errorf("mirror: encode view: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return m.rdb.Publish(ctx, m.channel, raw).Result()
}

// Run publishes every view received until views closes or ctx is done.
// Publish failures are logged and the next view is tried.
func (m *Mirror) Run(ctx context.Context, views <-chan session.View) {
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-views:
			if !ok {
				return
			}
			if _, err := m.Publish(ctx, v); err != nil {
				m.log.Warn("mirror_publish_failed",
					zap.String("channel", m.channel),
					zap.Uint64("seq", v.Seq),
					zap.Error(err))
			}
		}
	}
}

func (m *Mirror) Close() error { return m.rdb.Close() }
