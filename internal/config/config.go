package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/park285/arena-console/internal/protocol"
)

var ErrInvalidConfig = errors.New("config: invalid")

type LogConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	ToConsole bool   `yaml:"to_console"`
	ToFile    bool   `yaml:"to_file"`
	File      string `yaml:"file"`
	Caller    bool   `yaml:"caller"`
}

type AppConfig struct {
	WSURL   string
	HTTPURL string

	ReconnectDelay time.Duration
	HighlightFor   time.Duration
	NoticeFor      time.Duration

	// Start holds the defaults offered for a new run.
	Start protocol.StartConfig

	RedisURL      string
	MirrorChannel string
	SnapshotDir   string
	MessagesDir   string

	Log LogConfig
}

// fileConfig is the YAML overlay. Unset fields keep the defaults.
type fileConfig struct {
	WSURL            string   `yaml:"ws_url"`
	HTTPURL          string   `yaml:"http_url"`
	ReconnectDelayMS int      `yaml:"reconnect_delay_ms"`
	HighlightMS      int      `yaml:"highlight_ms"`
	NoticeMS         int      `yaml:"notice_ms"`
	NumGames         int      `yaml:"num_games"`
	ConcurrentGames  int      `yaml:"concurrent_games"`
	TimeControl      *float64 `yaml:"time_control"`
	Increment        *float64 `yaml:"increment"`
	UseOpenings      *bool    `yaml:"use_openings"`
	RedisURL         string   `yaml:"redis_url"`
	MirrorChannel    string   `yaml:"mirror_channel"`
	SnapshotDir      string   `yaml:"snapshot_dir"`
	MessagesDir      string   `yaml:"messages_dir"`
	Log              struct {
		Level     string `yaml:"level"`
		Format    string `yaml:"format"`
		ToConsole *bool  `yaml:"to_console"`
		ToFile    *bool  `yaml:"to_file"`
		File      string `yaml:"file"`
		Caller    *bool  `yaml:"caller"`
	} `yaml:"log"`
}

func Defaults() *AppConfig {
	return &AppConfig{
		WSURL:          "ws://localhost:8080/ws",
		ReconnectDelay: 3000 * time.Millisecond,
		HighlightFor:   600 * time.Millisecond,
		NoticeFor:      8 * time.Second,
		Start: protocol.StartConfig{
			NumGames:        100,
			ConcurrentGames: 4,
			TimeControl:     60,
			Increment:       0.5,
		},
		MirrorChannel: "arena:view",
		SnapshotDir:   "snapshots",
		Log: LogConfig{
			Level:     "info",
			Format:    "legacy",
			ToConsole: true,
			File:      "logs/arena.log",
		},
	}
}

// Load builds the configuration from defaults, the YAML file named by
// ARENA_CONFIG and the environment, in that order. A .env file (ARENA_ENV_FILE,
// default ".env") is read first; variables already set win.
func Load() (*AppConfig, error) {
	envFile := getenvDefault("ARENA_ENV_FILE", ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}

	cfg := Defaults()
	if path := strings.TrimSpace(os.Getenv("ARENA_CONFIG")); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	var problems []string
	cfg.overlayEnv(&problems)

	if cfg.HTTPURL == "" && cfg.WSURL != "" {
		if u, err := DeriveHTTPURL(cfg.WSURL); err == nil {
			cfg.HTTPURL = u
		}
	}
	problems = append(problems, cfg.validate()...)
	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return cfg, nil
}

func (cfg *AppConfig) overlayFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	setString(&cfg.WSURL, fc.WSURL)
	setString(&cfg.HTTPURL, fc.HTTPURL)
	setMillis(&cfg.ReconnectDelay, fc.ReconnectDelayMS)
	setMillis(&cfg.HighlightFor, fc.HighlightMS)
	setMillis(&cfg.NoticeFor, fc.NoticeMS)
	if fc.NumGames != 0 {
		cfg.Start.NumGames = fc.NumGames
	}
	if fc.ConcurrentGames != 0 {
		cfg.Start.ConcurrentGames = fc.ConcurrentGames
	}
	if fc.TimeControl != nil {
		cfg.Start.TimeControl = *fc.TimeControl
	}
	if fc.Increment != nil {
		cfg.Start.Increment = *fc.Increment
	}
	if fc.UseOpenings != nil {
		b := *fc.UseOpenings
		cfg.Start.UseOpenings = &b
	}
	setString(&cfg.RedisURL, fc.RedisURL)
	setString(&cfg.MirrorChannel, fc.MirrorChannel)
	setString(&cfg.SnapshotDir, fc.SnapshotDir)
	setString(&cfg.MessagesDir, fc.MessagesDir)

	setString(&cfg.Log.Level, fc.Log.Level)
	setString(&cfg.Log.Format, fc.Log.Format)
	setString(&cfg.Log.File, fc.Log.File)
	setBool(&cfg.Log.ToConsole, fc.Log.ToConsole)
	setBool(&cfg.Log.ToFile, fc.Log.ToFile)
	setBool(&cfg.Log.Caller, fc.Log.Caller)
	return nil
}

func (cfg *AppConfig) overlayEnv(problems *[]string) {
	envString := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	envInt := func(key string, dst *int) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				*problems = append(*problems, fmt.Sprintf("%s: not an integer: %q", key, v))
				return
			}
			*dst = n
		}
	}
	envFloat := func(key string, dst *float64) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				*problems = append(*problems, fmt.Sprintf("%s: not a number: %q", key, v))
				return
			}
			*dst = f
		}
	}
	envMillis := func(key string, dst *time.Duration) {
		if strings.TrimSpace(os.Getenv(key)) == "" {
			return
		}
		var ms int
		envInt(key, &ms)
		*dst = time.Duration(ms) * time.Millisecond
	}
	envBool := func(key string, dst *bool) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			b, err := strconv.ParseBool(v)
			if err == nil {
				*dst = b
			}
		}
	}

	envString("ARENA_WS_URL", &cfg.WSURL)
	envString("ARENA_HTTP_URL", &cfg.HTTPURL)
	envMillis("ARENA_RECONNECT_DELAY_MS", &cfg.ReconnectDelay)
	envMillis("ARENA_HIGHLIGHT_MS", &cfg.HighlightFor)
	envMillis("ARENA_NOTICE_MS", &cfg.NoticeFor)

	envInt("ARENA_NUM_GAMES", &cfg.Start.NumGames)
	envInt("ARENA_CONCURRENT_GAMES", &cfg.Start.ConcurrentGames)
	envFloat("ARENA_TIME_CONTROL", &cfg.Start.TimeControl)
	envFloat("ARENA_INCREMENT", &cfg.Start.Increment)
	if v := strings.TrimSpace(os.Getenv("ARENA_USE_OPENINGS")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Start.UseOpenings = &b
		}
	}

	envString("ARENA_REDIS_URL", &cfg.RedisURL)
	envString("ARENA_MIRROR_CHANNEL", &cfg.MirrorChannel)
	envString("ARENA_SNAPSHOT_DIR", &cfg.SnapshotDir)
	envString("ARENA_MESSAGES_DIR", &cfg.MessagesDir)

	envString("LOG_LEVEL", &cfg.Log.Level)
	envString("LOG_FORMAT", &cfg.Log.Format)
	envString("LOG_FILE", &cfg.Log.File)
	envBool("LOG_TO_CONSOLE", &cfg.Log.ToConsole)
	envBool("LOG_TO_FILE", &cfg.Log.ToFile)
	envBool("LOG_CALLER", &cfg.Log.Caller)
}

func (cfg *AppConfig) validate() []string {
	var problems []string
	if !strings.HasPrefix(cfg.WSURL, "ws://") && !strings.HasPrefix(cfg.WSURL, "wss://") {
		problems = append(problems, fmt.Sprintf("ws url must use ws or wss: %q", cfg.WSURL))
	}
	if cfg.ReconnectDelay <= 0 {
		problems = append(problems, "reconnect delay must be positive")
	}
	if cfg.HighlightFor <= 0 {
		problems = append(problems, "highlight duration must be positive")
	}
	if cfg.NoticeFor <= 0 {
		problems = append(problems, "notice duration must be positive")
	}
	if cfg.Start.NumGames <= 0 {
		problems = append(problems, "num games must be positive")
	}
	if cfg.Start.ConcurrentGames <= 0 {
		problems = append(problems, "concurrent games must be positive")
	}
	if !finite(cfg.Start.TimeControl) || !finite(cfg.Start.Increment) {
		problems = append(problems, "time control and increment must be finite")
	} else if cfg.Start.TimeControl < 0 || cfg.Start.Increment < 0 {
		problems = append(problems, "time control and increment must not be negative")
	}
	return problems
}

// DeriveHTTPURL maps ws://host:port/path to http://host:port, and wss to https.
func DeriveHTTPURL(wsURL string) (string, error) {
	u := strings.TrimSpace(wsURL)
	var scheme string
	switch {
	case strings.HasPrefix(u, "ws://"):
		scheme, u = "http://", strings.TrimPrefix(u, "ws://")
	case strings.HasPrefix(u, "wss://"):
		scheme, u = "https://", strings.TrimPrefix(u, "wss://")
	default:
		return "", fmt.Errorf("config: not a websocket url: %q", wsURL)
	}
	if i := strings.IndexAny(u, "/?#"); i >= 0 {
		u = u[:i]
	}
	if u == "" {
		return "", fmt.Errorf("config: missing host in %q", wsURL)
	}
	return scheme + u, nil
}

func getenvDefault(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}

func setString(dst *string, v string) {
	if s := strings.TrimSpace(v); s != "" {
		*dst = s
	}
}

func setMillis(dst *time.Duration, ms int) {
	if ms != 0 {
		*dst = time.Duration(ms) * time.Millisecond
	}
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
