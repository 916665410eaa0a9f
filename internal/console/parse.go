package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/park285/arena-console/internal/protocol"
)

type Kind int

const (
	KindNone Kind = iota
	KindStart
	KindPause
	KindResume
	KindToggle
	KindStop
	KindStats
	KindSnapshot
	KindHelp
	KindQuit
)

var kindNames = map[string]Kind{
	"start":    KindStart,
	"pause":    KindPause,
	"resume":   KindResume,
	"toggle":   KindToggle,
	"stop":     KindStop,
	"stats":    KindStats,
	"snapshot": KindSnapshot,
	"help":     KindHelp,
	"quit":     KindQuit,
	"exit":     KindQuit,
}

var ErrUnknownCommand = errors.New("console: unknown command")

// Command is one parsed operator line.
type Command struct {
	Kind   Kind
	Name   string
	Config protocol.StartConfig
	Dir    string
}

// Parse reads one line. start arguments are positional and fall back to
// defaults: games, concurrency, base seconds, increment seconds.
func Parse(line string, defaults protocol.StartConfig) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{Kind: KindNone}, nil
	}
	name := strings.ToLower(fields[0])
	kind, ok := kindNames[name]
	if !ok {
		return Command{}, fmt.Errorf("%w: %s", ErrUnknownCommand, fields[0])
	}
	cmd := Command{Kind: kind, Name: name}
	args := fields[1:]

	switch kind {
	case KindStart:
		cfg := defaults
		if len(args) > 4 {
			return Command{}, fmt.Errorf("start takes at most 4 arguments")
		}
		for i, a := range args {
			var err error
			switch i {
			case 0:
				cfg.NumGames, err = strconv.Atoi(a)
			case 1:
				cfg.ConcurrentGames, err = strconv.Atoi(a)
			case 2:
				cfg.TimeControl, err = strconv.ParseFloat(a, 64)
			case 3:
				cfg.Increment, err = strconv.ParseFloat(a, 64)
			}
			if err != nil {
				return Command{}, fmt.Errorf("start argument %d %q: %w", i+1, a, err)
			}
		}
		cmd.Config = cfg
	case KindSnapshot:
		if len(args) > 0 {
			cmd.Dir = args[0]
		}
	}
	return cmd, nil
}
