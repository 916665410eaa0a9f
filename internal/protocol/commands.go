package protocol

import "encoding/json"

const (
	CommandStart    = "start"
	CommandPause    = "pause"
	CommandResume   = "resume"
	CommandStop     = "stop"
	CommandGetStats = "get_stats"
)

// Command is an outbound operator request. Fields are spread into the
// top-level envelope next to "command" rather than nested.
type Command struct {
	Name   string
	Fields map[string]any
}

func (c Command) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Fields)+1)
	for k, v := range c.Fields {
		out[k] = v
	}
	out["command"] = c.Name
	return json.Marshal(out)
}

func Start(cfg StartConfig) Command {
	return Command{Name: CommandStart, Fields: map[string]any{"config": cfg}}
}

func Pause() Command    { return Command{Name: CommandPause} }
func Resume() Command   { return Command{Name: CommandResume} }
func Stop() Command     { return Command{Name: CommandStop} }
func GetStats() Command { return Command{Name: CommandGetStats} }
