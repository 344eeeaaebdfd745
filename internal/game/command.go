package game

import (
	"encoding/json"
	"fmt"
)

type CommandType string

const (
	CmdJoin   CommandType = "join"
	CmdReveal CommandType = "reveal"
	CmdFlag   CommandType = "flag"
	CmdChord  CommandType = "chord"
	CmdLeave  CommandType = "leave"
)

// Command is one inbound client message. R and C are meaningful for the
// cell commands only; coordinates are 0-based with (0,0) top-left.
type Command struct {
	Type CommandType `json:"type"`
	R    int         `json:"r"`
	C    int         `json:"c"`
}

func ParseCommand(data []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return Command{}, fmt.Errorf("malformed command: %w", err)
	}
	switch cmd.Type {
	case CmdJoin, CmdReveal, CmdFlag, CmdChord, CmdLeave:
		return cmd, nil
	}
	return Command{}, fmt.Errorf("unknown command %q", cmd.Type)
}
