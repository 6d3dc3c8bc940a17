package control

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// CommandName enumerates control commands.
type CommandName string

const (
	CommandStart  CommandName = "start"
	CommandStop   CommandName = "stop"
	CommandStatus CommandName = "status"
	CommandWindow CommandName = "window"
)

var knownCommands = map[CommandName]struct{}{
	CommandStart:  {},
	CommandStop:   {},
	CommandStatus: {},
	CommandWindow: {},
}

// Command is one inbound control message.
type Command struct {
	ID   string      `json:"id,omitempty"`
	Name CommandName `json:"command"`

	// StartTime and EndTime (HHMM) set the runtime window for CommandWindow;
	// both empty clears it.
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
}

// Status is a snapshot of the daemon state.
type Status struct {
	Running      bool      `json:"running"`
	Window       string    `json:"window"`
	Active       bool      `json:"active"`
	FramesToday  int       `json:"frames_today"`
	LastCompiled string    `json:"last_compiled,omitempty"`
	Time         time.Time `json:"time"`
}

// Response answers a Command.
type Response struct {
	ID     string  `json:"id,omitempty"`
	OK     bool    `json:"ok"`
	Error  string  `json:"error,omitempty"`
	Status *Status `json:"status,omitempty"`
}

// ParseCommand decodes a JSON command or a bare command word.
func ParseCommand(data []byte) (Command, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}

	var cmd Command
	if data[0] == '{' {
		if err := json.Unmarshal(data, &cmd); err != nil {
			return Command{}, fmt.Errorf("decode command: %w", err)
		}
	} else {
		cmd.Name = CommandName(string(data))
	}
	cmd.Name = CommandName(strings.ToLower(strings.TrimSpace(string(cmd.Name))))

	if _, ok := knownCommands[cmd.Name]; !ok {
		return cmd, fmt.Errorf("unknown command %q", cmd.Name)
	}
	return cmd, nil
}

// Encode returns the JSON form of a command.
func (c Command) Encode() ([]byte, error) {
	return json.Marshal(c)
}

// Encode returns the JSON form of a response.
func (r Response) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// DecodeResponse decodes a JSON response.
func DecodeResponse(data []byte) (Response, error) {
	var r Response
	if err := json.Unmarshal(data, &r); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	return r, nil
}
