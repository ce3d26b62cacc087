package domain

import (
	"encoding/json"
	"fmt"
)

// Real-time channel event names. Inbound frames carry join or mensagem;
// outbound frames additionally carry history and system_command.
const (
	EventJoin          = "join"
	EventMessage       = "mensagem"
	EventHistory       = "history"
	EventSystemCommand = "system_command"
)

// TeardownCommand is the inbound text token that wipes a room.
const TeardownCommand = "!torre"

// TeardownNotice is the message shown to members evicted by a teardown.
const TeardownNotice = "A torre ruiu. Você foi desconectado."

// Event is one frame on the real-time channel.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// SystemCommand is the payload of the ephemeral teardown notice. It is
// broadcast once and never appended to history.
type SystemCommand struct {
	Cmd string `json:"cmd"`
	Msg string `json:"msg"`
}

func TeardownEvent() Event {
	return Event{
		Event: EventSystemCommand,
		Data:  SystemCommand{Cmd: TeardownCommand, Msg: TeardownNotice},
	}
}

// JoinAnnouncement is the system message appended when username joins.
func JoinAnnouncement(username string) Message {
	return System(fmt.Sprintf("%s entrou na sala.", username))
}
