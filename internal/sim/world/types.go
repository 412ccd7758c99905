package world

import (
	"context"
	"errors"

	"starteritems.gg/internal/persistence/playerdb"
	"starteritems.gg/internal/protocol"
)

type Vec3i struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	Z int `json:"z" yaml:"z"`
}

var (
	ErrStopped       = errors.New("world stopped")
	ErrAlreadyOnline = errors.New("player is already online")
)

type JoinRequest struct {
	Name string
	Out  chan []byte
	Resp chan JoinResponse
}

// JoinResponse carries the WELCOME for an accepted join. Err is set and
// Welcome is zero when the join was refused.
type JoinResponse struct {
	Welcome protocol.WelcomeMsg
	Err     error
	Code    string
}

type ActionEnvelope struct {
	PlayerID string
	Act      protocol.ActMsg
}

type RecordedJoin struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
}

type RecordedAction struct {
	PlayerID  string `json:"player_id"`
	Action    string `json:"action"`
	Dimension string `json:"dimension,omitempty"`
}

func (a RecordedAction) Act() protocol.ActMsg {
	return protocol.ActMsg{
		Type:            protocol.TypeAct,
		ProtocolVersion: protocol.Version,
		Action:          a.Action,
		Dimension:       a.Dimension,
	}
}

// TickLogEntry is one line of the event log. The first entry a world writes
// has Start set, so readers can split a log into server runs.
type TickLogEntry struct {
	Tick     uint64           `json:"tick"`
	Start    bool             `json:"start,omitempty"`
	Joins    []RecordedJoin   `json:"joins,omitempty"`
	Leaves   []string         `json:"leaves,omitempty"`
	Actions  []RecordedAction `json:"actions,omitempty"`
	Commands []string         `json:"commands,omitempty"`
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

// Store persists player saves between logins.
type Store interface {
	Load(ctx context.Context, id string) (playerdb.Record, bool, error)
	Save(ctx context.Context, rec playerdb.Record) error
}
