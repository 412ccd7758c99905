package ws

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"starteritems.gg/internal/protocol"
	"starteritems.gg/internal/sim/world"
)

// Host is the part of the world the transport talks to.
type Host interface {
	Join() chan<- world.JoinRequest
	Leave() chan<- string
	Inbox() chan<- world.ActionEnvelope
	Done() <-chan struct{}
}

type Server struct {
	world Host
	log   *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(w Host, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Server{
		world: w,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		playerID, out := s.handshake(conn)
		if playerID == "" {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil || base.Type != protocol.TypeAct {
				continue
			}
			var act protocol.ActMsg
			if err := json.Unmarshal(msg, &act); err != nil {
				continue
			}
			if act.ProtocolVersion != protocol.Version {
				continue
			}
			select {
			case s.world.Inbox() <- world.ActionEnvelope{PlayerID: playerID, Act: act}:
			case <-s.world.Done():
				return
			}
		}

		// Cleanup.
		select {
		case s.world.Leave() <- playerID:
		case <-s.world.Done():
		}
	}
}

func (s *Server) handshake(conn *websocket.Conn) (playerID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, "expected HELLO")
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		closeWith(conn, "bad HELLO")
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = writeJSON(conn, protocol.NewError(protocol.ErrProtoVersion, "protocol_version must be "+protocol.Version))
		closeWith(conn, "bad protocol_version")
		return "", nil
	}
	name := strings.TrimSpace(hello.PlayerName)
	if name == "" {
		closeWith(conn, "player_name required")
		return "", nil
	}

	maxQ := hello.MaxQueue
	if maxQ <= 0 {
		maxQ = 64
	}
	if maxQ > 256 {
		maxQ = 256
	}
	out = make(chan []byte, maxQ)

	respCh := make(chan world.JoinResponse, 1)
	select {
	case s.world.Join() <- world.JoinRequest{Name: name, Out: out, Resp: respCh}:
	case <-s.world.Done():
		return "", nil
	}
	var resp world.JoinResponse
	select {
	case resp = <-respCh:
	case <-s.world.Done():
		return "", nil
	}
	if resp.Err != nil {
		s.log.Printf("join %q refused: %v", name, resp.Err)
		_ = writeJSON(conn, protocol.NewError(resp.Code, resp.Err.Error()))
		closeWith(conn, resp.Err.Error())
		return "", nil
	}

	if err := writeJSON(conn, resp.Welcome); err != nil {
		select {
		case s.world.Leave() <- resp.Welcome.PlayerID:
		case <-s.world.Done():
		}
		return "", nil
	}
	return resp.Welcome.PlayerID, out
}

func closeWith(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
