package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"starteritems.gg/internal/protocol"
)

func main() {
	var (
		url       = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name      = flag.String("name", "bot", "player name")
		dimension = flag.String("dimension", "", "dimension to hop to after the first inventory (optional)")
		hopAfter  = flag.Duration("hop_after", 2*time.Second, "delay before the dimension hop")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		PlayerName:      *name,
		MaxQueue:        64,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		_ = conn.Close()
	}()

	hop := strings.TrimSpace(*dimension)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Printf("WELCOME player_id=%s dimension=%s tick_rate=%d palette=%d", w.PlayerID, w.Dimension, w.WorldParams.TickRateHz, w.ItemPalette.Count)

		case protocol.TypeChat:
			var c protocol.ChatMsg
			if err := json.Unmarshal(msg, &c); err != nil {
				continue
			}
			if c.Color != "" {
				logger.Printf("CHAT [%s] %s", c.Color, c.Text)
			} else {
				logger.Printf("CHAT %s", c.Text)
			}

		case protocol.TypeInventory:
			var inv protocol.InventoryMsg
			if err := json.Unmarshal(msg, &inv); err != nil {
				continue
			}
			logInventory(logger, &inv)
			if hop != "" && hop != inv.Dimension {
				target := hop
				hop = ""
				time.AfterFunc(*hopAfter, func() {
					act := protocol.ActMsg{
						Type:            protocol.TypeAct,
						ProtocolVersion: protocol.Version,
						Action:          protocol.ActionChangeDimension,
						Dimension:       target,
					}
					if err := conn.WriteJSON(act); err != nil {
						logger.Printf("send ACT: %v", err)
					}
				})
			}

		case protocol.TypeError:
			var e protocol.ErrorMsg
			if err := json.Unmarshal(msg, &e); err != nil {
				continue
			}
			logger.Printf("ERROR %s: %s", e.Code, e.Message)
		}
	}
}

func logInventory(logger *log.Logger, inv *protocol.InventoryMsg) {
	logger.Printf("INVENTORY tick=%d dimension=%s slots=%d", inv.Tick, inv.Dimension, len(inv.Slots))
	for _, s := range inv.Slots {
		if s.NBT != "" {
			logger.Printf("  [%2d] %d %s %s", s.Slot, s.Count, s.Item, s.NBT)
			continue
		}
		logger.Printf("  [%2d] %d %s", s.Slot, s.Count, s.Item)
	}
}
