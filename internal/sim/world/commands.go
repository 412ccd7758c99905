package world

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"starteritems.gg/internal/chat"
	"starteritems.gg/internal/item"
)

var errBadName = errors.New("empty player name")

type commandReq struct {
	Cmd  string
	Resp chan error
}

// RunCommand executes a console command on the loop goroutine and waits for
// the result. It returns ErrStopped once Run has returned.
func (w *World) RunCommand(cmd string) error {
	resp := make(chan error, 1)
	select {
	case w.commands <- commandReq{Cmd: cmd, Resp: resp}:
	case <-w.done:
		return ErrStopped
	}
	select {
	case err := <-resp:
		return err
	case <-w.done:
		return ErrStopped
	}
}

// ExecCommand runs a console command directly. It must be called from the
// loop goroutine or while Run is not active.
//
//	say <text>
//	give <player> <count> <item>
//	tag <player> add|remove <tag>
func (w *World) ExecCommand(cmd string) error {
	cmd = strings.TrimPrefix(strings.TrimSpace(cmd), "/")
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return fmt.Errorf("empty command")
	}
	var err error
	switch fields[0] {
	case "say":
		err = w.cmdSay(strings.TrimSpace(strings.TrimPrefix(cmd, "say")))
	case "give":
		err = w.cmdGive(fields[1:])
	case "tag":
		err = w.cmdTag(fields[1:])
	default:
		err = fmt.Errorf("unknown command %q", fields[0])
	}
	if err == nil {
		w.ranCommands = append(w.ranCommands, cmd)
	}
	return err
}

func (w *World) cmdSay(text string) error {
	if text == "" {
		return fmt.Errorf("usage: say <text>")
	}
	w.log.Printf("[Server] %s", text)
	for _, id := range w.sortedPlayerIDs() {
		w.players[id].SendMessage(chat.Plain("[Server] " + text))
	}
	return nil
}

func (w *World) cmdGive(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: give <player> <count> <item>")
	}
	p := w.PlayerByName(args[0])
	if p == nil {
		return fmt.Errorf("no player named %q is online", args[0])
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n < 1 {
		return fmt.Errorf("invalid count %q", args[1])
	}
	id, err := item.NormalizeID(args[2])
	if err != nil {
		return err
	}
	if !w.cats.Contains(id) {
		return fmt.Errorf("unknown item %s", id)
	}
	st := item.Stack{Item: id, Count: n}
	if !p.inv.Insert(&st) {
		p.Drop(st)
	}
	return nil
}

func (w *World) cmdTag(args []string) error {
	if len(args) != 3 || (args[1] != "add" && args[1] != "remove") {
		return fmt.Errorf("usage: tag <player> add|remove <tag>")
	}
	p := w.PlayerByName(args[0])
	if p == nil {
		return fmt.Errorf("no player named %q is online", args[0])
	}
	if args[1] == "add" {
		if !p.AddTag(args[2]) {
			return fmt.Errorf("%s has too many tags", p.name)
		}
		return nil
	}
	if !p.RemoveTag(args[2]) {
		return fmt.Errorf("%s does not have tag %s", p.name, args[2])
	}
	return nil
}
