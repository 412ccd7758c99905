package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	persistlog "starteritems.gg/internal/persistence/log"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "players":
			playersCmd(os.Args[2:])
			return
		case "player":
			playerCmd(os.Args[2:])
			return
		case "grants":
			grantsCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		case "remote-player":
			remotePlayerCmd(os.Args[2:])
			return
		}
	}
	fmt.Fprintln(os.Stderr, "usage: admin players|player|grants|state|remote-player [flags]")
	os.Exit(2)
}

// grantsCmd prints the zstd grant audit log as JSON lines.
func grantsCmd(args []string) {
	fs := flag.NewFlagSet("grants", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	player := fs.String("player", "", "player id or name filter (optional)")
	kind := fs.String("kind", "", "grant kind filter: first_join|welcome|delayed_clear (optional)")
	_ = fs.Parse(args)

	recs, err := persistlog.ReadGrants(*dataDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read grants:", err)
		os.Exit(1)
	}
	p := strings.TrimSpace(*player)
	k := strings.TrimSpace(*kind)
	enc := json.NewEncoder(os.Stdout)
	n := 0
	for _, r := range recs {
		if p != "" && r.PlayerID != p && !strings.EqualFold(r.Name, p) {
			continue
		}
		if k != "" && r.Kind != k {
			continue
		}
		_ = enc.Encode(r)
		n++
	}
	fmt.Fprintf(os.Stderr, "%d grant records\n", n)
}
