package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"starteritems.gg/internal/persistence/playerdb"
	"starteritems.gg/internal/sim/world"
	"starteritems.gg/internal/starter"
)

func openDB(path string) *playerdb.DB {
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(os.Stderr, "db:", err)
		os.Exit(1)
	}
	db, err := playerdb.Open(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	return db
}

func playersCmd(args []string) {
	fs := flag.NewFlagSet("players", flag.ExitOnError)
	dbPath := fs.String("db", "./data/players.db", "player sqlite db path")
	_ = fs.Parse(args)

	db := openDB(*dbPath)
	defer db.Close()

	recs, err := db.List(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, "list:", err)
		os.Exit(1)
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tJOINED\tDIMENSION\tSLOTS\tUPDATED")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%d\t%s\n",
			r.ID, r.Name, r.HasTag(starter.JoinedTag), r.Dimension, len(r.Inventory),
			r.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"))
	}
	_ = tw.Flush()
}

func playerCmd(args []string) {
	fs := flag.NewFlagSet("player", flag.ExitOnError)
	dbPath := fs.String("db", "./data/players.db", "player sqlite db path")
	id := fs.String("id", "", "player id")
	name := fs.String("name", "", "player name (offline id is derived from it)")
	limit := fs.Int("grants", 20, "recent grant records to include")
	_ = fs.Parse(args)

	pid := strings.TrimSpace(*id)
	if pid == "" && strings.TrimSpace(*name) != "" {
		pid = world.OfflinePlayerID(strings.TrimSpace(*name))
	}
	if pid == "" {
		fmt.Fprintln(os.Stderr, "missing -id or -name")
		os.Exit(2)
	}

	db := openDB(*dbPath)
	defer db.Close()

	ctx := context.Background()
	rec, ok, err := db.Load(ctx, pid)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load:", err)
		os.Exit(1)
	}
	if !ok {
		fmt.Fprintln(os.Stderr, "no such player:", pid)
		os.Exit(1)
	}
	grants, err := db.Grants(ctx, pid, *limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, "grants:", err)
		os.Exit(1)
	}
	out := struct {
		Player playerdb.Record       `json:"player"`
		Joined bool                  `json:"joined"`
		Grants []starter.GrantRecord `json:"grants"`
	}{rec, rec.HasTag(starter.JoinedTag), grants}
	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}
