// Command replay prints a recorded round as text frames.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/brensch/snekterm/store"
	"github.com/brensch/snekterm/tui"
)

func main() {
	every := flag.Int("every", 1, "Print every Nth frame (the last frame is always printed)")
	dir := flag.String("dir", "", "Print the newest round in this directory instead of a file argument")
	flag.Parse()

	path := flag.Arg(0)
	if *dir != "" {
		paths, err := store.ListRounds(*dir)
		if err != nil {
			log.Fatalf("Failed to list rounds: %v", err)
		}
		if len(paths) == 0 {
			log.Fatalf("No rounds in %s", *dir)
		}
		path = newest(paths)
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "usage: replay [-every N] <round.parquet> | replay -dir <dir>")
		os.Exit(2)
	}
	if *every < 1 {
		*every = 1
	}

	rows, err := store.ReadRound(path)
	if err != nil {
		log.Fatalf("Failed to read round: %v", err)
	}
	if len(rows) == 0 {
		log.Fatalf("Round %s has no rows", path)
	}

	for i, row := range rows {
		if i%*every != 0 && i != len(rows)-1 {
			continue
		}
		f, err := row.Frame()
		if err != nil {
			log.Fatalf("Bad row: %v", err)
		}
		fmt.Printf("seq %d | turn %d | score %d | %s | %s\n", row.Seq, f.Turn, f.Score, f.Direction, row.Outcome)
		border := "+" + strings.Repeat("-", int(row.Width)) + "+"
		fmt.Println(border)
		for _, line := range tui.RenderField(f, row.Width, row.Height) {
			fmt.Println("|" + line + "|")
		}
		fmt.Println(border)
	}

	last := rows[len(rows)-1]
	fmt.Printf("round %s: %d rows, score %d", last.RoundID, len(rows), last.Score)
	if last.Over {
		fmt.Printf(", ended (%s)", last.Reason)
	}
	fmt.Println()
}

// newest returns the most recently modified file.
func newest(paths []string) string {
	best := paths[0]
	var bestMod int64
	for _, p := range paths {
		st, err := os.Stat(p)
		if err != nil {
			continue
		}
		if mod := st.ModTime().UnixNano(); mod > bestMod {
			best, bestMod = p, mod
		}
	}
	return best
}
