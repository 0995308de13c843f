// Command inspect dumps the counter and the newest message records from a
// wall store directory.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"messagewall/pkg/logger"
	"messagewall/pkg/store"
)

func main() {
	var dbPath string
	var limit int
	flag.StringVar(&dbPath, "db", "./.wall", "store path")
	flag.IntVar(&limit, "n", 10, "number of recent messages to print")
	flag.Parse()

	logger.Init("error")

	st, err := store.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	count, err := st.Count()
	if err != nil {
		fmt.Fprintf(os.Stderr, "read counter: %v\n", err)
		os.Exit(1)
	}
	records, err := st.RecentMessages(limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan messages: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("store:        %s (%s on disk)\n", dbPath, humanize.Bytes(st.DiskSize()))
	fmt.Printf("messageCount: %d\n", count)
	fmt.Printf("recent (%d):\n", len(records))
	for _, r := range records {
		fmt.Printf("  %s  %q\n", r.SortKey, r.Text)
	}
}
