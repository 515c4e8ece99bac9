// Command provision creates a pre-provisioned event database ahead of
// an event, so the scoring machine only has to be pointed at the data
// directory on the day.
//
//	provision <event-code> [YYYYMMDD]
//
// The date defaults to today. The target directory comes from
// DATA_DIR, defaulting to the working directory.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ibsc/brickscore/internal/infrastructure/repository/sqlite"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	eventCode := strings.TrimSpace(os.Args[1])
	date := time.Now()
	if len(os.Args) > 2 {
		parsed, err := time.Parse("20060102", strings.TrimSpace(os.Args[2]))
		if err != nil {
			log.Fatalf("invalid date %q: expected YYYYMMDD", os.Args[2])
		}
		date = parsed
	}

	dir := strings.TrimSpace(os.Getenv("DATA_DIR"))
	if dir == "" {
		dir = "."
	}

	path, err := sqlite.Provision(context.Background(), dir, eventCode, date)
	if err != nil {
		log.Fatalf("provision event database: %v", err)
	}

	log.Printf("event database ready at %s", path)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: provision <event-code> [YYYYMMDD]")
	fmt.Fprintln(os.Stderr, "  creates <event-code>-<date>.db under DATA_DIR (default .)")
}
