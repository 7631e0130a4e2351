// Command flintdb launches the interactive shell against a data root on
// disk, replacing the teacher's single-table main.go demo with a real
// entry point that bootstraps the catalog, session, and shell.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/flintdb/flintdb/internal/catalog"
	"github.com/flintdb/flintdb/internal/logging"
	"github.com/flintdb/flintdb/internal/session"
	"github.com/flintdb/flintdb/internal/shell"
)

func main() {
	dataRoot := flag.String("data", "./flintdb-data", "directory holding flintdb's databases")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	database := flag.String("database", "", "database to select on startup")
	flag.Parse()

	log, err := logging.New(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "flintdb: build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cat, err := catalog.Open(*dataRoot, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "flintdb: %v\n", err)
		os.Exit(1)
	}

	sess := session.Open(cat, log)
	if *database != "" {
		if err := sess.UseDatabase(*database); err != nil {
			fmt.Fprintf(os.Stderr, "flintdb: %v\n", err)
			os.Exit(1)
		}
	}

	historyPath := filepath.Join(*dataRoot, ".flintdb_history")
	sh, err := shell.New(sess, historyPath, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "flintdb: %v\n", err)
		os.Exit(1)
	}
	defer sh.Close()

	if err := sh.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "flintdb: %v\n", err)
		os.Exit(1)
	}
}
