// rotauth-migrate applies the embedded schema migrations; run with
// DATABASE_URL set or a .env file in the working directory.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/fenrirsec/rotauth/internal/appconfig"
	"github.com/fenrirsec/rotauth/internal/db/migrate"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	cfg, err := appconfig.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if err := migrate.Run(cfg.DatabaseURL, *direction); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return
		}
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}
