// Command adctl browses and edits ads through the ad store REST API.
//
//	adctl list [--search s] [--category c] [--service s] [--price-limit --min n --max n] [--sort newest|oldest] [--page n]
//	adctl mine --user ID
//	adctl get ID
//	adctl create --file ad.json
//	adctl update ID --user ID --file patch.json
//	adctl delete ID --user ID
//
// The store address comes from VITE_API_URL (default http://localhost:3000).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"classifieds/pkg/logger"
	"classifieds/pkg/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loggers, err := logger.SetupLogger(os.Getenv("ADCTL_LOG_LEVEL"))
	if err != nil {
		loggers, _ = logger.SetupLogger("info")
	}

	app := newApp(os.Getenv("VITE_API_URL"), os.Stdin, os.Stdout)
	if err := app.run(ctx, os.Args[1:]); err != nil {
		loggers.ErrorLogger.Error("adctl failed", utils.Err(err))
		os.Exit(1)
	}
}
