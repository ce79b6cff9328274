// Command admin runs operator tasks against the gadget database:
//
//	admin create-admin [-u username]
//	admin seed [-f gadgets.yaml]
//
// Connection settings are read the same way as for the server (-c, -env-file,
// environment, -d).
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/anshc022/imf-gadget-api/internal/admincli"
	"github.com/anshc022/imf-gadget-api/internal/server"
	"github.com/anshc022/imf-gadget-api/internal/server/config"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer app.Close()

	cli := admincli.NewApp(app.UserService(), app.GadgetService(), os.Stdin, os.Stdout)
	if err := cli.Run(ctx, os.Args[1:]); err != nil {
		log.Printf("%v", err)
		stop()
		_ = app.Close()
		os.Exit(1)
	}

}
