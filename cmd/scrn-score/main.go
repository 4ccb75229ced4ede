package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"

	scrnscore "github.com/nsip/scrn-score"
	"github.com/peterbourgon/ff/v3"
)

func main() {

	fs := flag.NewFlagSet("scrn-score", flag.ExitOnError)
	var (
		_           = fs.String("config", "", "config file (optional), json format.")
		serviceName = fs.String("name", "", "name for this scoring service instance")
		serviceID   = fs.String("id", "", "id for this scoring service instance, leave blank to auto-generate a unique id")
		serviceHost = fs.String("host", "localhost", "name/address of host for this service")
		servicePort = fs.Int("port", 0, "port to run service on, if not specified will assign an available port automatically")
		storeURL    = fs.String("storeUrl", "", "base url of the supabase backing store")
		storeKey    = fs.String("storeKey", "", "api key for the backing store")
		textgenURL  = fs.String("textgenUrl", "", "url of the narrative generation service (optional)")
		natsURL     = fs.String("natsUrl", "", "nats server url for score event publishing (optional)")
	)

	ff.Parse(fs, os.Args[1:],
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.JSONParser),
		ff.WithEnvVarPrefix("SCRN_SCORE_SRVC"),
	)

	opts := []scrnscore.Option{
		scrnscore.Name(*serviceName),
		scrnscore.ID(*serviceID),
		scrnscore.Host(*serviceHost),
		scrnscore.Port(*servicePort),
		scrnscore.StoreURL(*storeURL),
		scrnscore.StoreKey(*storeKey),
		scrnscore.TextgenURL(*textgenURL),
		scrnscore.NatsURL(*natsURL),
	}

	srvc, err := scrnscore.New(opts...)
	if err != nil {
		fmt.Printf("\nCannot create scrn-score service:\n%s\n\n", err)
		return
	}

	srvc.PrintConfig()

	// signal handler for shutdown
	closed := make(chan struct{})
	c := make(chan os.Signal)
	signal.Notify(c, os.Kill, os.Interrupt)
	go func() {
		<-c
		fmt.Println("\nscrn-score shutting down")
		srvc.Shutdown()
		fmt.Println("scrn-score closed")
		close(closed)
	}()

	srvc.Start()

	// block until shutdown by sig-handler
	<-closed

}
