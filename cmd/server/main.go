package main

import (
	"flag"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/CK6170/Sensorcal-go/internal/server"
)

func main() {
	var (
		addr  = flag.String("addr", "127.0.0.1:8080", "http listen address")
		web   = flag.String("web", "./web", "path to web root (index.html)")
		debug = flag.Bool("debug", false, "verbose logging")
	)
	flag.Parse()

	log := logrus.New()
	if *debug {
		log.SetLevel(logrus.DebugLevel)
	}

	s := server.New(log, *web)
	log.Infof("Serving on http://%s", *addr)
	log.Infof("UI:        http://%s/", *addr)
	if err := http.ListenAndServe(*addr, s.Handler()); err != nil {
		log.Fatal(err)
	}
}
