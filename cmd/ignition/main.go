// Command ignition runs the static-file HTTP server: a positional port
// argument plus a small set of flags. Config-file parsing and TLS are
// out of scope (spec.md §1); flag parsing uses only the standard
// library, matching the teacher's own minimal-CLI habit elsewhere in
// the monorepo.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yourusername/ignition/internal/ignition/config"
	"github.com/yourusername/ignition/internal/ignition/logging"
	"github.com/yourusername/ignition/internal/ignition/server"
)

func main() {
	var (
		webRoot       = flag.String("root", ".", "directory to serve")
		statsEnabled  = flag.Bool("stats", false, "log a periodic stats snapshot")
		statsInterval = flag.Int("stats-interval-ms", 10000, "stats snapshot interval, in milliseconds")
		configPath    = flag.String("c", "", "config file path (accepted, unused: config-file parsing is out of scope)")
	)
	flag.Parse()

	if *configPath != "" {
		log.Printf("ignition: -c %s accepted but ignored (config-file parsing out of scope)", *configPath)
	}

	port := "8080"
	if flag.NArg() > 0 {
		port = flag.Arg(0)
	}

	cfg := config.Default()
	cfg.Addr = net.JoinHostPort("", port)
	cfg.WebRoot = *webRoot
	cfg.StatsEnabled = *statsEnabled
	if *statsInterval > 0 {
		cfg.StatsInterval = time.Duration(*statsInterval) * time.Millisecond
	}

	if _, err := os.Stat(cfg.WebRoot); err != nil {
		fmt.Fprintf(os.Stderr, "ignition: web root %q: %v\n", cfg.WebRoot, err)
		os.Exit(1)
	}

	logger := logging.New(io.Discard)
	if l, err := os.OpenFile("ignition.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
		logger = logging.New(io.MultiWriter(os.Stdout, l))
	} else {
		logger = logging.New(os.Stdout)
	}

	srv := server.New(cfg, logger)

	stop := make(chan struct{})
	if cfg.StatsEnabled {
		go srv.StatsLoop(cfg.StatsInterval, stop)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		close(stop)
		srv.Shutdown()
	}()

	if err := srv.ListenAndServe(); err != nil {
		log.Fatal(err)
	}
}
