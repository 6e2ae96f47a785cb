package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mirfatif/systemd-svc-status/internal/src/ignore"
	"github.com/mirfatif/systemd-svc-status/internal/src/notify"
	"github.com/mirfatif/systemd-svc-status/internal/src/sysbus"
	"github.com/mirfatif/systemd-svc-status/internal/src/watch"
)

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).With().Logger()
}

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "-h" || arg == "--help" {
			fmt.Println("Usage:\n\tsvc-watcher\n\nConfiguration is read from the yaml file named by CONFIG\nand from SVCWATCHER_* environment variables.")
			return
		}
	}

	initConfig()

	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	scope := sysbus.ScopeSystem
	if config.GetString("bus.scope") == "user" {
		scope = sysbus.ScopeUser
	}

	client, err := sysbus.Connect(ctx, scope)
	if err != nil {
		log.Fatal().Msgf("%v", err)
	}
	defer client.Close()

	ignoreList := ignore.New(config.GetString("watch.ignore_file"))
	loadIgnoreList(ignoreList)

	notifier := notify.NewDBus("svc-watcher")
	defer notifier.Close()

	watcher := watch.New(notifier,
		watch.WithIgnoreList(ignoreList),
		watch.WithNotification(
			config.GetString("notify.icon"),
			config.GetInt32("notify.timeout_ms"),
		),
	)

	wg := new(sync.WaitGroup)
	if addr := config.GetString("http.address"); addr != "" {
		// Registered here, not inside the goroutine, so a signal during
		// startup cannot pass wg.Wait before the add lands.
		wg.Add(1)
		go startRouter(ctx, wg, watcher, addr)
	}

	events, errs := client.SubscribeEvents(
		config.GetDuration("watch.interval"),
		config.GetInt("watch.buffer"),
	)

	done := make(chan error, 1)
	go func() {
		done <- watcher.Run(ctx, events, errs)
	}()

	log.Info().Msgf("Listening on the %s bus..", scope)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1)

	for {
		select {
		case sig := <-sigCh:
			if sig == syscall.SIGUSR1 {
				loadIgnoreList(ignoreList)
				continue
			}
			log.Info().Msgf("%v, exiting...", sig)
			cancel(errors.New("signal received"))
			wg.Wait()
			log.Info().Msgf("Bye bye")
			return
		case err := <-done:
			if err != nil {
				// The subscription is gone; let the supervisor
				// restart us.
				log.Fatal().Msgf("%v", err)
			}
			return
		}
	}
}

func loadIgnoreList(l *ignore.List) {
	if err := l.Reload(); err != nil {
		log.Err(err).Msgf("could not load ignore list")
		return
	}
	names, hasPatterns := l.Size()
	log.Info().Msgf("Loaded %d names (patterns: %v) from ignore list", names, hasPatterns)
}

// startRouter serves the diagnostics endpoint. The caller must have added one
// to wg; it is released once the server has shut down and every websocket
// connection drained.
func startRouter(ctx context.Context, wg *sync.WaitGroup, watcher *watch.Watcher, address string) {
	router := httprouter.New()

	wsWg := &sync.WaitGroup{}
	router.GET("/events", watch.Http(watcher, wsWg).StreamEvents)

	server := &http.Server{
		Addr:    address,
		Handler: router,
	}

	go func() {
		defer wg.Done()

		<-ctx.Done()

		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		log.Info().Msgf("Shutting down HTTP server..")
		if err := server.Shutdown(sctx); err != nil {
			log.Err(err).Msgf("HTTP server Shutdown")
		}

		log.Info().Msgf("Waiting for websocket connections to close..")
		wsWg.Wait()
	}()

	log.Info().Msgf("Serving diagnostics at %v..", server.Addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Err(err).Msgf("HTTP server ListenAndServe")
	}
}
