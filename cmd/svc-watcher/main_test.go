package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mirfatif/systemd-svc-status/internal/src/notify"
	"github.com/mirfatif/systemd-svc-status/internal/src/watch"
)

func TestStartRouterDrainsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	watcher := watch.New(notify.NewDBus("svc-watcher-test"))

	// Mirrors main: the add happens before the goroutine is spawned, so a
	// Wait racing the startup cannot slip past an unregistered router.
	wg := new(sync.WaitGroup)
	wg.Add(1)
	go startRouter(ctx, wg, watcher, "127.0.0.1:0")

	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("router did not release the waitgroup after cancellation")
	}
}
