package watch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	"github.com/mirfatif/systemd-svc-status/internal/src/sysbus"
)

type httpHandler struct {
	*Watcher
	wg *sync.WaitGroup
}

// Http wraps the watcher for the diagnostics endpoint. wg tracks open
// websocket connections so shutdown can drain them.
func Http(w *Watcher, wg *sync.WaitGroup) *httpHandler {
	return &httpHandler{Watcher: w, wg: wg}
}

// StreamEvents upgrades to a websocket and streams unit events as JSON, one
// batch per message, starting with a snapshot of every known unit.
func (h *httpHandler) StreamEvents(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := r.Context()

	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Err(err).Msgf("websocket accept failed")
		return
	}
	defer c.Close(websocket.StatusInternalError, "closed")

	h.wg.Add(1)
	defer h.wg.Done()

	sctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Reader goroutine only detects the client going away; nothing inbound
	// is expected.
	go func() {
		defer cancel()
		for {
			if _, _, err := c.Read(sctx); err != nil {
				return
			}
		}
	}()

	events, unsubscribe := h.Stream().Subscribe(16)
	defer unsubscribe()

	if snap := h.Stream().Snapshot(); len(snap) > 0 {
		if err := send(sctx, c, snap); err != nil {
			return
		}
	}

	for {
		select {
		case <-sctx.Done():
			c.Close(websocket.StatusNormalClosure, "bye")
			return
		case batch := <-events:
			if err := send(sctx, c, batch); err != nil {
				if !errors.Is(err, context.Canceled) && websocket.CloseStatus(err) == -1 {
					log.Err(err).Msgf("websocket write failed")
				}
				return
			}
		}
	}
}

func send(ctx context.Context, c *websocket.Conn, batch []sysbus.UnitEvent) error {
	payload, err := json.Marshal(batch)
	if err != nil {
		return err
	}
	return c.Write(ctx, websocket.MessageText, payload)
}
