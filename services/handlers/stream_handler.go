package handlers

import (
	"bufio"
	"bytes"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/guessword_api/shared"
	log "github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
)

type StreamHandler struct {
	streamSvc    StreamServiceInterface
	pingInterval time.Duration
}

func NewStreamHandler(streamSvc StreamServiceInterface) *StreamHandler {
	return &StreamHandler{
		streamSvc:    streamSvc,
		pingInterval: shared.StreamPingInterval,
	}
}

// @Summary Subscribe to oracle replies
// @Description Server-Sent Events: a ready event, then one reply event per oracle answer, with periodic keep-alive comments
// @Tags game
// @Produce text/event-stream
// @Success 200
// @Router /stream [get]
func (h *StreamHandler) Subscribe(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	events, cancel := h.streamSvc.Subscribe()
	pingInterval := h.pingInterval

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()

		if err := writeEvent(w, "ready", []byte("{}")); err != nil {
			return
		}

		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()

		for {
			select {
			case event, ok := <-events:
				if !ok {
					return
				}
				if err := writeEvent(w, event.Name, event.Data); err != nil {
					log.Debugf("Stream subscriber went away: %v", err)
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))

	return nil
}

// writeEvent frames one event; every line of data gets its own data field.
func writeEvent(w *bufio.Writer, name string, data []byte) error {
	if _, err := fmt.Fprintf(w, "event: %s\n", name); err != nil {
		return err
	}
	for _, line := range bytes.Split(data, []byte("\n")) {
		if _, err := fmt.Fprintf(w, "data: %s\n", line); err != nil {
			return err
		}
	}
	if _, err := w.WriteString("\n"); err != nil {
		return err
	}
	return w.Flush()
}
