package http

import (
	"encoding/json"
	"log"

	"gameed/internal/domain"
	"github.com/gin-gonic/gin"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type refreshPayload struct {
	Limit int `json:"limit"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeLeaderboard upgrades to a websocket that streams leaderboard snapshots. The first
// frame is the current top users; a new frame follows every point award. Clients may send
// {"type":"refresh","payload":{"limit":N}} to get a ranking of a different size.
func (h *Handler) ServeLeaderboard(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = bearerToken(c.GetHeader("Authorization"))
	}
	if token == "" {
		h.fail(c, "Not authorized", domain.ErrMissingToken)
		return
	}
	if _, err := h.svc.Auth.Authenticate(token); err != nil {
		h.fail(c, "Not authorized", err)
		return
	}

	ctx := c.Request.Context()
	updates, cancel, err := h.svc.Leaderboard.Subscribe(ctx)
	if err != nil {
		h.fail(c, "Error fetching leaderboard", err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Only the writer goroutine touches conn for writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "leaderboard", Payload: update}:
				case <-writerDone:
					return
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	push := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-writerDone:
		}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "refresh":
			var payload refreshPayload
			if len(inbound.Payload) > 0 {
				if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
					push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid refresh payload"}})
					continue
				}
			}
			lb, err := h.svc.Leaderboard.Top(ctx, payload.Limit)
			if err != nil {
				log.Printf("ws refresh: %v", err)
				push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "Error fetching leaderboard"}})
				continue
			}
			push(outboundMessage[any]{Type: "leaderboard", Payload: lb})
		default:
			push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
