package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"kupong-service/internal/app"
	"kupong-service/internal/domain"
	"kupong-service/internal/notify"

	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.CouponService
	notifier notify.Notifier
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.CouponService, notifier notify.Notifier) *WSHandler {
	return &WSHandler{
		service:  service,
		notifier: notifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type submitPayload struct {
	PlayerName string            `json:"playerName"`
	Answers    map[string]string `json:"answers"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request to a websocket and streams the coupon's
// scoreboard: a snapshot on connect, a fresh one after every facit change, and
// submit/withdraw round trips for the connected participant.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	couponID := r.URL.Query().Get("couponId")
	deviceID := r.URL.Query().Get("deviceId")
	playerName := r.URL.Query().Get("name")
	if couponID == "" || deviceID == "" {
		http.Error(w, "missing couponId or deviceId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	board, err := h.service.Scoreboard(r.Context(), couponID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	// Signals collapse under backpressure; every delivery triggers a full
	// re-fetch anyway, so only the latest matters.
	signals := make(chan struct{}, 1)
	cancel := h.notifier.Subscribe(func(changed string) {
		if changed != couponID {
			return
		}
		select {
		case signals <- struct{}{}:
		default:
		}
	})
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

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
			case <-signals:
				fresh, err := h.service.Scoreboard(r.Context(), couponID)
				if err != nil {
					log.Printf("scoreboard refresh failed: %v", err)
					continue
				}
				select {
				case send <- outboundMessage[any]{Type: "scoreboard", Payload: fresh}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "scoreboard", Payload: board}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "submit":
			var payload submitPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid submit payload"}}
				continue
			}
			name := payload.PlayerName
			if name == "" {
				name = playerName
			}
			sub, err := h.service.Submit(r.Context(), couponID, deviceID, name, payload.Answers)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: submitError(err)}}
				continue
			}
			send <- outboundMessage[any]{Type: "submitted", Payload: sub}
			h.pushScoreboard(r, couponID, send)
		case "withdraw":
			if err := h.service.WithdrawSubmission(r.Context(), couponID, deviceID); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage[any]{Type: "withdrawn", Payload: struct{}{}}
			h.pushScoreboard(r, couponID, send)
		case "refresh":
			h.pushScoreboard(r, couponID, send)
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) pushScoreboard(r *http.Request, couponID string, send chan<- outboundMessage[any]) {
	board, err := h.service.Scoreboard(r.Context(), couponID)
	if err != nil {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
		return
	}
	send <- outboundMessage[any]{Type: "scoreboard", Payload: board}
}

func submitError(err error) string {
	if errors.Is(err, domain.ErrDeadlinePassed) {
		return "the submission deadline has passed"
	}
	return err.Error()
}
