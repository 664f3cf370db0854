package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kupong-service/internal/app"
	"kupong-service/internal/infra/memory"
	"kupong-service/internal/notify"

	"github.com/gorilla/websocket"
)

func newWSTestServer(t *testing.T) (*httptest.Server, *app.CouponService, string) {
	t.Helper()
	store := memory.NewStore()
	bus := notify.NewMemoryBus()
	service := app.NewCouponService(store, nil, bus, 5*time.Minute)

	coupon, err := service.CreateCoupon(context.Background(), "Runde 12", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("create coupon: %v", err)
	}
	if _, err := service.AddQuestion(context.Background(), coupon.ID, "RBK - MOL", []string{"H", "U", "B"}, []int{2, 3, 4}, "m1"); err != nil {
		t.Fatalf("add question: %v", err)
	}

	wsHandler := NewWSHandler(service, bus)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	return httptest.NewServer(mux), service, coupon.ID
}

func dialWS(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

func TestWebSocketSubmitFlow(t *testing.T) {
	server, _, couponID := newWSTestServer(t)
	defer server.Close()

	conn := dialWS(t, server, "couponId="+couponID+"&deviceId=dev-1&name=Alice")
	defer conn.Close()

	_, payload := readNext(conn, t, "scoreboard")
	if payload["graded"] != false {
		t.Fatalf("fresh coupon should be ungraded, got %v", payload["graded"])
	}

	submit := map[string]any{
		"type": "submit",
		"payload": map[string]any{
			"playerName": "Alice",
			"answers":    map[string]string{"ignored": "H"},
		},
	}
	if err := conn.WriteJSON(submit); err != nil {
		t.Fatalf("write submit: %v", err)
	}

	_, sub := readNext(conn, t, "submitted")
	if sub["playerName"] != "Alice" {
		t.Fatalf("expected submission for Alice, got %v", sub)
	}
	_, board := readNext(conn, t, "scoreboard")
	entries, ok := board["entries"].([]any)
	if !ok || len(entries) != 1 {
		t.Fatalf("expected 1 scoreboard entry, got %v", board["entries"])
	}
}

func TestWebSocketPushesOnFacitChange(t *testing.T) {
	server, service, couponID := newWSTestServer(t)
	defer server.Close()

	questions, err := service.Scoreboard(context.Background(), couponID)
	if err != nil {
		t.Fatalf("scoreboard: %v", err)
	}
	questionID := questions.Questions[0].ID

	if _, err := service.Submit(context.Background(), couponID, "dev-1", "Alice",
		map[string]string{questionID: "U"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	conn := dialWS(t, server, "couponId="+couponID+"&deviceId=dev-1&name=Alice")
	defer conn.Close()
	readNext(conn, t, "scoreboard")

	if err := service.SetCorrectAnswer(context.Background(), couponID, questionID, "U"); err != nil {
		t.Fatalf("set facit: %v", err)
	}

	_, board := readNext(conn, t, "scoreboard")
	if board["graded"] != true {
		t.Fatalf("expected graded scoreboard push, got %v", board["graded"])
	}
	entries := board["entries"].([]any)
	entry := entries[0].(map[string]any)
	if entry["isWinner"] != true {
		t.Fatalf("expected sole submission to win, got %v", entry)
	}
}

func TestWebSocketRejectsMissingParams(t *testing.T) {
	server, _, _ := newWSTestServer(t)
	defer server.Close()

	resp, err := http.Get(server.URL + "/ws?couponId=only")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
