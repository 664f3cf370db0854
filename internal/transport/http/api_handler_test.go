package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kupong-service/internal/app"
	"kupong-service/internal/domain"
	"kupong-service/internal/infra/memory"
	"kupong-service/internal/notify"
	"kupong-service/internal/odds"
)

const testAdminToken = "test-token"

func newAPITestServer(t *testing.T) (*httptest.Server, *app.CouponService) {
	t.Helper()
	store := memory.NewStore()
	bus := notify.NewMemoryBus()
	service := app.NewCouponService(store, nil, bus, 5*time.Minute)

	provider := &odds.StaticProvider{
		Matches: []odds.Match{
			{ID: "m1", HomeTeam: "Rosenborg", AwayTeam: "Molde", League: "Eliteserien", StartTime: time.Now().Add(48 * time.Hour)},
			{ID: "m2", HomeTeam: "Vålerenga", AwayTeam: "Lillestrøm", League: "Eliteserien", StartTime: time.Now().Add(49 * time.Hour)},
		},
		Odds: map[string]odds.MatchOdds{
			"m1": {MatchID: "m1", HomeWin: 1.20, Draw: 2.00, AwayWin: 10.00},
		},
	}

	mux := http.NewServeMux()
	NewAPIHandler(service, provider, testAdminToken).Register(mux)
	return httptest.NewServer(mux), service
}

func doJSON(t *testing.T, method, url string, body any, token string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestAdminRequiresToken(t *testing.T) {
	server, _ := newAPITestServer(t)
	defer server.Close()

	body := map[string]any{"title": "Runde 12", "deadline": time.Now().Add(time.Hour)}

	resp := doJSON(t, http.MethodPost, server.URL+"/admin/coupons", body, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, server.URL+"/admin/coupons", body, "wrong")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong token: expected 401, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, server.URL+"/admin/coupons", body, testAdminToken)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("valid token: expected 201, got %d", resp.StatusCode)
	}
}

func TestCouponLifecycleOverREST(t *testing.T) {
	server, service := newAPITestServer(t)
	defer server.Close()

	resp := doJSON(t, http.MethodPost, server.URL+"/admin/coupons",
		map[string]any{"title": "Runde 12", "deadline": time.Now().Add(time.Hour)}, testAdminToken)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create coupon: expected 201, got %d", resp.StatusCode)
	}
	coupon := decodeBody[domain.Coupon](t, resp)

	resp = doJSON(t, http.MethodPost, server.URL+"/admin/coupons/"+coupon.ID+"/questions",
		map[string]any{"text": "RBK - MOL", "options": []string{"H", "U", "B"}}, testAdminToken)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add question: expected 201, got %d", resp.StatusCode)
	}
	question := decodeBody[domain.Question](t, resp)

	if _, err := service.Submit(context.Background(), coupon.ID, "dev-1", "Alice",
		map[string]string{question.ID: "H"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	resp = doJSON(t, http.MethodPut, server.URL+"/admin/coupons/"+coupon.ID+"/facit/"+question.ID,
		map[string]any{"value": "H"}, testAdminToken)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("set facit: expected 204, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, server.URL+"/coupons/"+coupon.ID+"/scoreboard", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("scoreboard: expected 200, got %d", resp.StatusCode)
	}
	board := decodeBody[app.Scoreboard](t, resp)
	if !board.Graded || len(board.Entries) != 1 || !board.Entries[0].IsWinner {
		t.Fatalf("expected graded board with one winner, got %+v", board)
	}

	resp = doJSON(t, http.MethodDelete, server.URL+"/admin/coupons/"+coupon.ID, nil, testAdminToken)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete coupon: expected 204, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, server.URL+"/coupons/"+coupon.ID+"/scoreboard", nil, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("deleted coupon: expected 404, got %d", resp.StatusCode)
	}
}

func TestAdminBrowsesProviderMatches(t *testing.T) {
	server, _ := newAPITestServer(t)
	defer server.Close()

	resp := doJSON(t, http.MethodGet, server.URL+"/admin/matches", nil, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, server.URL+"/admin/matches", nil, testAdminToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	matches := decodeBody[[]odds.Match](t, resp)
	if len(matches) != 2 {
		t.Fatalf("expected 2 fixtures, got %d", len(matches))
	}
	if matches[0].ID != "m1" || matches[0].HomeTeam != "Rosenborg" || matches[0].League != "Eliteserien" {
		t.Fatalf("unexpected fixture %+v", matches[0])
	}
	if matches[1].StartTime.IsZero() {
		t.Fatalf("fixture start time lost in transit: %+v", matches[1])
	}
}

func TestQuestionFromMatchOdds(t *testing.T) {
	server, service := newAPITestServer(t)
	defer server.Close()

	coupon, err := service.CreateCoupon(context.Background(), "Runde 12", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("create coupon: %v", err)
	}

	resp := doJSON(t, http.MethodPost, server.URL+"/admin/coupons/"+coupon.ID+"/questions/from-match",
		map[string]any{"matchId": "m1", "homeTeam": "Rosenborg", "awayTeam": "Molde"}, testAdminToken)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	question := decodeBody[domain.Question](t, resp)

	if question.Text != "Rosenborg - Molde" {
		t.Fatalf("unexpected question text %q", question.Text)
	}
	wantOptions := []string{"Rosenborg (1p)", "Uavgjort (3p)", "Molde (7p)"}
	for i, opt := range wantOptions {
		if question.Options[i] != opt {
			t.Fatalf("option %d: got %q, want %q", i, question.Options[i], opt)
		}
	}
	wantPoints := []int{1, 3, 7}
	for i, p := range wantPoints {
		if question.OptionPoints[i] != p {
			t.Fatalf("points %d: got %d, want %d", i, question.OptionPoints[i], p)
		}
	}

	resp = doJSON(t, http.MethodPost, server.URL+"/admin/coupons/"+coupon.ID+"/questions/from-match",
		map[string]any{"matchId": "unknown", "homeTeam": "A", "awayTeam": "B"}, testAdminToken)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("unknown match: expected 502, got %d", resp.StatusCode)
	}
}

func TestValidationErrorsMapTo400(t *testing.T) {
	server, service := newAPITestServer(t)
	defer server.Close()

	coupon, err := service.CreateCoupon(context.Background(), "Runde 12", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("create coupon: %v", err)
	}

	cases := []map[string]any{
		{"text": "", "options": []string{"H", "U"}},
		{"text": "RBK - MOL", "options": []string{"H"}},
		{"text": "RBK - MOL", "options": []string{"H", "H"}},
	}
	for i, body := range cases {
		resp := doJSON(t, http.MethodPost, server.URL+"/admin/coupons/"+coupon.ID+"/questions", body, testAdminToken)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("case %d: expected 400, got %d", i, resp.StatusCode)
		}
	}
}

func TestLeaderboardTopParam(t *testing.T) {
	server, _ := newAPITestServer(t)
	defer server.Close()

	resp := doJSON(t, http.MethodGet, server.URL+"/leaderboard?top=abc", nil, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad top: expected 400, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, server.URL+"/leaderboard?top=3", nil, "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
