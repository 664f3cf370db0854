package http

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"kupong-service/internal/app"
	"kupong-service/internal/domain"
	"kupong-service/internal/odds"
)

// APIHandler serves the JSON REST surface: public reads for participants and
// token-gated admin mutations.
type APIHandler struct {
	service    *app.CouponService
	odds       odds.Provider
	adminToken string
}

func NewAPIHandler(service *app.CouponService, oddsProvider odds.Provider, adminToken string) *APIHandler {
	return &APIHandler{
		service:    service,
		odds:       oddsProvider,
		adminToken: adminToken,
	}
}

// Register wires all routes onto the mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /coupons", h.listActiveCoupons)
	mux.HandleFunc("GET /coupons/{id}/scoreboard", h.scoreboard)
	mux.HandleFunc("GET /players/{deviceId}/stats", h.playerStats)
	mux.HandleFunc("GET /leaderboard", h.leaderboard)

	mux.HandleFunc("GET /admin/matches", h.admin(h.listMatches))
	mux.HandleFunc("POST /admin/coupons", h.admin(h.createCoupon))
	mux.HandleFunc("GET /admin/coupons", h.admin(h.listCoupons))
	mux.HandleFunc("PUT /admin/coupons/{id}", h.admin(h.renameCoupon))
	mux.HandleFunc("DELETE /admin/coupons/{id}", h.admin(h.deleteCoupon))
	mux.HandleFunc("POST /admin/coupons/{id}/questions", h.admin(h.addQuestion))
	mux.HandleFunc("POST /admin/coupons/{id}/questions/from-match", h.admin(h.addQuestionFromMatch))
	mux.HandleFunc("PUT /admin/coupons/{id}/facit/{questionId}", h.admin(h.setCorrectAnswer))
	mux.HandleFunc("DELETE /admin/coupons/{id}/facit", h.admin(h.clearCorrectAnswers))
	mux.HandleFunc("DELETE /admin/submissions/{id}", h.admin(h.deleteSubmission))
}

// admin rejects requests without the configured bearer token. An empty
// configured token locks the admin surface entirely.
func (h *APIHandler) admin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if h.adminToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid admin token")
			return
		}
		next(w, r)
	}
}

func (h *APIHandler) listActiveCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.service.ListActiveCoupons(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, coupons)
}

func (h *APIHandler) scoreboard(w http.ResponseWriter, r *http.Request) {
	board, err := h.service.Scoreboard(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (h *APIHandler) playerStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.PlayerStats(r.Context(), r.PathValue("deviceId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *APIHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	topN := 10
	if raw := r.URL.Query().Get("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "top must be a positive integer")
			return
		}
		topN = n
	}
	lb, err := h.service.GlobalLeaderboard(r.Context(), topN)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

// listMatches lets the admin browse the provider's upcoming fixtures before
// turning one into a question.
func (h *APIHandler) listMatches(w http.ResponseWriter, r *http.Request) {
	if h.odds == nil {
		writeError(w, http.StatusServiceUnavailable, "odds provider not configured")
		return
	}
	matches, err := h.odds.ListMatches(r.Context())
	if err != nil {
		log.Printf("listing matches: %v", err)
		writeError(w, http.StatusBadGateway, "could not fetch matches")
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

type couponRequest struct {
	Title    string    `json:"title"`
	Deadline time.Time `json:"deadline"`
}

func (h *APIHandler) createCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Deadline.IsZero() {
		writeError(w, http.StatusBadRequest, "deadline is required")
		return
	}
	coupon, err := h.service.CreateCoupon(r.Context(), req.Title, req.Deadline)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, coupon)
}

func (h *APIHandler) listCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.service.ListCoupons(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, coupons)
}

func (h *APIHandler) renameCoupon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if err := h.service.RenameCoupon(r.Context(), r.PathValue("id"), req.Title); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) deleteCoupon(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCoupon(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type questionRequest struct {
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	OptionPoints []int    `json:"optionPoints"`
	MatchID      string   `json:"matchId"`
}

func (h *APIHandler) addQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if !decode(w, r, &req) {
		return
	}
	q, err := h.service.AddQuestion(r.Context(), r.PathValue("id"), req.Text, req.Options, req.OptionPoints, req.MatchID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

type matchQuestionRequest struct {
	MatchID  string `json:"matchId"`
	Text     string `json:"text"`
	HomeTeam string `json:"homeTeam"`
	AwayTeam string `json:"awayTeam"`
}

// addQuestionFromMatch builds a three-way question from the odds provider:
// the options are labelled with their point values and the weights follow the
// fetched odds.
func (h *APIHandler) addQuestionFromMatch(w http.ResponseWriter, r *http.Request) {
	if h.odds == nil {
		writeError(w, http.StatusServiceUnavailable, "odds provider not configured")
		return
	}
	var req matchQuestionRequest
	if !decode(w, r, &req) {
		return
	}
	if req.MatchID == "" || req.HomeTeam == "" || req.AwayTeam == "" {
		writeError(w, http.StatusBadRequest, "matchId, homeTeam and awayTeam are required")
		return
	}

	matchOdds, err := h.odds.MatchOdds(r.Context(), req.MatchID)
	if err != nil {
		log.Printf("fetching odds for match %s: %v", req.MatchID, err)
		writeError(w, http.StatusBadGateway, "could not fetch odds")
		return
	}
	points := odds.TranslateOdds(matchOdds)

	text := req.Text
	if text == "" {
		text = req.HomeTeam + " - " + req.AwayTeam
	}
	q, err := h.service.AddQuestion(r.Context(), r.PathValue("id"), text,
		odds.OptionsWithPoints(req.HomeTeam, req.AwayTeam, points),
		odds.PointsArray(points), req.MatchID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (h *APIHandler) setCorrectAnswer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value string `json:"value"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.service.SetCorrectAnswer(r.Context(), r.PathValue("id"), r.PathValue("questionId"), req.Value); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) clearCorrectAnswers(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearCorrectAnswers(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) deleteSubmission(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemoveSubmission(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorPayload{Message: msg})
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrCouponNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrSubmissionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrEmptyQuestionText),
		errors.Is(err, domain.ErrTooFewOptions),
		errors.Is(err, domain.ErrDuplicateOptions),
		errors.Is(err, domain.ErrInvalidOdds):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrDeadlinePassed):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
