package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/punchamoorthee/spinledger/internal/domain"
	"github.com/punchamoorthee/spinledger/internal/payout"
	"github.com/punchamoorthee/spinledger/internal/ratelimit"
	"github.com/punchamoorthee/spinledger/internal/service"
	"go.uber.org/zap"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roulette_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "roulette_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "endpoint"})
)

// DefaultHistoryLimit caps a history listing when the caller gives no limit.
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

type Handler struct {
	engine  *service.Engine
	limiter ratelimit.Limiter
	log     *zap.Logger
}

func NewHandler(engine *service.Engine, limiter ratelimit.Limiter, log *zap.Logger) *Handler {
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{engine: engine, limiter: limiter, log: log}
}

// Routes mounts the public and authenticated endpoints on r.
func (h *Handler) Routes(r *mux.Router, auth mux.MiddlewareFunc) {
	r.Use(instrument)
	r.HandleFunc("/health", h.HealthCheckHandler).Methods(http.MethodGet)

	apiV1 := r.PathPrefix("/api/v1").Subrouter()
	apiV1.Use(auth)
	apiV1.HandleFunc("/accounts", h.OpenAccountHandler).Methods(http.MethodPost)
	apiV1.HandleFunc("/balance", h.GetBalanceHandler).Methods(http.MethodGet)
	apiV1.HandleFunc("/spins", h.SpinHandler).Methods(http.MethodPost)
	apiV1.HandleFunc("/rounds", h.GetHistoryHandler).Methods(http.MethodGet)
	apiV1.HandleFunc("/stats", h.GetStatsHandler).Methods(http.MethodGet)
}

func (h *Handler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) OpenAccountHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := AccountID(r.Context())

	acc, created, err := h.engine.OpenAccount(r.Context(), id)
	if err != nil {
		h.respondWithEngineError(w, err)
		return
	}
	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	respondWithJSON(w, code, acc)
}

func (h *Handler) GetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := AccountID(r.Context())

	balance, err := h.engine.GetBalance(r.Context(), id)
	if err != nil {
		h.respondWithEngineError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"account_id": id, "balance": balance})
}

// SpinRequest is the wire shape of a bet. The bet_* names are the legacy
// field names and are read when the primary ones are absent.
type SpinRequest struct {
	Amount    *domain.Amount `json:"amount"`
	Kind      string         `json:"kind"`
	Selector  Selector       `json:"selector"`
	BetAmount *domain.Amount `json:"bet_amount"`
	BetType   string         `json:"bet_type"`
	BetValue  Selector       `json:"bet_value"`
}

// Bet converts the request into a domain bet.
func (req SpinRequest) Bet() (domain.Bet, error) {
	var bet domain.Bet

	switch {
	case req.Amount != nil:
		bet.Amount = *req.Amount
	case req.BetAmount != nil:
		bet.Amount = *req.BetAmount
	}

	kind := req.Kind
	if kind == "" {
		kind = req.BetType
	}
	k, err := domain.ParseBetKind(kind)
	if err != nil {
		return bet, err
	}
	bet.Kind = k

	bet.Selector = string(req.Selector)
	if bet.Selector == "" {
		bet.Selector = string(req.BetValue)
	}
	return bet, nil
}

// Selector accepts a JSON string or number.
type Selector string

func (s *Selector) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = Selector(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return &domain.BetError{Reason: domain.ErrInvalidSelector, Detail: fmt.Sprintf("selector %s is neither string nor number", b)}
	}
	*s = Selector(n.String())
	return nil
}

// Legacy response names.
const (
	resultWin  = "win"
	resultLose = "lose"
)

// spinResponse carries winning_number and result for clients that read the
// legacy names; they mirror outcome and won.
type spinResponse struct {
	RoundID       string         `json:"round_id"`
	Outcome       int            `json:"outcome"`
	WinningNumber int            `json:"winning_number"`
	Color         payout.Color   `json:"color"`
	Won           bool           `json:"won"`
	Result        string         `json:"result"`
	Payout        domain.Amount  `json:"payout"`
	NewBalance    domain.Amount  `json:"new_balance"`
	Message       string         `json:"message"`
	Replayed      bool           `json:"replayed,omitempty"`
	Bet           map[string]any `json:"bet"`
}

func (h *Handler) SpinHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := AccountID(r.Context())

	allowed, err := h.limiter.Allow(r.Context(), id, "spin")
	if err != nil {
		h.log.Warn("rate limit check failed", zap.String("account_id", id), zap.Error(err))
	} else if !allowed {
		respondWithError(w, http.StatusTooManyRequests, "Too many spins. Please wait.")
		return
	}

	var req SpinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if domain.IsBetError(err) {
			respondWithBetError(w, err)
			return
		}
		respondWithError(w, http.StatusBadRequest, "Malformed JSON body")
		return
	}

	bet, err := req.Bet()
	if err != nil {
		respondWithBetError(w, err)
		return
	}
	bet.RequestKey = r.Header.Get("Idempotency-Key")

	res, err := h.engine.ResolveSpin(r.Context(), id, bet)
	if err != nil {
		h.respondWithEngineError(w, err)
		return
	}

	msg, result := "No win this time", resultLose
	if res.Won {
		msg, result = fmt.Sprintf("Won %s", res.Payout), resultWin
	}
	respondWithJSON(w, http.StatusOK, spinResponse{
		RoundID:       res.Round.ID,
		Outcome:       res.Outcome,
		WinningNumber: res.Outcome,
		Color:         payout.ColorOf(res.Outcome),
		Won:           res.Won,
		Result:        result,
		Payout:        res.Payout,
		NewBalance:    res.NewBalance,
		Message:       msg,
		Replayed:      res.Replayed,
		Bet: map[string]any{
			"amount":   res.Round.Amount,
			"kind":     res.Round.Kind,
			"selector": res.Round.Selector,
		},
	})
}

func (h *Handler) GetHistoryHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := AccountID(r.Context())

	limit := DefaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, MaxHistoryLimit)
	}

	rounds, err := h.engine.GetHistory(r.Context(), id, limit)
	if err != nil {
		h.respondWithEngineError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"rounds": rounds, "count": len(rounds)})
}

func (h *Handler) GetStatsHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := AccountID(r.Context())

	stats, err := h.engine.GetStats(r.Context(), id)
	if err != nil {
		h.respondWithEngineError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

var betReasons = map[error]string{
	domain.ErrInvalidAmount:     "invalid_amount",
	domain.ErrAboveCeiling:      "above_ceiling",
	domain.ErrInsufficientFunds: "insufficient_funds",
	domain.ErrInvalidSelector:   "invalid_selector",
	domain.ErrUnknownBetKind:    "unknown_bet_kind",
}

func respondWithBetError(w http.ResponseWriter, err error) {
	var be *domain.BetError
	errors.As(err, &be)
	respondWithJSON(w, http.StatusUnprocessableEntity, map[string]string{
		"error":  be.Error(),
		"reason": betReasons[be.Reason],
	})
}

func (h *Handler) respondWithEngineError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsBetError(err):
		respondWithBetError(w, err)
	case errors.Is(err, domain.ErrAccountNotFound):
		respondWithError(w, http.StatusNotFound, "Account not found")
	case domain.IsEngineError(err):
		w.Header().Set("Retry-After", "1")
		respondWithError(w, http.StatusServiceUnavailable, "Spin could not be recorded, nothing was charged. Please retry.")
	default:
		h.log.Error("request failed", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// instrument records request counts and latency per route template.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tpl
			}
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		httpRequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(rec.status)).Inc()
	})
}
