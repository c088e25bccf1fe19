package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/brojonat/influencechain/evm"
	"github.com/brojonat/influencechain/forms"
	"github.com/brojonat/influencechain/http/api"
	"github.com/brojonat/influencechain/internal/cache"
	"github.com/brojonat/influencechain/internal/config"
	"github.com/brojonat/influencechain/internal/stools"
	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.temporal.io/sdk/client"
)

// Deps are the long-lived collaborators the handlers share.
type Deps struct {
	Reader   evm.Reader
	Tx       *evm.TxBuilder
	Temporal client.Client
	Cache    cache.Store
	// Now is the clock used for fetchedAt and deadline checks.
	Now func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

// writeInternalError logs e and answers 500 with msg, never with e itself.
func writeInternalError(l *slog.Logger, w http.ResponseWriter, e error, msg ...string) {
	l.Error("internal error", "error", e.Error())
	resp := api.DefaultJSONResponse{Error: "internal error"}
	if len(msg) > 0 {
		resp.Error = msg[0]
	}
	writeJSONResponse(w, resp, http.StatusInternalServerError)
}

func writeBadRequestError(w http.ResponseWriter, err error) {
	resp := api.DefaultJSONResponse{Error: err.Error()}
	writeJSONResponse(w, resp, http.StatusBadRequest)
}

// writeValidationError answers 400 with the failing wizard step.
func writeValidationError(w http.ResponseWriter, err error) bool {
	var se *forms.StepError
	if !errors.As(err, &se) {
		return false
	}
	writeJSONResponse(w, api.ValidationErrorResponse{
		Error:  "Validation failed",
		Step:   se.Step,
		Name:   se.Name,
		Fields: se.Fields,
	}, http.StatusBadRequest)
	return true
}

func writeNotFoundError(w http.ResponseWriter) {
	resp := api.DefaultJSONResponse{Error: "not found"}
	writeJSONResponse(w, resp, http.StatusNotFound)
}

func writeUnauthorized(w http.ResponseWriter) {
	resp := api.DefaultJSONResponse{Error: "unauthorized"}
	writeJSONResponse(w, resp, http.StatusUnauthorized)
}

func writeJSONResponse(w http.ResponseWriter, resp interface{}, code int) {
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp)
}

// decodeBody decodes a JSON request and writes the 400 or 500 itself.
func decodeBody(l *slog.Logger, w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	err := stools.DecodeJSONBody(w, r, dst, 0)
	if err == nil {
		return true
	}
	if stools.IsClientError(err) {
		writeBadRequestError(w, err)
		return false
	}
	writeInternalError(l, w, err)
	return false
}

// NewHandler builds the routed, CORS-wrapped API.
func NewHandler(l *slog.Logger, cfg *config.Config, deps Deps) http.Handler {
	mux := http.NewServeMux()
	gsk := func() string { return cfg.Auth.SecretKey }
	limiter := NewRateLimiter(time.Minute, cfg.Server.RateLimit)
	if deps.Cache == nil {
		deps.Cache = cache.NopStore{}
	}

	// common is applied to every API route: request id, logging, metrics,
	// panic recovery, JSON content type and the per-IP rate limit.
	common := func(route string, extra ...stools.Middleware) []stools.Middleware {
		mws := []stools.Middleware{
			withRequestID(),
			withLogging(l),
			withMetrics(route),
			makeGraceful(l),
			setContentType("application/json"),
			setMaxBytesReader(cfg.Server.MaxBodySize),
			rateLimitMiddleware(limiter, cfg.Server.TrustProxy),
		}
		return append(mws, extra...)
	}
	cached := func(ttl time.Duration) stools.Middleware {
		return cache.Middleware(l, deps.Cache, ttl)
	}
	sudo := []stools.Middleware{
		atLeastOneAuth(bearerAuthorizerCtxSetToken(gsk)),
		requireStatus(UserStatusSudo),
	}

	mux.HandleFunc("GET /ping", stools.AdaptHandler(
		handlePing(),
		withLogging(l),
	))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /token", stools.AdaptHandler(
		handleIssueSudoToken(l, gsk, cfg.Auth.TokenTTL),
		common("/token", atLeastOneAuth(basicAuthorizerCtxSetEmail(gsk)))...,
	))

	// reads
	mux.HandleFunc("GET /api/campaigns/active", stools.AdaptHandler(
		handleGetActiveCampaigns(l, deps),
		common("/api/campaigns/active", cached(cache.ListTTL))...,
	))
	mux.HandleFunc("GET /api/campaigns", stools.AdaptHandler(
		handleListCampaigns(l, deps),
		common("/api/campaigns", cached(cache.ListTTL))...,
	))
	mux.HandleFunc("GET /api/campaigns/{id}", stools.AdaptHandler(
		handleGetCampaign(l, deps),
		common("/api/campaigns/{id}", cached(cache.CampaignTTL))...,
	))
	mux.HandleFunc("GET /api/campaigns/{id}/deposit", stools.AdaptHandler(
		handleGetCampaignDeposit(l, deps),
		common("/api/campaigns/{id}/deposit", cached(cache.CampaignTTL))...,
	))
	mux.HandleFunc("GET /api/stats", stools.AdaptHandler(
		handleGetStats(l, deps),
		common("/api/stats", cached(cache.StatsTTL))...,
	))
	mux.HandleFunc("GET /api/user/{address}", stools.AdaptHandler(
		handleGetUser(l, deps),
		common("/api/user/{address}", cached(cache.UserTTL))...,
	))
	mux.HandleFunc("GET /api/submissions/{id}", stools.AdaptHandler(
		handleGetSubmission(l, deps),
		common("/api/submissions/{id}", cached(cache.CampaignTTL))...,
	))
	mux.HandleFunc("GET /api/config", stools.AdaptHandler(
		handleGetConfig(l, deps),
		common("/api/config", cached(cache.StatsTTL))...,
	))

	// prepare: validate a draft and return the unsigned transactions
	mux.HandleFunc("POST /api/campaigns/prepare", stools.AdaptHandler(
		handlePrepareCampaign(l, deps),
		common("/api/campaigns/prepare")...,
	))
	mux.HandleFunc("POST /api/register/prepare", stools.AdaptHandler(
		handlePrepareRegistration(l, deps),
		common("/api/register/prepare")...,
	))
	mux.HandleFunc("POST /api/submissions/prepare", stools.AdaptHandler(
		handlePrepareSubmission(l, deps),
		common("/api/submissions/prepare")...,
	))
	mux.HandleFunc("POST /api/campaigns/{id}/accept/prepare", stools.AdaptHandler(
		handlePrepareAccept(l, deps),
		common("/api/campaigns/{id}/accept/prepare")...,
	))

	// verification jobs
	mux.HandleFunc("POST /api/submissions/{id}/verification", stools.AdaptHandler(
		handleStartVerification(l, deps, cfg.Temporal),
		append(common("/api/submissions/{id}/verification"), sudo...)...,
	))
	mux.HandleFunc("GET /api/submissions/{id}/verification", stools.AdaptHandler(
		handleGetVerification(l, deps),
		common("/api/submissions/{id}/verification")...,
	))

	return handlers.CORS(
		handlers.AllowedHeaders(cfg.CORS.Headers),
		handlers.AllowedMethods(cfg.CORS.Methods),
		handlers.AllowedOrigins(cfg.CORS.Origins),
		handlers.AllowCredentials(),
	)(mux)
}

// RunServer serves the API until ctx is cancelled.
func RunServer(ctx context.Context, logger *slog.Logger, cfg *config.Config, deps Deps) error {
	if cfg.Auth.SecretKey == "" {
		return fmt.Errorf("server startup error: AUTH_SECRET_KEY not set")
	}
	if len(cfg.CORS.Origins) == 1 && cfg.CORS.Origins[0] == "*" {
		logger.Warn("CORS configured to allow all origins (*)")
	}

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           NewHandler(logger, cfg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "port", cfg.Server.Port, "env", cfg.Server.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}
	logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// handlePing returns a handler for the ping endpoint
func handlePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSONResponse(w, api.DefaultJSONResponse{Message: "pong"}, http.StatusOK)
	}
}
