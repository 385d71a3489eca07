package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/arkwith7/abekm/internal/domain"
	"github.com/arkwith7/abekm/internal/domain/search/candidate"
	"github.com/arkwith7/abekm/internal/domain/search/mode"
	"github.com/arkwith7/abekm/internal/domain/search/request"
	"github.com/arkwith7/abekm/internal/domain/search/result"
	"github.com/arkwith7/abekm/internal/metrics"
	healthuc "github.com/arkwith7/abekm/internal/usecase/health"
)

// maxBodyBytes bounds a search request body. A 4096-byte query plus a large image embedding fit well below it.
const maxBodyBytes = 1 << 20

// EmbeddingTokensHeader reports the embedding tokens a search consumed.
const EmbeddingTokensHeader = "X-Embedding-Tokens"

// ErrorCode is the machine-readable error code in an ErrorResponse.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeRequestCancelled ErrorCode = "request_cancelled"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchRequest is the JSON body of POST /v1/search.
type SearchRequest struct {
	Query          string    `json:"query"`
	Containers     []string  `json:"containers,omitempty"`
	Mode           string    `json:"mode,omitempty"`
	Modalities     []string  `json:"modalities,omitempty"`
	Limit          int       `json:"limit,omitempty"`
	ImageEmbedding []float32 `json:"image_embedding,omitempty"`
}

// HealthResponse is the JSON body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Searcher is the consumer interface for the search use case.
type Searcher interface {
	Search(ctx context.Context, req *request.Request) (result.Response, error)
}

// HealthChecker is the consumer interface for the health use case.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the search HTTP API.
type Server struct {
	search        Searcher
	health        HealthChecker
	gatherer      prometheus.Gatherer
	logger        *zap.Logger
	errorHandlers []errorHandler
	defaultLimit  int
	maxLimit      int
}

// NewServer creates an HTTP API server. A nil gatherer serves the default registry.
func NewServer(search Searcher, health HealthChecker, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		search:   search,
		health:   health,
		gatherer: gatherer,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(context.Canceled, http.StatusServiceUnavailable, ErrorCodeRequestCancelled),
		sentinelHandler(context.DeadlineExceeded, http.StatusServiceUnavailable, ErrorCodeRequestCancelled),
	}
	return s
}

// WithLimits sets the limit applied when a request omits one and the largest limit honored.
// Non-positive values keep the request package defaults.
func (s *Server) WithLimits(defaultLimit, maxLimit int) *Server {
	s.defaultLimit = defaultLimit
	s.maxLimit = maxLimit
	return s
}

func (s *Server) limit(requested int) int {
	if requested <= 0 && s.defaultLimit > 0 {
		requested = s.defaultLimit
	}
	if s.maxLimit > 0 && requested > s.maxLimit {
		requested = s.maxLimit
	}
	return requested
}

// Routes mounts the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Post("/v1/search", s.Search)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Search handles POST /v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, "missing "+UserIDHeader+" header")
		return
	}

	var body SearchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	body.Limit = s.limit(body.Limit)
	req, err := searchRequestFromBody(body, userID)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	resp, err := s.search.Search(ctx, &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	if len(resp.Degraded) > 0 {
		w.Header().Set(metrics.DegradedHeader, strings.Join(resp.Degraded, ","))
	}
	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

func searchRequestFromBody(body SearchRequest, userID string) (request.Request, error) {
	var modalities []candidate.Modality
	for _, m := range body.Modalities {
		modalities = append(modalities, candidate.Modality(m))
	}
	return request.New(
		body.Query, userID, body.Containers, mode.Mode(body.Mode),
		modalities, body.Limit, body.ImageEmbedding,
	)
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage.Used() {
		w.Header().Set(EmbeddingTokensHeader, strconv.Itoa(usage.TotalTokens()))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-safe message without exposing internals.
func safeDomainMessage(err error) string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	sentinels := []error{
		domain.ErrInvalidRequest,
		context.Canceled,
		context.DeadlineExceeded,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
