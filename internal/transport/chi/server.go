// Package chi exposes the HTTP API: document ingestion, semantic
// search, question answering, and explanation extraction, plus health
// and metrics endpoints.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/inquira/inquira/internal/domain"
	"github.com/inquira/inquira/internal/logger"
	"github.com/inquira/inquira/internal/metrics"
	explainuc "github.com/inquira/inquira/internal/usecase/explain"
	ingestuc "github.com/inquira/inquira/internal/usecase/ingest"
	qauc "github.com/inquira/inquira/internal/usecase/qa"
	searchuc "github.com/inquira/inquira/internal/usecase/search"
)

// Error codes returned to clients.
const (
	codeBadRequest        = "bad_request"
	codeValidationFailed  = "validation_failed"
	codeInvalidCredential = "invalid_credential"
	codeUnknownProvider   = "unknown_provider"
	codeProviderError     = "provider_error"
	codeRetrievalError    = "retrieval_error"
	codeContextLength     = "context_length_exceeded"
	codeNotImplemented    = "not_implemented"
	codeInternalError     = "internal_error"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Pinger reports vector store connectivity for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server wires the usecase services into HTTP handlers.
type Server struct {
	ingest        *ingestuc.Service
	search        *searchuc.Service
	qa            *qauc.Service
	explain       *explainuc.Service
	store         Pinger
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	ingest *ingestuc.Service,
	search *searchuc.Service,
	qa *qauc.Service,
	explain *explainuc.Service,
	store Pinger,
	logger *zap.Logger,
) *Server {
	s := &Server{
		ingest:  ingest,
		search:  search,
		qa:      qa,
		explain: explain,
		store:   store,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrInvalidCredential, http.StatusBadRequest, codeInvalidCredential),
		sentinelHandler(domain.ErrUnknownProvider, http.StatusBadRequest, codeUnknownProvider),
		sentinelHandler(domain.ErrTemplateNotFound, http.StatusInternalServerError, codeInternalError),
		sentinelHandler(domain.ErrExplainNotSupported, http.StatusNotImplemented, codeNotImplemented),
		sentinelHandler(domain.ErrContextLength, http.StatusBadGateway, codeContextLength),
		sentinelHandler(domain.ErrRetrieval, http.StatusBadGateway, codeRetrievalError),
		sentinelHandler(domain.ErrEmptyResponse, http.StatusBadGateway, codeProviderError),
		sentinelHandler(domain.ErrProviderCall, http.StatusBadGateway, codeProviderError),
	}
	return s
}

// Routes builds the router with logging, metrics, and auth middleware.
func (s *Server) Routes(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(metrics.Middleware())
	r.Use(BearerAuthMiddleware(apiKeys))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/collections/{collection}", func(r chi.Router) {
		r.Post("/", s.handleCreateCollection)
		r.Post("/documents", s.handleIngestDocuments)
		r.Post("/text", s.handleIngestText)
		r.Post("/search", s.handleSearch)
		r.Post("/qa", s.handleQA)
		r.Post("/explanations", s.handleExplain)
	})

	return r
}

type createCollectionRequest struct {
	Provider string `json:"provider"`
	Token    string `json:"token"`
}

func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var req createCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	p, err := domain.ParseProvider(req.Provider)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	if err := s.ingest.CreateCollection(r.Context(), p, req.Token, collectionParam(r)); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"collection": collectionParam(r)})
}

type documentPayload struct {
	Content  string `json:"content"`
	Metadata string `json:"metadata"`
}

type ingestDocumentsRequest struct {
	Provider  string            `json:"provider"`
	Token     string            `json:"token"`
	Documents []documentPayload `json:"documents"`
}

type ingestResponse struct {
	Stored int `json:"stored"`
}

func (s *Server) handleIngestDocuments(w http.ResponseWriter, r *http.Request) {
	var req ingestDocumentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	p, err := domain.ParseProvider(req.Provider)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	docs := make([]domain.Document, len(req.Documents))
	for i, d := range req.Documents {
		docs[i] = domain.Document{Content: d.Content, Metadata: d.Metadata}
	}

	n, err := s.ingest.IngestDocuments(r.Context(), p, req.Token, collectionParam(r), docs)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ingestResponse{Stored: n})
}

type ingestTextRequest struct {
	Provider  string `json:"provider"`
	Token     string `json:"token"`
	Name      string `json:"name"`
	Text      string `json:"text"`
	Separator string `json:"separator"`
}

func (s *Server) handleIngestText(w http.ResponseWriter, r *http.Request) {
	var req ingestTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	p, err := domain.ParseProvider(req.Provider)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "name is required")
		return
	}

	n, err := s.ingest.IngestText(r.Context(), p, req.Token, collectionParam(r), req.Name, req.Text, req.Separator)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ingestResponse{Stored: n})
}

type searchRequest struct {
	Query    string `json:"query"`
	Provider string `json:"provider"`
	Token    string `json:"token"`
	Amount   *int   `json:"amount"`
}

type scoredDocumentPayload struct {
	Content  string  `json:"content"`
	Metadata string  `json:"metadata"`
	Score    float64 `json:"score"`
}

type searchResponse struct {
	Documents []scoredDocumentPayload `json:"documents"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	params, err := searchParams(req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	docs, err := s.search.Search(r.Context(), params, collectionParam(r))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Documents: scoredToPayload(docs)})
}

type qaRequest struct {
	Query     string `json:"query"`
	Provider  string `json:"provider"`
	Token     string `json:"token"`
	Amount    *int   `json:"amount"`
	Summarize bool   `json:"summarize"`
}

type qaResponse struct {
	Answer    string                  `json:"answer"`
	Prompt    string                  `json:"prompt"`
	Documents []scoredDocumentPayload `json:"documents"`
}

func (s *Server) handleQA(w http.ResponseWriter, r *http.Request) {
	var req qaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	params, err := searchParams(searchRequest{Query: req.Query, Provider: req.Provider, Token: req.Token, Amount: req.Amount})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	result, err := s.qa.Ask(r.Context(), params, collectionParam(r), req.Summarize)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, qaResponse{
		Answer:    result.Answer,
		Prompt:    result.Prompt,
		Documents: scoredToPayload(result.Documents),
	})
}

type explainRequest struct {
	Provider string `json:"provider"`
	Token    string `json:"token"`
	Prompt   string `json:"prompt"`
	Output   string `json:"output"`
	TopK     int    `json:"top_k"`
}

type explainResponse struct {
	Explanation *domain.Explanation `json:"explanation"`
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	var req explainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	p, err := domain.ParseProvider(req.Provider)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	// top_k omitted or non-positive means no truncation.
	explanation, err := s.explain.Explain(r.Context(), p, req.Token, collectionParam(r), req.Prompt, req.Output, req.TopK)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, explainResponse{Explanation: explanation})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func collectionParam(r *http.Request) string {
	return chi.URLParam(r, "collection")
}

func searchParams(req searchRequest) (domain.SearchParams, error) {
	p, err := domain.ParseProvider(req.Provider)
	if err != nil {
		return domain.SearchParams{}, err
	}

	// Absent amount defaults to 1; an explicit value is validated as
	// given, including zero.
	amount := 1
	if req.Amount != nil {
		amount = *req.Amount
	}
	return domain.SearchParams{
		Query:    req.Query,
		Provider: p,
		Token:    req.Token,
		Amount:   amount,
	}, nil
}

func scoredToPayload(docs []domain.ScoredDocument) []scoredDocumentPayload {
	out := make([]scoredDocumentPayload, len(docs))
	for i, d := range docs {
		out[i] = scoredDocumentPayload{
			Content:  d.Document.Content,
			Metadata: d.Document.Metadata,
			Score:    d.Score,
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client
// without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidInput,
		domain.ErrInvalidCredential,
		domain.ErrUnknownProvider,
		domain.ErrTemplateNotFound,
		domain.ErrExplainNotSupported,
		domain.ErrContextLength,
		domain.ErrRetrieval,
		domain.ErrEmptyResponse,
		domain.ErrProviderCall,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// requestLogger stores a request-scoped logger carrying the request id.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := s.logger.With(zap.String("request_id", middleware.GetReqID(r.Context())))
		next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context(), l)))
	})
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	l := logger.FromContext(r.Context())
	l.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	l.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
