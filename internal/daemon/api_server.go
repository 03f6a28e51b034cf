package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"clapper/internal/api"
	"clapper/internal/config"
	"clapper/internal/contact"
	"clapper/internal/logging"
	"clapper/internal/queue"
	"clapper/internal/services"
)

const (
	requestIDHeader     = "X-Request-ID"
	defaultListLimit    = 100
	submissionsPath     = "/api/contact/submissions"
	submissionsItemPath = "/api/contact/submissions/"
)

type apiServer struct {
	bind           string
	logger         *slog.Logger
	daemon         *Daemon
	relay          *contact.Relay
	submissions    *api.SubmissionService
	allowedOrigins []string
	maxBody        int64

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, errors.New("api server requires config and daemon")
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, errors.New("paths.api_bind is empty")
	}

	srv := &apiServer{
		bind:           bind,
		logger:         logging.NewComponentLogger(logger, "api-server"),
		daemon:         d,
		relay:          d.relay,
		submissions:    api.NewSubmissionService(d.store),
		allowedOrigins: cfg.Site.AllowedOrigins,
		maxBody:        cfg.Contact.MaxRequestBytes,
	}

	srv.server = &http.Server{
		Handler:           srv.routes(strings.TrimSpace(cfg.Paths.APIToken)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.SendTimeout() + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) routes(token string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/contact", s.handleContact)
	mux.HandleFunc("/api/status", s.requireToken(token, s.handleStatus))
	mux.HandleFunc(submissionsPath, s.requireToken(token, s.handleSubmissions))
	mux.HandleFunc(submissionsItemPath, s.requireToken(token, s.handleSubmission))
	mux.HandleFunc("/api/notifications/test", s.requireToken(token, s.handleTestNotification))
	return s.withRequestID(mux)
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.logger, "api server error", "api_serve_failed", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) address() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// withRequestID assigns every request an id, honouring a well-formed
// incoming X-Request-ID, and echoes it on the response.
func (s *apiServer) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), id)))
	})
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *apiServer) handleContact(w http.ResponseWriter, r *http.Request) {
	s.applyCORS(w, r)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	requestID, _ := services.RequestIDFromContext(r.Context())
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST, OPTIONS")
		s.writeJSON(w, http.StatusMethodNotAllowed, contact.Response{Success: false, Error: "Method not allowed", RequestID: requestID})
		return
	}

	var payload contact.Payload
	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		message := "Invalid request body."
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			message = "Your message is too long."
		}
		s.writeJSON(w, http.StatusBadRequest, contact.Response{Success: false, Error: message, RequestID: requestID})
		return
	}

	_, err := s.relay.Submit(r.Context(), payload, contact.Meta{RequestID: requestID, RemoteAddr: remoteIP(r)})
	if err != nil {
		status := services.HTTPStatus(err)
		if status != http.StatusBadRequest {
			status = http.StatusInternalServerError
		}
		s.writeJSON(w, status, contact.Response{
			Success:   false,
			Error:     services.UserMessage(err, contact.DeliveryFailedMessage),
			RequestID: requestID,
		})
		return
	}
	s.writeJSON(w, http.StatusOK, contact.Response{Success: true, Message: contact.SuccessMessage, RequestID: requestID})
}

func (s *apiServer) applyCORS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.allowedOrigins) == 0 {
		return
	}
	allowed := slices.Contains(s.allowedOrigins, "*") || slices.Contains(s.allowedOrigins, origin)
	if !allowed {
		return
	}
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", origin)
	h.Add("Vary", "Origin")
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, "+requestIDHeader)
	h.Set("Access-Control-Expose-Headers", requestIDHeader)
	h.Set("Access-Control-Max-Age", "600")
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	payload := api.DaemonStatus{
		Running:         status.Running,
		PID:             status.PID,
		DatabasePath:    status.DatabasePath,
		LockFilePath:    status.LockFilePath,
		RelayReady:      status.RelayReady,
		SubmissionStats: api.MergeStats(status.Stats),
		Checks:          api.FromChecks(status.Checks),
	}
	if !status.StartedAt.IsZero() {
		payload.StartedAt = status.StartedAt.Format(time.RFC3339)
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleSubmissions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	query := r.URL.Query()
	var statuses []queue.Status
	for _, value := range query["status"] {
		if strings.TrimSpace(value) == "" {
			continue
		}
		status, err := queue.ParseStatus(value)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		statuses = append(statuses, status)
	}
	limit := defaultListLimit
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.writeError(w, r, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	items, err := s.submissions.List(r.Context(), limit, statuses...)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.SubmissionListResponse{Items: items})
}

func (s *apiServer) handleSubmission(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	idStr := strings.TrimPrefix(r.URL.Path, submissionsItemPath)
	if idStr == "" || strings.Contains(idStr, "/") {
		s.writeError(w, r, http.StatusNotFound, "submission not found")
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid submission id")
		return
	}
	item, err := s.submissions.Describe(r.Context(), id)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	if item == nil {
		s.writeError(w, r, http.StatusNotFound, "submission not found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.SubmissionResponse{Item: *item})
}

func (s *apiServer) handleTestNotification(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sent, message, err := s.daemon.TestNotification(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusBadGateway, fmt.Sprintf("%s: %v", message, err))
		return
	}
	s.writeJSON(w, http.StatusOK, api.NotificationResponse{Sent: sent, Message: message})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	requestID, _ := services.RequestIDFromContext(r.Context())
	s.writeJSON(w, status, api.ErrorResponse{Error: message, RequestID: requestID})
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
