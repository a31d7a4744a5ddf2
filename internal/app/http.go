package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"corkboard/api/internal/auth"
	"corkboard/api/internal/events"
	"corkboard/api/internal/store"
)

type HTTPServer struct {
	service    *Service
	hub        *events.Hub
	corsOrigin string
}

func NewHTTPServer(service *Service, hub *events.Hub, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, hub: hub, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet, http.MethodHead)
	api.HandleFunc("/ready", s.handleReady).Methods(http.MethodGet, http.MethodHead)
	api.HandleFunc("/session", s.handleSession).Methods(http.MethodGet)
	api.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)

	p := api.PathPrefix("").Subrouter()
	p.Use(s.requireSession)

	p.HandleFunc("/projects", s.handleListProjects).Methods(http.MethodGet)
	p.HandleFunc("/projects", s.handleCreateProject).Methods(http.MethodPost)
	p.HandleFunc("/projects/{id}", s.handleGetProject).Methods(http.MethodGet)
	p.HandleFunc("/projects/{id}", s.handleUpdateProject).Methods(http.MethodPut)
	p.HandleFunc("/projects/{id}", s.handleDeleteProject).Methods(http.MethodDelete)
	p.HandleFunc("/projects/{id}/archive", s.handleArchiveProject).Methods(http.MethodPatch)
	p.HandleFunc("/projects/{id}/transfer", s.handleTransferProject).Methods(http.MethodPost)
	p.HandleFunc("/projects/{id}/members", s.handleAddMember).Methods(http.MethodPost)
	p.HandleFunc("/projects/{id}/members/{userID}", s.handleUpdateMember).Methods(http.MethodPut)
	p.HandleFunc("/projects/{id}/members/{userID}", s.handleRemoveMember).Methods(http.MethodDelete)
	p.HandleFunc("/projects/{id}/boards", s.handleListBoards).Methods(http.MethodGet)
	p.HandleFunc("/projects/{id}/activities", s.handleProjectActivity).Methods(http.MethodGet)

	p.HandleFunc("/boards", s.handleCreateBoard).Methods(http.MethodPost)
	p.HandleFunc("/boards/{id}", s.handleGetBoard).Methods(http.MethodGet)
	p.HandleFunc("/boards/{id}", s.handleUpdateBoard).Methods(http.MethodPut)
	p.HandleFunc("/boards/{id}", s.handleDeleteBoard).Methods(http.MethodDelete)
	p.HandleFunc("/boards/{id}/archive", s.handleArchiveBoard).Methods(http.MethodPatch)
	p.HandleFunc("/boards/{id}/labels", s.handleListLabels).Methods(http.MethodGet)
	p.HandleFunc("/boards/{id}/labels", s.handleCreateLabel).Methods(http.MethodPost)
	p.HandleFunc("/boards/{id}/lists", s.handleListLists).Methods(http.MethodGet)
	p.HandleFunc("/labels/{id}", s.handleUpdateLabel).Methods(http.MethodPut)
	p.HandleFunc("/labels/{id}", s.handleDeleteLabel).Methods(http.MethodDelete)

	p.HandleFunc("/lists", s.handleCreateList).Methods(http.MethodPost)
	p.HandleFunc("/lists/{id}", s.handleRenameList).Methods(http.MethodPut)
	p.HandleFunc("/lists/{id}", s.handleDeleteList).Methods(http.MethodDelete)
	p.HandleFunc("/lists/{id}/move", s.handleMoveList).Methods(http.MethodPatch)
	p.HandleFunc("/lists/{id}/archive", s.handleArchiveList).Methods(http.MethodPatch)
	p.HandleFunc("/lists/{id}/cards", s.handleListCards).Methods(http.MethodGet)

	p.HandleFunc("/cards", s.handleCreateCard).Methods(http.MethodPost)
	p.HandleFunc("/cards/{id}", s.handleGetCard).Methods(http.MethodGet)
	p.HandleFunc("/cards/{id}", s.handleUpdateCard).Methods(http.MethodPut)
	p.HandleFunc("/cards/{id}", s.handleDeleteCard).Methods(http.MethodDelete)
	p.HandleFunc("/cards/{id}/move", s.handleMoveCard).Methods(http.MethodPut)
	p.HandleFunc("/cards/{id}/assign", s.handleAssignCard).Methods(http.MethodPut)
	p.HandleFunc("/cards/{id}/assign/{userID}", s.handleUnassignCard).Methods(http.MethodDelete)
	p.HandleFunc("/cards/{id}/watch", s.handleWatchCard).Methods(http.MethodPut)
	p.HandleFunc("/cards/{id}/labels", s.handleSetCardLabels).Methods(http.MethodPut)
	p.HandleFunc("/cards/{id}/archive", s.handleArchiveCard).Methods(http.MethodPatch)
	p.HandleFunc("/cards/{id}/complete", s.handleCompleteCard).Methods(http.MethodPatch)
	p.HandleFunc("/cards/{id}/comments", s.handleAddComment).Methods(http.MethodPost)
	p.HandleFunc("/cards/{id}/comments/{commentID}", s.handleEditComment).Methods(http.MethodPut)
	p.HandleFunc("/cards/{id}/comments/{commentID}", s.handleDeleteComment).Methods(http.MethodDelete)
	p.HandleFunc("/cards/{id}/checklist", s.handleAddChecklistItem).Methods(http.MethodPost)
	p.HandleFunc("/cards/{id}/checklist/{itemID}", s.handleToggleChecklistItem).Methods(http.MethodPatch)
	p.HandleFunc("/cards/{id}/checklist/{itemID}", s.handleDeleteChecklistItem).Methods(http.MethodDelete)
	p.HandleFunc("/cards/{id}/time-entries", s.handleLogTime).Methods(http.MethodPost)
	p.HandleFunc("/cards/{id}/attachments", s.handleCreateAttachment).Methods(http.MethodPost)
	p.HandleFunc("/cards/{id}/attachments/{attID}/url", s.handleAttachmentURL).Methods(http.MethodGet)
	p.HandleFunc("/cards/{id}/attachments/{attID}", s.handleDeleteAttachment).Methods(http.MethodDelete)
	p.HandleFunc("/cards/{id}/activities", s.handleCardActivity).Methods(http.MethodGet)

	p.HandleFunc("/activities/dashboard", s.handleDashboardActivity).Methods(http.MethodGet)
	p.HandleFunc("/activities/user/{id}", s.handleActorActivity).Methods(http.MethodGet)
	p.HandleFunc("/activities/card/{id}", s.handleCardActivity).Methods(http.MethodGet)

	p.HandleFunc("/search", s.handleSearch).Methods(http.MethodGet)
	p.HandleFunc("/users", s.handleListUsers).Methods(http.MethodGet)
	p.HandleFunc("/users/{id}", s.handleGetUser).Methods(http.MethodGet)

	p.HandleFunc("/admin/users", s.handleListUsers).Methods(http.MethodGet)
	p.HandleFunc("/admin/users", s.handleCreateUser).Methods(http.MethodPost)
	p.HandleFunc("/admin/users/{id}/role", s.handleChangeOrgRole).Methods(http.MethodPut)
	p.HandleFunc("/admin/users/{id}/deactivate", s.handleDeactivateUser).Methods(http.MethodPatch)
	p.HandleFunc("/admin/users/{id}", s.handleDeleteUser).Methods(http.MethodDelete)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{s.corsOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
	})
	return s.withAccessLog(c.Handler(r))
}

// ---------------------------------------------------------------------------
// Middleware

type requestIDKey struct{}
type sessionKey struct{}

func (s *HTTPServer) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID, r.Method, r.URL.Path, writer.status, time.Since(started).Milliseconds())
	})
}

// requireSession authenticates the bearer token and stashes the session in
// the request context.
func (s *HTTPServer) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "authentication required", nil)
			return
		}
		session, err := s.service.SessionFromToken(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token", nil)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(r *http.Request) Session {
	session, _ := r.Context().Value(sessionKey{}).(Session)
	return session
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// ---------------------------------------------------------------------------
// Infrastructure handlers

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.service.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"success": false,
			"message": "database unavailable",
		})
		return
	}
	writeData(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (s *HTTPServer) handleSession(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeData(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	session, err := s.service.SessionFromToken(r.Context(), token)
	if err != nil {
		writeData(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	writeData(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"userId":        session.UserID,
		"userName":      session.UserName,
		"orgRole":       session.OrgRole,
	})
}

// handleWebSocket authenticates via bearer header or, for browser websocket
// clients that cannot set headers, a token query parameter.
func (s *HTTPServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	session, err := s.service.SessionFromToken(r.Context(), token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired token", nil)
		return
	}
	if s.hub == nil {
		writeError(w, http.StatusServiceUnavailable, "realtime not available", nil)
		return
	}
	s.hub.ServeWS(w, r, session.UserID)
}

// ---------------------------------------------------------------------------
// Helpers

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeData wraps successful payloads in the response envelope.
func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{"success": true, "data": data})
}

func writeError(w http.ResponseWriter, status int, message string, fields []FieldError) {
	response := map[string]any{
		"success": false,
		"message": message,
	}
	if len(fields) > 0 {
		response["errors"] = fields
	}
	writeJSON(w, status, response)
}

// respondError maps service errors onto the envelope. Unknown errors are
// logged with the request ID and surface as an opaque 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		writeError(w, domainErr.Status, domainErr.Message, domainErr.Fields)
		return
	}
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "not found", nil)
		return
	}
	if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrExpiredToken) {
		writeError(w, http.StatusUnauthorized, "invalid or expired token", nil)
		return
	}
	requestID, _ := r.Context().Value(requestIDKey{}).(string)
	log.Printf("request %s: %v", requestID, err)
	writeError(w, http.StatusInternalServerError, "internal error", nil)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return &DomainError{Status: http.StatusBadRequest, Message: "invalid JSON body"}
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return &DomainError{Status: http.StatusBadRequest, Message: "invalid JSON body"}
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func pathVar(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func pageParams(r *http.Request) (limit, offset int) {
	return queryInt(r, "limit", 50), queryInt(r, "offset", 0)
}
