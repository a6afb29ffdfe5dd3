package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"classboard/internal/agenda"
	"classboard/internal/auth"
	"classboard/pkg/interfaces"
	"classboard/pkg/types"
)

// Presence exposes connection statistics without coupling the API to the
// registry implementation.
type Presence interface {
	Stats() map[string]int
}

// Server is the HTTP boundary: agenda queries, personal event CRUD, health,
// and the websocket mount. No business logic lives here.
type Server struct {
	agenda    *agenda.Service
	store     interfaces.EventStore
	presence  Presence
	verifier  *auth.Verifier
	wsHandler http.HandlerFunc
}

func NewServer(agendaService *agenda.Service, store interfaces.EventStore, presence Presence, verifier *auth.Verifier, wsHandler http.HandlerFunc) *Server {
	return &Server{
		agenda:    agendaService,
		store:     store,
		presence:  presence,
		verifier:  verifier,
		wsHandler: wsHandler,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.wsHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/agenda", s.handleAgenda)
		r.Get("/agenda/grid", s.handleAgendaGrid)
		r.Post("/events", s.handleCreateEvent)
		r.Get("/events/{eventId}", s.handleGetEvent)
		r.Put("/events/{eventId}", s.handleUpdateEvent)
		r.Delete("/events/{eventId}", s.handleDeleteEvent)
	})

	return r
}

// Auth

type identityKey struct{}

// authMiddleware resolves the caller identity from the session token. The
// handlers below receive an already-authorized user id and never re-validate.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == "" || token == header {
			writeFailure(w, CodeUnauthorized, "missing bearer token")
			return
		}

		claims, err := s.verifier.Verify(token)
		if err != nil {
			writeFailure(w, CodeUnauthorized, "invalid session token")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func callerID(r *http.Request) string {
	userID, _ := r.Context().Value(identityKey{}).(string)
	return userID
}

// Agenda

type agendaResponse struct {
	Code   string         `json:"code"`
	Events *agenda.Result `json:"events"`
}

// handleAgenda serves GET /api/agenda?week=<token>.
func (s *Server) handleAgenda(w http.ResponseWriter, r *http.Request) {
	result, err := s.agenda.Agenda(r.Context(), callerID(r), r.URL.Query().Get("week"))
	if err != nil {
		s.writeAgendaError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agendaResponse{Code: CodeSuccess, Events: result})
}

type gridResponse struct {
	Code string                       `json:"code"`
	Days map[string]*agenda.DayBucket `json:"days"`
}

// handleAgendaGrid serves GET /api/agenda/grid?week=<token>, the per-day
// calendar projection.
func (s *Server) handleAgendaGrid(w http.ResponseWriter, r *http.Request) {
	grid, err := s.agenda.Grid(r.Context(), callerID(r), r.URL.Query().Get("week"))
	if err != nil {
		s.writeAgendaError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gridResponse{Code: CodeSuccess, Days: grid})
}

func (s *Server) writeAgendaError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, agenda.ErrInvalidRange):
		writeFailure(w, CodeBadRequest, "unparseable week start token")
	case errors.Is(err, interfaces.ErrUnauthorized):
		writeFailure(w, CodeUnauthorized, "no valid caller identity")
	default:
		log.Printf("Agenda request failed: %v", err)
		writeFailure(w, CodeInternalServerError, "agenda fetch failed")
	}
}

// Personal event CRUD

type eventRequest struct {
	Name     string    `json:"name"`
	Remark   string    `json:"remark"`
	Location string    `json:"location"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

type eventResponse struct {
	Code  string               `json:"code"`
	Event *types.PersonalEvent `json:"event"`
}

func decodeEventRequest(w http.ResponseWriter, r *http.Request) (*eventRequest, bool) {
	var req eventRequest
	if err := jsonDecode(r, &req); err != nil {
		writeFailure(w, CodeBadRequest, "invalid JSON body")
		return nil, false
	}
	if req.Start.IsZero() || req.End.IsZero() {
		writeFailure(w, CodeBadRequest, "start and end are required")
		return nil, false
	}
	if req.End.Before(req.Start) {
		writeFailure(w, CodeBadRequest, "event end precedes start")
		return nil, false
	}
	return &req, true
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeEventRequest(w, r)
	if !ok {
		return
	}

	event := &types.PersonalEvent{
		Event: types.Event{
			Name:     req.Name,
			Remark:   req.Remark,
			Location: req.Location,
			Start:    req.Start.UTC(),
			End:      req.End.UTC(),
		},
		UserID: callerID(r),
	}
	if err := s.store.CreatePersonalEvent(r.Context(), event); err != nil {
		log.Printf("Failed to create event: %v", err)
		writeFailure(w, CodeInternalServerError, "failed to create event")
		return
	}
	writeJSON(w, http.StatusOK, eventResponse{Code: CodeSuccess, Event: event})
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := s.store.GetPersonalEvent(r.Context(), chi.URLParam(r, "eventId"))
	if err != nil || event.UserID != callerID(r) {
		// Foreign events are indistinguishable from missing ones.
		if err != nil && !errors.Is(err, interfaces.ErrEventNotFound) {
			log.Printf("Failed to get event: %v", err)
			writeFailure(w, CodeInternalServerError, "failed to get event")
			return
		}
		writeFailure(w, CodeDoesNotExist, "event does not exist")
		return
	}
	writeJSON(w, http.StatusOK, eventResponse{Code: CodeSuccess, Event: event})
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeEventRequest(w, r)
	if !ok {
		return
	}

	event := &types.PersonalEvent{
		Event: types.Event{
			ID:       chi.URLParam(r, "eventId"),
			Name:     req.Name,
			Remark:   req.Remark,
			Location: req.Location,
			Start:    req.Start.UTC(),
			End:      req.End.UTC(),
		},
		UserID: callerID(r),
	}
	if err := s.store.UpdatePersonalEvent(r.Context(), event); err != nil {
		if errors.Is(err, interfaces.ErrEventNotFound) {
			writeFailure(w, CodeDoesNotExist, "event does not exist")
			return
		}
		log.Printf("Failed to update event: %v", err)
		writeFailure(w, CodeInternalServerError, "failed to update event")
		return
	}
	writeJSON(w, http.StatusOK, eventResponse{Code: CodeSuccess, Event: event})
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeletePersonalEvent(r.Context(), chi.URLParam(r, "eventId"), callerID(r))
	if err != nil {
		if errors.Is(err, interfaces.ErrEventNotFound) {
			writeFailure(w, CodeDoesNotExist, "event does not exist")
			return
		}
		log.Printf("Failed to delete event: %v", err)
		writeFailure(w, CodeInternalServerError, "failed to delete event")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"code": CodeSuccess})
}

// Health

type healthResponse struct {
	Status      string         `json:"status"`
	Timestamp   time.Time      `json:"timestamp"`
	Database    string         `json:"database"`
	Connections map[string]int `json:"connections"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, dbStatus := "healthy", "healthy"
	if err := s.store.HealthCheck(ctx); err != nil {
		status = "unhealthy"
		dbStatus = err.Error()
	}

	code := http.StatusOK
	if status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, healthResponse{
		Status:      status,
		Timestamp:   time.Now().UTC(),
		Database:    dbStatus,
		Connections: s.presence.Stats(),
	})
}
