package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hearthhub/hearthd/internal/auth"
	"github.com/hearthhub/hearthd/internal/billing"
	"github.com/hearthhub/hearthd/internal/metrics"
	"github.com/hearthhub/hearthd/internal/models"
	"github.com/hearthhub/hearthd/internal/service"
)

// Server provides the HTTP API.
type Server struct {
	coordinator *service.Coordinator
	verifier    *auth.Verifier
	logger      *logrus.Logger
	mux         *http.ServeMux
}

// NewServer creates a Server, registers all routes, and returns it.
func NewServer(coordinator *service.Coordinator, verifier *auth.Verifier, logger *logrus.Logger) *Server {
	s := &Server{coordinator: coordinator, verifier: verifier, logger: logger, mux: http.NewServeMux()}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (s *Server) routes() {
	// API – Invites
	s.handle("POST /api/invites/accept", s.handleAcceptInvite)
	s.handle("POST /api/invites", s.handleCreateInvite)
	s.handle("DELETE /api/invites/{id}", s.handleRevokeInvite)

	// API – Bootstrap aggregate
	s.handle("GET /api/bootstrap", s.handleBootstrap)

	// API – Profile and family management
	s.handle("PUT /api/profile", s.handleUpdateProfile)
	s.handle("PUT /api/families/{id}", s.handleRenameFamily)
	s.handle("DELETE /api/families/{id}", s.handleDeleteFamily)
	s.handle("DELETE /api/families/{id}/members/{profileID}", s.handleRemoveMember)
	s.handle("DELETE /api/families/{id}/calendars/{calendarID}", s.handleDeleteCalendar)

	// API – Task lists and items
	s.handle("GET /api/lists", s.handleGetLists)
	s.handle("POST /api/lists", s.handleCreateList)
	s.handle("DELETE /api/lists/{id}", s.handleDeleteList)
	s.handle("GET /api/lists/{id}/items", s.handleGetItems)
	s.handle("POST /api/lists/{id}/items", s.handleAddItem)
	s.handle("PUT /api/items/{id}/done", s.handleCompleteItem)
	s.handle("DELETE /api/items/{id}", s.handleDeleteItem)

	// API – Billing
	s.handle("GET /api/billing/plans", s.handleGetPlans)
	s.handle("POST /api/billing/checkout", s.handleCheckout)

	// Health
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// handle registers a pattern with request-duration instrumentation.
func (s *Server) handle(pattern string, h http.HandlerFunc) {
	parts := strings.SplitN(pattern, " ", 2)
	method, route := parts[0], parts[1]
	s.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		metrics.ObserveRequest(method, route, rec.status, time.Since(start))
	})
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
// JSON helpers
// ---------------------------------------------------------------------------

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.WithError(err).Error("failed to encode JSON response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps the service error taxonomy onto HTTP statuses.
func (s *Server) respondServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		s.respondError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, service.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrValidation):
		s.respondError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.WithError(err).Error(fallback)
		s.respondError(w, http.StatusInternalServerError, fallback)
	}
}

// decodeJSON reads the request body into dst and returns an error message on
// failure.  The caller should return immediately when ok == false.
func (s *Server) decodeJSON(r *http.Request, dst any) (ok bool, errMsg string) {
	if r.Body == nil {
		return false, "request body is empty"
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return false, fmt.Sprintf("invalid JSON: %v", err)
	}
	return true, ""
}

// pathID extracts the {id} path value and converts it to int64.
func pathID(r *http.Request) (int64, error) {
	return pathInt64(r, "id")
}

func pathInt64(r *http.Request, key string) (int64, error) {
	raw := r.PathValue(key)
	if raw == "" {
		return 0, fmt.Errorf("missing %s in path", key)
	}
	return strconv.ParseInt(raw, 10, 64)
}

// ---------------------------------------------------------------------------
// Invites
// ---------------------------------------------------------------------------

type acceptInviteRequest struct {
	Token string `json:"token"`
}

func (s *Server) handleAcceptInvite(w http.ResponseWriter, r *http.Request) {
	identity := s.verifier.FromRequest(r)
	if identity == nil {
		s.respondError(w, http.StatusUnauthorized, "missing or invalid identity")
		return
	}

	var req acceptInviteRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	result, err := s.coordinator.AcceptInvite(r.Context(), identity, req.Token)
	if err != nil {
		s.respondServiceError(w, err, "failed to accept invite")
		return
	}

	s.respondJSON(w, http.StatusOK, result)
}

type createInviteRequest struct {
	FamilyID int64  `json:"family_id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func (s *Server) handleCreateInvite(w http.ResponseWriter, r *http.Request) {
	identity := s.verifier.FromRequest(r)

	var req createInviteRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	invite, err := s.coordinator.CreateInvite(r.Context(), identity, req.FamilyID, req.Email, models.Role(req.Role))
	if err != nil {
		s.respondServiceError(w, err, "failed to create invite")
		return
	}

	s.respondJSON(w, http.StatusCreated, invite)
}

func (s *Server) handleRevokeInvite(w http.ResponseWriter, r *http.Request) {
	identity := s.verifier.FromRequest(r)

	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid invite id")
		return
	}

	if err := s.coordinator.RevokeInvite(r.Context(), identity, id); err != nil {
		s.respondServiceError(w, err, "failed to revoke invite")
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}

// ---------------------------------------------------------------------------
// Bootstrap
// ---------------------------------------------------------------------------

func (s *Server) handleBootstrap(w http.ResponseWriter, r *http.Request) {
	identity := s.verifier.FromRequest(r)

	var activeFamilyID int64
	if raw := r.URL.Query().Get("family_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "family_id must be an integer")
			return
		}
		activeFamilyID = id
	}

	view, err := s.coordinator.BootstrapFamily(r.Context(), identity, activeFamilyID)
	if err != nil {
		s.respondServiceError(w, err, "failed to bootstrap family")
		return
	}

	s.respondJSON(w, http.StatusOK, view)
}

// ---------------------------------------------------------------------------
// Profile and family management
// ---------------------------------------------------------------------------

type updateProfileRequest struct {
	DisplayName string `json:"display_name"`
	AvatarRef   string `json:"avatar_ref"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity := s.verifier.FromRequest(r)

	var req updateProfileRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	profile, err := s.coordinator.UpdateProfile(r.Context(), identity, service.UpdateProfileInput{
		DisplayName: req.DisplayName,
		AvatarRef:   req.AvatarRef,
	})
	if err != nil {
		s.respondServiceError(w, err, "failed to update profile")
		return
	}

	s.respondJSON(w, http.StatusOK, profile)
}

type renameFamilyRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleRenameFamily(w http.ResponseWriter, r *http.Request) {
	identity := s.verifier.FromRequest(r)

	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid family id")
		return
	}

	var req renameFamilyRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	family, err := s.coordinator.RenameFamily(r.Context(), identity, id, req.Name)
	if err != nil {
		s.respondServiceError(w, err, "failed to rename family")
		return
	}

	s.respondJSON(w, http.StatusOK, family)
}

func (s *Server) handleDeleteFamily(w http.ResponseWriter, r *http.Request) {
	identity := s.verifier.FromRequest(r)

	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid family id")
		return
	}

	if err := s.coordinator.DeleteFamily(r.Context(), identity, id); err != nil {
		s.respondServiceError(w, err, "failed to delete family")
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	identity := s.verifier.FromRequest(r)

	familyID, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid family id")
		return
	}
	profileID, err := pathInt64(r, "profileID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid profile id")
		return
	}

	if err := s.coordinator.RemoveMember(r.Context(), identity, familyID, profileID); err != nil {
		s.respondServiceError(w, err, "failed to remove member")
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDeleteCalendar(w http.ResponseWriter, r *http.Request) {
	identity := s.verifier.FromRequest(r)

	familyID, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid family id")
		return
	}
	calendarID, err := pathInt64(r, "calendarID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid calendar id")
		return
	}

	if err := s.coordinator.DeleteCalendar(r.Context(), identity, familyID, calendarID); err != nil {
		s.respondServiceError(w, err, "failed to delete calendar")
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}

// ---------------------------------------------------------------------------
// Task lists
// ---------------------------------------------------------------------------

func (s *Server) handleGetLists(w http.ResponseWriter, r *http.Request) {
	identity := s.verifier.FromRequest(r)

	familyID, err := strconv.ParseInt(r.URL.Query().Get("family_id"), 10, 64)
	if err != nil || familyID == 0 {
		s.respondError(w, http.StatusBadRequest, "family_id query parameter is required")
		return
	}

	lists, err := s.coordinator.ListTaskLists(r.Context(), identity, familyID)
	if err != nil {
		s.respondServiceError(w, err, "failed to get lists")
		return
	}

	s.respondJSON(w, http.StatusOK, lists)
}

type createListRequest struct {
	FamilyID  int64  `json:"family_id"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	SortOrder int    `json:"sort_order"`
}

func (s *Server) handleCreateList(w http.ResponseWriter, r *http.Request) {
	identity := s.verifier.FromRequest(r)

	var req createListRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	if req.FamilyID == 0 {
		s.respondError(w, http.StatusBadRequest, "family_id is required")
		return
	}

	list, err := s.coordinator.CreateTaskList(r.Context(), identity, service.CreateTaskListInput{
		FamilyID:  req.FamilyID,
		Name:      req.Name,
		Kind:      models.ListKind(req.Kind),
		SortOrder: req.SortOrder,
	})
	if err != nil {
		s.respondServiceError(w, err, "failed to create list")
		return
	}

	s.respondJSON(w, http.StatusCreated, list)
}

func (s *Server) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	identity := s.verifier.FromRequest(r)

	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid list id")
		return
	}

	if err := s.coordinator.DeleteTaskList(r.Context(), identity, id); err != nil {
		s.respondServiceError(w, err, "failed to delete list")
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}

// ---------------------------------------------------------------------------
// Task items
// ---------------------------------------------------------------------------

type addItemRequest struct {
	Title                  string `json:"title"`
	Notes                  string `json:"notes"`
	DueAt                  string `json:"due_at"` // RFC 3339
	AssigneeProfileID      *int64 `json:"assignee_profile_id"`
	Recurrence             string `json:"recurrence"`
	RecurrenceIntervalDays int    `json:"recurrence_interval_days"`
}

func (s *Server) handleGetItems(w http.ResponseWriter, r *http.Request) {
	identity := s.verifier.FromRequest(r)

	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid list id")
		return
	}

	items, err := s.coordinator.ListTaskItems(r.Context(), identity, id)
	if err != nil {
		s.respondServiceError(w, err, "failed to get items")
		return
	}

	s.respondJSON(w, http.StatusOK, items)
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	identity := s.verifier.FromRequest(r)

	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid list id")
		return
	}

	var req addItemRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	input := service.CreateTaskItemInput{
		Title:                  req.Title,
		Notes:                  req.Notes,
		AssigneeProfileID:      req.AssigneeProfileID,
		Recurrence:             models.Recurrence(req.Recurrence),
		RecurrenceIntervalDays: req.RecurrenceIntervalDays,
	}

	if req.DueAt != "" {
		t, err := time.Parse(time.RFC3339, req.DueAt)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "due_at must be RFC 3339 format")
			return
		}
		input.DueAt = &t
	}

	item, err := s.coordinator.CreateTaskItem(r.Context(), identity, id, input)
	if err != nil {
		s.respondServiceError(w, err, "failed to add item")
		return
	}

	s.respondJSON(w, http.StatusCreated, item)
}

func (s *Server) handleCompleteItem(w http.ResponseWriter, r *http.Request) {
	identity := s.verifier.FromRequest(r)

	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	result, err := s.coordinator.CompleteTaskItem(r.Context(), identity, id)
	if err != nil {
		s.respondServiceError(w, err, "failed to complete item")
		return
	}

	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	identity := s.verifier.FromRequest(r)

	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := s.coordinator.DeleteTaskItem(r.Context(), identity, id); err != nil {
		s.respondServiceError(w, err, "failed to delete item")
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}

// ---------------------------------------------------------------------------
// Billing
// ---------------------------------------------------------------------------

type checkoutRequest struct {
	FamilyID int64  `json:"family_id"`
	PriceKey string `json:"price_key"`
}

func (s *Server) handleGetPlans(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, billing.Plans)
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	identity := s.verifier.FromRequest(r)
	if identity == nil {
		s.respondError(w, http.StatusUnauthorized, "missing or invalid identity")
		return
	}

	var req checkoutRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	if req.FamilyID == 0 || req.PriceKey == "" {
		s.respondError(w, http.StatusBadRequest, "family_id and price_key are required")
		return
	}

	url, err := s.coordinator.CreateCheckoutSession(r.Context(), identity, req.FamilyID, billing.PriceKey(req.PriceKey))
	if err != nil {
		s.respondServiceError(w, err, "failed to create checkout session")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"url": url})
}
