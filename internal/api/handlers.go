package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/skillsync/skillsync/internal/core"
	"github.com/skillsync/skillsync/internal/logger"
	"github.com/skillsync/skillsync/internal/realtime"
	"github.com/skillsync/skillsync/internal/store"
	"github.com/skillsync/skillsync/internal/topics"
)

const maxListLimit = 100

// Store is the persistence the handlers use directly.
type Store interface {
	Ping(ctx context.Context) error
	EnsureUser(ctx context.Context, id, role, displayName string) (*store.User, error)
	ListTopics(ctx context.Context, category string, limit int) ([]store.Topic, error)
	FollowTopic(ctx context.Context, topicID int64, userID string) error
	UnfollowTopic(ctx context.Context, topicID int64, userID string) error
	FollowCompany(ctx context.Context, companyID, userID string) error
	UnfollowCompany(ctx context.Context, companyID, userID string) error
	ListNotifications(ctx context.Context, recipientID string, unreadOnly bool, limit int) ([]store.Notification, error)
	MarkNotificationRead(ctx context.Context, id, recipientID string) error
}

// Deps are the collaborators of APIHandler.
type Deps struct {
	Store       Store
	Internships *core.InternshipService
	Students    *core.StudentService
	Matching    *core.MatchingService
	// Bus feeds the notification stream. Streaming is unavailable when nil.
	Bus        realtime.Bus
	JWTSecret  string
	MatchLimit int
	Logger     *zap.Logger
}

type APIHandler struct {
	store       Store
	internships *core.InternshipService
	students    *core.StudentService
	matching    *core.MatchingService
	bus         realtime.Bus
	jwtSecret   string
	matchLimit  int
	log         *zap.Logger
}

func NewAPIHandler(d Deps) *APIHandler {
	limit := d.MatchLimit
	if limit < 1 {
		limit = 20
	}
	return &APIHandler{
		store:       d.Store,
		internships: d.Internships,
		students:    d.Students,
		matching:    d.Matching,
		bus:         d.Bus,
		jwtSecret:   d.JWTSecret,
		matchLimit:  limit,
		log:         logger.OrNop(d.Logger).With(zap.String("component", "api")),
	}
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.log.Error("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// postingError carries the outcome of a posting that was stored but not indexed.
type postingError struct {
	Error string `json:"error"`
	*core.PostingOutcome
}

func (h *APIHandler) CreateInternshipHandler(w http.ResponseWriter, r *http.Request) {
	var req core.InternshipInput
	if !decodeJSON(w, r, &req) {
		return
	}

	outcome, err := h.internships.CreateInternship(r.Context(), identity(r).UserID, req)
	if err != nil {
		if outcome != nil && outcome.Internship != nil {
			// The posting is stored even though indexing failed.
			writeJSON(w, statusFor(err), postingError{Error: err.Error(), PostingOutcome: outcome})
			return
		}
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, outcome)
}

func (h *APIHandler) GetInternshipHandler(w http.ResponseWriter, r *http.Request) {
	details, err := h.internships.GetInternship(r.Context(), chi.URLParam(r, "internshipID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (h *APIHandler) CloseInternshipHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "internshipID")
	if err := h.internships.CloseInternship(r.Context(), identity(r).UserID, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) ListCompanyInternshipsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := h.internships.ListCompanyInternships(r.Context(), identity(r).UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *APIHandler) CandidatesHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "internshipID")
	limit, err := queryLimit(r, h.matchLimit, maxListLimit)
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	if _, err := h.internships.OwnedInternship(r.Context(), identity(r).UserID, id); err != nil {
		h.writeError(w, r, err)
		return
	}

	matches, err := h.matching.CandidatesForInternship(r.Context(), id, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

func (h *APIHandler) ApplyHandler(w http.ResponseWriter, r *http.Request) {
	app, err := h.internships.Apply(r.Context(), identity(r).UserID, chi.URLParam(r, "internshipID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

type resumeRequest struct {
	ResumeText string `json:"resume_text"`
}

func (h *APIHandler) SaveResumeHandler(w http.ResponseWriter, r *http.Request) {
	var req resumeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	outcome, err := h.students.SaveResume(r.Context(), identity(r).UserID, req.ResumeText)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (h *APIHandler) RecommendationsHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, h.matchLimit, maxListLimit)
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	matches, err := h.matching.RecommendationsForStudent(r.Context(), identity(r).UserID, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

func (h *APIHandler) ExtractTopicsHandler(w http.ResponseWriter, r *http.Request) {
	var req topics.Posting
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.internships.PreviewTopics(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *APIHandler) ListTopicsHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, 50, maxListLimit)
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	list, err := h.store.ListTopics(r.Context(), category, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []store.Topic{}
	}
	writeJSON(w, http.StatusOK, list)
}

func topicID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "topicID"), 10, 64)
	return id, err == nil && id > 0
}

func (h *APIHandler) FollowTopicHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := topicID(r)
	if !ok {
		badRequest(w, "invalid topic id")
		return
	}
	if err := h.store.FollowTopic(r.Context(), id, identity(r).UserID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) UnfollowTopicHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := topicID(r)
	if !ok {
		badRequest(w, "invalid topic id")
		return
	}
	if err := h.store.UnfollowTopic(r.Context(), id, identity(r).UserID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) FollowCompanyHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.store.FollowCompany(r.Context(), chi.URLParam(r, "companyID"), identity(r).UserID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) UnfollowCompanyHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.store.UnfollowCompany(r.Context(), chi.URLParam(r, "companyID"), identity(r).UserID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) ListNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, 50, maxListLimit)
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	unreadOnly := false
	if raw := r.URL.Query().Get("unread"); raw != "" {
		if unreadOnly, err = strconv.ParseBool(raw); err != nil {
			badRequest(w, "unread must be a boolean")
			return
		}
	}

	list, err := h.store.ListNotifications(r.Context(), identity(r).UserID, unreadOnly, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []store.Notification{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *APIHandler) MarkNotificationReadHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.store.MarkNotificationRead(r.Context(), chi.URLParam(r, "notificationID"), identity(r).UserID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
