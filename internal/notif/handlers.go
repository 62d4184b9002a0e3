package notif

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"cleanuptracker/internal/common"
	"cleanuptracker/internal/config"
	"cleanuptracker/internal/dbmysql"
)

type Handler struct {
	cfg         *config.Config
	dispatcher  *Dispatcher
	coordinator *Coordinator
	store       Store
	directory   Directory
	registry    *Registry
	tokens      *common.TokenManager
	upgrader    websocket.Upgrader
	log         *zap.SugaredLogger
}

func NewHandler(
	cfg *config.Config,
	dispatcher *Dispatcher,
	coordinator *Coordinator,
	store Store,
	directory Directory,
	registry *Registry,
	tokens *common.TokenManager,
	log *zap.SugaredLogger,
) *Handler {
	return &Handler{
		cfg:         cfg,
		dispatcher:  dispatcher,
		coordinator: coordinator,
		store:       store,
		directory:   directory,
		registry:    registry,
		tokens:      tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: log.Named("http"),
	}
}

// RegisterRoutes mounts the JSON API under /api/v1 and the live channel at /ws.
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/ws", h.ServeWS)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", h.HealthCheck).Methods("GET")

	events := api.PathPrefix("/events").Subrouter()
	events.HandleFunc("", h.SubmitEvent).Methods("POST")
	events.HandleFunc("", h.ListEvents).Methods("GET")
	events.HandleFunc("/{eventID:[0-9]+}", h.GetEvent).Methods("GET")
	events.HandleFunc("/{eventID:[0-9]+}/join", h.JoinEvent).Methods("POST")

	notifications := api.PathPrefix("/notifications").Subrouter()
	notifications.HandleFunc("/users/{userID}", h.GetUserNotifications).Methods("GET")
	notifications.HandleFunc("/users/{userID}/unread-count", h.UnreadCount).Methods("GET")
	notifications.HandleFunc("/users/{userID}/read-all", h.MarkAllRead).Methods("PUT")
	notifications.HandleFunc("/{notificationID}/read", h.MarkAsRead).Methods("PUT")

	api.HandleFunc("/admin/dashboard", h.Dashboard).Methods("GET")
}

type submitEventResponse struct {
	EventID  uint64 `json:"event_id"`
	Notified int    `json:"notified"`
	Warning  string `json:"warning,omitempty"`
}

func (h *Handler) SubmitEvent(w http.ResponseWriter, r *http.Request) {
	var draft common.EventDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.dispatcher.SubmitEvent(r.Context(), draft)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	resp := submitEventResponse{EventID: res.EventID, Notified: res.Notified}
	if res.Degraded != nil {
		resp.Warning = res.Degraded.Error()
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.directory.ListEvents(r.Context())
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}

	ev, err := h.directory.EventByID(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

type joinEventRequest struct {
	UserID string `json:"userId"`
}

// JoinEvent records participation and pushes a confirmation to the user's
// live channel. With token signing enabled the user comes from the token.
func (h *Handler) JoinEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}

	var req joinEventRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	userID := strings.TrimSpace(req.UserID)
	if h.tokens.Enabled() {
		var err error
		if userID, err = common.ResolveIdentity(r, h.tokens); err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
	}
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	ev, err := h.directory.JoinEvent(r.Context(), eventID, userID)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	n := dbmysql.Notification{
		UserID:  userID,
		EventID: &ev.EventID,
		Kind:    common.KindParticipation,
		Message: common.ParticipationMessage(ev.EventName),
	}
	if err := h.store.CreateNotification(r.Context(), &n); err != nil {
		h.log.Warnw("participation notification not stored", "user", userID, "event", eventID, "error", err)
	} else {
		h.coordinator.Deliver(userID, n)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Successfully joined the event.",
		"event_id": ev.EventID,
	})
}

// GetUserNotifications is the pull counterpart of the reconnect sync.
func (h *Handler) GetUserNotifications(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	payload, err := h.coordinator.Sync(r.Context(), userID)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	count, err := h.directory.UnreadCount(r.Context(), userID)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user_id": userID, "unread": count})
}

// MarkAsRead answers 200 for unknown and already-read ids alike.
func (h *Handler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "notificationID")
	if !ok {
		return
	}

	if _, err := h.store.MarkRead(r.Context(), id); err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Notification marked as read"})
}

func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	updated, err := h.directory.MarkAllRead(r.Context(), userID)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": updated})
}

type dashboardResponse struct {
	common.DashboardCounts
	ConnectedUsers int `json:"connectedUsers"`
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	counts, err := h.directory.Counts(r.Context())
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboardResponse{DashboardCounts: counts, ConnectedUsers: h.registry.Len()})
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "cleanuptracker-notifications"})
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uint64, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)[name], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error) {
	var verr *common.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error(), "fields": verr.Fields})
	case errors.Is(err, common.ErrDuplicate):
		writeError(w, http.StatusConflict, "Event already exists!")
	case errors.Is(err, common.ErrAlreadyJoined):
		writeError(w, http.StatusConflict, "You have already joined this event.")
	case errors.Is(err, common.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrStoreUnavailable):
		h.log.Errorw("store unavailable", "error", err)
		writeError(w, http.StatusServiceUnavailable, "store unavailable, retry later")
	default:
		h.log.Errorw("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
