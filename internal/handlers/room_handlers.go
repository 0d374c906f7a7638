package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"rtc-relay/internal/auth"
	"rtc-relay/internal/services"
	"rtc-relay/pkg/logger"
)

type RoomHandlers struct {
	roomService *services.RoomService
	authService *auth.Service
}

func NewRoomHandlers(roomService *services.RoomService, authService *auth.Service) *RoomHandlers {
	return &RoomHandlers{
		roomService: roomService,
		authService: authService,
	}
}

// authenticate gates every REST call the same way the socket handshake is
// gated. Returns false after writing the refusal.
func (h *RoomHandlers) authenticate(w http.ResponseWriter, r *http.Request) bool {
	_, err := h.authService.Authenticate(r.Context(), auth.TokenFromRequest(r))
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"ok": false, "message": "unauthorized"})
		return false
	}
	return true
}

// GetOrCreateRoom handles GET /api/rooms/{roomKey}
func (h *RoomHandlers) GetOrCreateRoom(w http.ResponseWriter, r *http.Request) {
	if !h.authenticate(w, r) {
		return
	}

	roomKey := r.PathValue("roomKey")
	if roomKey == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"ok": false, "message": "missing roomKey"})
		return
	}

	room, err := h.roomService.GetOrCreateRoom(r.Context(), roomKey)
	if err != nil {
		logger.Error("GetOrCreateRoom %s: %v", roomKey, err)
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"ok": false, "message": "server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "room": room})
}

// GetParticipants handles GET /api/rooms/{roomKey}/participants
func (h *RoomHandlers) GetParticipants(w http.ResponseWriter, r *http.Request) {
	if !h.authenticate(w, r) {
		return
	}

	roomKey := r.PathValue("roomKey")
	participants, err := h.roomService.GetParticipants(r.Context(), roomKey)
	if err != nil {
		logger.Error("GetParticipants %s: %v", roomKey, err)
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"ok": false, "message": "server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "participants": participants})
}

// ListMessages handles GET /api/rooms/{roomKey}/messages?limit=N
func (h *RoomHandlers) ListMessages(w http.ResponseWriter, r *http.Request) {
	if !h.authenticate(w, r) {
		return
	}

	roomKey := r.PathValue("roomKey")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	messages, err := h.roomService.ListMessages(r.Context(), roomKey, limit)
	if err != nil {
		logger.Error("ListMessages %s: %v", roomKey, err)
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"ok": false, "message": "server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "messages": messages})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
