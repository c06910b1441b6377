package conversation

import (
	"context"
	"encoding/json"
	"net"
	"net/http"

	"github.com/Lakshya-akoode/my-cn-bot/pkg/logging"
)

// degradedReply is what the user sees when the answer path is down.
const degradedReply = "Sorry, I'm having trouble answering right now. Please try again in a moment."

const defaultSessionID = "default"

// Chatter processes one chat turn.
type Chatter interface {
	HandleMessage(ctx context.Context, sessionID, message, clientAddr string) (*ChatReply, error)
}

// Handler exposes the chat service over HTTP.
type Handler struct {
	service Chatter
	logger  *logging.Logger
}

func NewHandler(service Chatter, logger *logging.Logger) *Handler {
	if service == nil {
		panic("conversation: handler requires a chat service")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// Chat handles POST /chat.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message is required"})
		return
	}
	if req.SessionID == "" {
		req.SessionID = defaultSessionID
	}

	reply, err := h.service.HandleMessage(r.Context(), req.SessionID, req.Message, clientAddr(r))
	if err != nil {
		h.logger.Error("conversation: chat turn failed",
			"session_id", req.SessionID, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, &ChatReply{Reply: degradedReply})
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// clientAddr strips the port from RemoteAddr. The RealIP middleware has
// already substituted any forwarded address.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
