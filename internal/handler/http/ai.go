package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Fixed user-facing replies for the chat proxy. Upstream details never leak
// to the client.
const (
	emptyMessageReply = "Please enter a message."
	chatUnavailable   = "The assistant is unavailable right now. Please try again later."
)

// ChatCompleter is the chat-completion upstream as the handler sees it.
type ChatCompleter interface {
	Complete(ctx context.Context, message string) (string, error)
}

// AIHandler proxies chat requests to the completion upstream. It is
// stateless and fully independent of room state; a slow or failed upstream
// call affects only its own request.
type AIHandler struct {
	chat ChatCompleter
	log  *logrus.Logger
}

// NewAIHandler creates the chat proxy handler.
func NewAIHandler(chat ChatCompleter, log *logrus.Logger) *AIHandler {
	if chat == nil {
		panic("ChatCompleter cannot be nil for AIHandler")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AIHandler{chat: chat, log: log}
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// Chat handles POST /api/ai/chat.
func (h *AIHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, chatResponse{Reply: emptyMessageReply})
		return
	}

	reply, err := h.chat.Complete(c.Request.Context(), req.Message)
	if err != nil {
		h.log.WithError(err).Error("Chat completion upstream failed")
		c.JSON(http.StatusInternalServerError, chatResponse{Reply: chatUnavailable})
		return
	}

	c.JSON(http.StatusOK, chatResponse{Reply: reply})
}
