package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Helllokittti/tiktok-prototip/internal/events"
	"github.com/Helllokittti/tiktok-prototip/internal/middleware"
	"github.com/Helllokittti/tiktok-prototip/internal/models"
	"github.com/Helllokittti/tiktok-prototip/internal/repository"
)

// ChatHandler serves direct messages between two users. There is no push:
// clients poll the conversation.
type ChatHandler struct {
	messages repository.MessageRepository
	users    repository.UserRepository
	events   events.Publisher
	logger   *zap.Logger
}

// NewChatHandler returns a ChatHandler.
func NewChatHandler(
	messages repository.MessageRepository,
	users repository.UserRepository,
	pub events.Publisher,
	logger *zap.Logger,
) *ChatHandler {
	return &ChatHandler{messages: messages, users: users, events: pub, logger: logger}
}

type sendMessageRequest struct {
	Text string `json:"text" binding:"required,max=1024"`
}

type chatUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Users handles GET /api/chat/users
//
// Everyone except the caller, by username.
func (h *ChatHandler) Users(c *gin.Context) {
	users, err := h.users.ListExcept(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		serverError(c, h.logger, "failed to list users", err)
		return
	}

	out := make([]chatUser, 0, len(users))
	for _, u := range users {
		out = append(out, chatUser{ID: u.ID, Username: u.Username})
	}
	c.JSON(http.StatusOK, out)
}

// Messages handles GET /api/chat/:user_id/messages
//
// Both directions of the conversation, oldest first.
func (h *ChatHandler) Messages(c *gin.Context) {
	otherID, ok := pathID(c, "user_id", "user")
	if !ok {
		return
	}

	messages, err := h.messages.ListConversation(c.Request.Context(), middleware.CurrentUserID(c), otherID)
	if err != nil {
		serverError(c, h.logger, "failed to list messages", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// Send handles POST /api/chat/:user_id/send
//
// The reply carries the whole message with both usernames so the client
// can render it straight away.
func (h *ChatHandler) Send(c *gin.Context) {
	receiverID, ok := pathID(c, "user_id", "user")
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Message text is required", err)
		return
	}
	ctx := c.Request.Context()
	sender := middleware.CurrentUser(c)

	receiver, err := h.users.GetByID(ctx, receiverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			notFound(c, "Receiver not found")
			return
		}
		serverError(c, h.logger, "failed to send message", err)
		return
	}

	msg, err := h.messages.Create(ctx, sender.ID, receiver.ID, req.Text)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			notFound(c, "Receiver not found")
			return
		}
		serverError(c, h.logger, "failed to send message", err)
		return
	}

	publish(c, h.events, h.logger, events.Event{
		Type:     events.MessageSent,
		ActorID:  sender.ID,
		TargetID: receiver.ID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": models.MessageView{
			Message:          *msg,
			SenderUsername:   sender.Username,
			ReceiverUsername: receiver.Username,
		},
		"status": "success",
	})
}
