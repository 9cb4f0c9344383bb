package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"marketplace-system/internal/api/middleware"
	"marketplace-system/internal/services"
	"marketplace-system/pkg/logger"
)

type MessageHandler struct {
	messages *services.MessageService
	log      logger.Logger
}

func NewMessageHandler(messages *services.MessageService, log logger.Logger) *MessageHandler {
	return &MessageHandler{
		messages: messages,
		log:      log,
	}
}

type SendMessageRequest struct {
	ProductID string `json:"productId"`
	Content   string `json:"content"`
}

func (h *MessageHandler) SendMessage(c echo.Context) error {
	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		h.log.Error("Failed to bind request", "error", err)
		return c.JSON(http.StatusBadRequest, Response{
			Message: "Invalid request body", Error: true,
		})
	}

	userID := middleware.UserID(c)
	msg, err := h.messages.SendMessage(c.Request().Context(), req.ProductID, userID, req.Content)
	if err != nil {
		h.log.Error("Failed to send message",
			"listing_id", req.ProductID, "user_id", userID, "error", err)
		return respondError(c, err)
	}

	return respondOK(c, http.StatusCreated, "Message sent successfully", msg)
}

func (h *MessageHandler) GetMessages(c echo.Context) error {
	userID := middleware.UserID(c)

	messages, err := h.messages.ListMessagesForUser(c.Request().Context(), userID)
	if err != nil {
		h.log.Error("Failed to list messages", "user_id", userID, "error", err)
		return respondError(c, err)
	}

	return respondOK(c, http.StatusOK, "Messages retrieved successfully", messages)
}

func (h *MessageHandler) MarkRead(c echo.Context) error {
	messageID := c.Param("messageId")
	userID := middleware.UserID(c)

	if err := h.messages.MarkAsRead(c.Request().Context(), messageID, userID); err != nil {
		h.log.Error("Failed to mark message read",
			"message_id", messageID, "user_id", userID, "error", err)
		return respondError(c, err)
	}

	return respondOK(c, http.StatusOK, "Message marked as read", nil)
}
