package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"annoncia/internal/usecase"
	"annoncia/pkg/response"
	"annoncia/pkg/utils"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type createChatRequest struct {
	Type           string `json:"type" validate:"required,oneof=ad dm organisation"`
	RecipientID    string `json:"recipient_id"`
	AdID           string `json:"ad_id"`
	OrganisationID string `json:"organisation_id"`
	InitialMessage string `json:"initial_message"`
}

type sendMessageRequest struct {
	Type      string  `json:"type" validate:"omitempty,oneof=text file location"`
	Text      string  `json:"text"`
	FileURL   string  `json:"file_url,omitempty" validate:"omitempty,url"`
	FileName  string  `json:"file_name,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

type editMessageRequest struct {
	Text string `json:"text" validate:"required"`
}

// CreateChat finds or creates a conversation for an ad, an organisation, or a
// direct contact.
func (h *ChatHandler) CreateChat(c echo.Context) error {
	var req createChatRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	chat, err := h.chatUseCase.CreateChat(c.Request().Context(), userID, usecase.CreateChatInput{
		Type:           req.Type,
		RecipientID:    req.RecipientID,
		AdID:           req.AdID,
		OrganisationID: req.OrganisationID,
		InitialMessage: req.InitialMessage,
	})

	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, chat)
}

// GetUserChats lists the user's chats, optionally filtered by ?type=.
func (h *ChatHandler) GetUserChats(c echo.Context) error {
	userID := c.Get("uid").(string)
	chatType := c.QueryParam("type")

	params := utils.GetPaginationParams(c)

	chats, total, err := h.chatUseCase.GetUserChats(c.Request().Context(), userID, chatType, params.PageSize, params.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, chats, total, params.PageSize, params.Offset)
}

func (h *ChatHandler) GetChatByID(c echo.Context) error {
	chatID := c.Param("id")
	userID := c.Get("uid").(string)

	chat, err := h.chatUseCase.GetChatByID(c.Request().Context(), userID, chatID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, chat)
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	chatID := c.Param("id")
	userID := c.Get("uid").(string)

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	message, err := h.chatUseCase.SendMessage(c.Request().Context(), userID, usecase.SendMessageInput{
		ChatID:    chatID,
		Type:      req.Type,
		Text:      req.Text,
		FileURL:   req.FileURL,
		FileName:  req.FileName,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})

	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

func (h *ChatHandler) GetChatMessages(c echo.Context) error {
	chatID := c.Param("id")
	userID := c.Get("uid").(string)

	params := utils.GetPaginationParams(c)

	messages, total, err := h.chatUseCase.GetChatMessages(c.Request().Context(), userID, chatID, params.PageSize, params.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, messages, total, params.PageSize, params.Offset)
}

func (h *ChatHandler) EditMessage(c echo.Context) error {
	chatID := c.Param("id")
	messageID := c.Param("messageId")
	userID := c.Get("uid").(string)

	var req editMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	message, err := h.chatUseCase.EditMessage(c.Request().Context(), userID, chatID, messageID, req.Text)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, message)
}

func (h *ChatHandler) DeleteMessage(c echo.Context) error {
	chatID := c.Param("id")
	messageID := c.Param("messageId")
	userID := c.Get("uid").(string)

	if err := h.chatUseCase.DeleteMessage(c.Request().Context(), userID, chatID, messageID); err != nil {
		return response.Error(c, err)
	}

	return c.NoContent(http.StatusOK)
}

func (h *ChatHandler) DeleteChat(c echo.Context) error {
	chatID := c.Param("id")
	userID := c.Get("uid").(string)

	if err := h.chatUseCase.DeleteChat(c.Request().Context(), userID, chatID); err != nil {
		return response.Error(c, err)
	}

	return c.NoContent(http.StatusOK)
}

// MarkChatAsRead records a visit, clearing the unread counter and refreshing
// last-seen.
func (h *ChatHandler) MarkChatAsRead(c echo.Context) error {
	chatID := c.Param("id")
	userID := c.Get("uid").(string)

	if err := h.chatUseCase.Visit(c.Request().Context(), userID, chatID); err != nil {
		return response.Error(c, err)
	}

	return c.NoContent(http.StatusOK)
}
