package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"annoncia/internal/usecase"
	"annoncia/pkg/response"
)

type UserHandler struct {
	userUseCase *usecase.UserUseCase
}

func NewUserHandler(userUseCase *usecase.UserUseCase) *UserHandler {
	return &UserHandler{
		userUseCase: userUseCase,
	}
}

type registerDeviceRequest struct {
	FCMToken string `json:"fcm_token" validate:"required"`
}

func (h *UserHandler) GetProfile(c echo.Context) error {
	userID := c.Get("uid").(string)

	user, err := h.userUseCase.GetProfile(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}

// RegisterDevice stores the caller's push token.
func (h *UserHandler) RegisterDevice(c echo.Context) error {
	var req registerDeviceRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	if err := h.userUseCase.RegisterDevice(c.Request().Context(), userID, req.FCMToken); err != nil {
		return response.Error(c, err)
	}

	return c.NoContent(http.StatusOK)
}

func (h *UserHandler) UnregisterDevice(c echo.Context) error {
	userID := c.Get("uid").(string)

	if err := h.userUseCase.UnregisterDevice(c.Request().Context(), userID); err != nil {
		return response.Error(c, err)
	}

	return c.NoContent(http.StatusOK)
}
