package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/01cderx/Chat-ai/internal/domain"
	"github.com/01cderx/Chat-ai/internal/usecase"
)

// ChatService is the orchestration surface the HTTP layer depends on.
type ChatService interface {
	Register(ctx context.Context, name, email string) (domain.UserIdentity, error)
	SubmitTurn(ctx context.Context, userID, message string) (string, error)
	ListTurns(ctx context.Context, userID string) ([]domain.Turn, error)
}

// Handler adapts the chat service to the HTTP surface.
type Handler struct {
	svc ChatService
	log *slog.Logger
}

func NewHandler(svc ChatService, log *slog.Logger) (*Handler, error) {
	if svc == nil {
		return nil, errors.New("handler: chat service must not be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}, nil
}

// Routes attaches all endpoints to the router.
func (h *Handler) Routes(r *gin.Engine) {
	r.POST("/register-user", h.RegisterUser)
	r.POST("/chat", h.Chat)
	r.POST("/get-messages", h.GetMessages)
	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

type registerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type chatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

type messagesRequest struct {
	UserID string `json:"userId"`
}

type messagesResponse struct {
	Messages []domain.Turn `json:"messages"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (h *Handler) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, usecase.ErrorInvalidInput, "invalid request body")
		return
	}

	user, err := h.svc.Register(c.Request.Context(), req.Name, req.Email)
	if err != nil {
		h.handleServiceError(c, "register-user", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, usecase.ErrorInvalidInput, "invalid request body")
		return
	}

	reply, err := h.svc.SubmitTurn(c.Request.Context(), req.UserID, req.Message)
	if err != nil {
		h.handleServiceError(c, "chat", err)
		return
	}
	c.JSON(http.StatusOK, chatResponse{Reply: reply})
}

func (h *Handler) GetMessages(c *gin.Context) {
	var req messagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, usecase.ErrorInvalidInput, "invalid request body")
		return
	}

	turns, err := h.svc.ListTurns(c.Request.Context(), req.UserID)
	if err != nil {
		h.handleServiceError(c, "get-messages", err)
		return
	}
	if turns == nil {
		turns = []domain.Turn{}
	}
	c.JSON(http.StatusOK, messagesResponse{Messages: turns})
}

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleServiceError maps the service error taxonomy onto the HTTP surface.
// Server-side failures are logged here, at the boundary; the body always
// carries a stable code alongside the message.
func (h *Handler) handleServiceError(c *gin.Context, route string, err error) {
	var svcErr *usecase.Error
	if !errors.As(err, &svcErr) {
		h.log.Error("unclassified service error", "route", route, "err", err)
		h.writeError(c, usecase.ErrorInternal, "internal server error")
		return
	}
	if statusForCode(svcErr.Code) >= http.StatusInternalServerError {
		h.log.Error("request failed", "route", route, "code", string(svcErr.Code), "reason", svcErr.Reason, "err", svcErr.Err)
	}
	h.writeError(c, svcErr.Code, messageForCode(svcErr.Code))
}

func (h *Handler) writeError(c *gin.Context, code usecase.ErrorCode, message string) {
	c.JSON(statusForCode(code), errorResponse{Error: message, Code: string(code)})
}

func statusForCode(code usecase.ErrorCode) int {
	switch code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest
	case usecase.ErrorNotRegistered:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func messageForCode(code usecase.ErrorCode) string {
	switch code {
	case usecase.ErrorInvalidInput:
		return "missing or malformed request fields"
	case usecase.ErrorNotRegistered:
		return "user not found, please register first"
	default:
		return "internal server error"
	}
}
