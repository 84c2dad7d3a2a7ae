package api

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/quickmoney/chat-service/internal/apperr"
	"github.com/quickmoney/chat-service/internal/presence"
	"github.com/quickmoney/chat-service/internal/service"
)

type Handlers struct {
	svc        *service.ChatService
	presence   *presence.Store
	log        *zap.SugaredLogger
	validate   *validator.Validate
	production bool
}

func NewHandlers(svc *service.ChatService, pres *presence.Store, log *zap.SugaredLogger, production bool) *Handlers {
	return &Handlers{
		svc:        svc,
		presence:   pres,
		log:        log,
		validate:   validator.New(),
		production: production,
	}
}

type sendRequest struct {
	SenderID   string    `json:"senderId" validate:"required"`
	ReceiverID string    `json:"receiverId" validate:"required"`
	Message    string    `json:"message" validate:"required"`
	Timestamp  time.Time `json:"timestamp"`
}

func (h *Handlers) Send(c *fiber.Ctx) error {
	var req sendRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, fiber.StatusBadRequest, "invalid payload", nil)
	}
	if err := h.validate.Struct(req); err != nil {
		return h.fail(c, fiber.StatusBadRequest, "senderId, receiverId and message are required", nil)
	}

	msg, err := h.svc.Send(c.Context(), req.SenderID, req.ReceiverID, req.Message, req.Timestamp, service.OriginREST)
	if err != nil {
		return h.failErr(c, err, "Message not sent")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": msg})
}

func (h *Handlers) History(c *fiber.Ctx) error {
	msgs, roomID, err := h.svc.History(c.Context(), c.Params("user1"), c.Params("user2"))
	if err != nil {
		return h.failErr(c, err, "Failed to fetch messages")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    msgs,
		"count":   len(msgs),
		"roomId":  roomID,
	})
}

func (h *Handlers) Conversations(c *fiber.Ctx) error {
	convs, err := h.svc.Conversations(c.Context(), c.Params("userId"))
	if err != nil {
		return h.failErr(c, err, "Failed to fetch conversations")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    convs,
		"count":   len(convs),
	})
}

type systemNotifyRequest struct {
	BorrowerID      string `json:"borrowerId" validate:"required"`
	LenderID        string `json:"lenderId" validate:"required"`
	BorrowerMessage string `json:"borrowerMessage" validate:"required"`
	LenderMessage   string `json:"lenderMessage" validate:"required"`
}

// SystemNotify is the internal entry point the agreement service calls
// after a loan confirmation: one system message to each party.
func (h *Handlers) SystemNotify(c *fiber.Ctx) error {
	var req systemNotifyRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, fiber.StatusBadRequest, "invalid payload", nil)
	}
	if err := h.validate.Struct(req); err != nil {
		return h.fail(c, fiber.StatusBadRequest, "borrowerId, lenderId and both messages are required", nil)
	}

	msgs, err := h.svc.NotifyAgreement(c.Context(), req.BorrowerID, req.LenderID, req.BorrowerMessage, req.LenderMessage)
	if err != nil {
		return h.failErr(c, err, "Failed to send agreement notifications")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": msgs})
}

func (h *Handlers) Presence(c *fiber.Ctx) error {
	if h.presence == nil {
		return h.fail(c, fiber.StatusNotFound, "presence tracking is not enabled", nil)
	}
	rec, err := h.presence.Get(c.Context(), c.Params("userId"))
	if err != nil {
		return h.failErr(c, err, "Failed to fetch presence")
	}
	return c.JSON(fiber.Map{"success": true, "data": rec})
}

// failErr maps the error taxonomy onto status codes. Validation
// details go back to the caller; internal failures are logged and
// replaced by a generic message, with the underlying detail included
// only outside production.
func (h *Handlers) failErr(c *fiber.Ctx, err error, generic string) error {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return h.fail(c, fiber.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, apperr.ErrNotFound):
		return h.fail(c, fiber.StatusNotFound, err.Error(), nil)
	case errors.Is(err, apperr.ErrUnauthorized):
		return h.fail(c, fiber.StatusForbidden, err.Error(), nil)
	default:
		h.log.Errorw("request failed", "path", c.Path(), "error", err)
		var details any
		if !h.production {
			details = err.Error()
		}
		return h.fail(c, fiber.StatusInternalServerError, generic, details)
	}
}

func (h *Handlers) fail(c *fiber.Ctx, status int, msg string, details any) error {
	body := fiber.Map{"success": false, "error": msg}
	if details != nil {
		body["details"] = details
	}
	return c.Status(status).JSON(body)
}
