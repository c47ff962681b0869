package response

import (
	"net/http"

	"github.com/gofiber/fiber/v3"
)

// SemanticResponse is the JSON envelope used by machine-facing endpoints.
type SemanticResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

const (
	MessageOK                  = "ok"
	MessageBadRequest          = "bad request"
	MessageForbidden           = "forbidden"
	MessageNotFound            = "not found"
	MessageMethodNotAllowed    = "method not allowed"
	MessageServiceUnavailable  = "service unavailable"
	MessageInternalServerError = "internal server error"
	MessageError               = "error"
)

// ErrorView is the template rendered for HTML error pages.
const ErrorView = "error"

func JSON(c fiber.Ctx, status int, message string, data any) error {
	st := normalizeStatus(status)
	return c.Status(st).JSON(SemanticResponse{Status: st, Message: normalizeMessage(message, st), Data: data})
}

// Error writes an error page to browsers and the JSON envelope to clients
// that ask for JSON. Without a view engine the page degrades to plain text.
func Error(c fiber.Ctx, status int, message string) error {
	st := normalizeStatus(status)
	msg := normalizeMessage(message, st)

	if wantsJSON(c) {
		return c.Status(st).JSON(SemanticResponse{Status: st, Message: msg})
	}

	c.Status(st)
	if c.App().Config().Views == nil {
		return c.SendString(msg)
	}
	return c.Render(ErrorView, fiber.Map{
		"Title":      http.StatusText(st),
		"Status":     st,
		"StatusText": http.StatusText(st),
		"Message":    msg,
	})
}

func wantsJSON(c fiber.Ctx) bool {
	return c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON
}

func normalizeStatus(status int) int {
	if status < 100 || status > 599 {
		return fiber.StatusInternalServerError
	}
	return status
}

func normalizeMessage(message string, status int) string {
	if message != "" {
		return message
	}
	return DefaultMessage(status)
}

func DefaultMessage(status int) string {
	switch status {
	case fiber.StatusOK:
		return MessageOK
	case fiber.StatusBadRequest:
		return MessageBadRequest
	case fiber.StatusForbidden:
		return MessageForbidden
	case fiber.StatusNotFound:
		return MessageNotFound
	case fiber.StatusMethodNotAllowed:
		return MessageMethodNotAllowed
	case fiber.StatusServiceUnavailable:
		return MessageServiceUnavailable
	default:
		if status >= 500 {
			return MessageInternalServerError
		}
		return MessageError
	}
}
