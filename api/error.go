package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	orchestratorx "github.com/tanpawarit/chative-sei/agent/agents/orchestrator"
	casestorex "github.com/tanpawarit/chative-sei/agent/casestore"
	contractx "github.com/tanpawarit/chative-sei/agent/contract"
	statex "github.com/tanpawarit/chative-sei/agent/state"
	toolx "github.com/tanpawarit/chative-sei/agent/tool"
)

type errorPayload struct {
	RequestID string        `json:"request_id,omitempty"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	codeInternal     = "internal_error"
	codeUpstream     = "upstream_error"
	codeSessionStore = "session_store_unavailable"
)

func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	})
}

// writeLookupError maps case store errors onto HTTP statuses.
func writeLookupError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, casestorex.ErrInputFormat):
		return writeError(c, fiber.StatusBadRequest, toolx.CodeInvalidInput, err.Error())
	case errors.Is(err, casestorex.ErrCaseNotFound):
		return writeError(c, fiber.StatusNotFound, toolx.CodeNotFound, err.Error())
	case errors.Is(err, casestorex.ErrStorage):
		return writeError(c, fiber.StatusServiceUnavailable, toolx.CodeStorageUnavailable, "case store unavailable")
	default:
		return writeError(c, fiber.StatusInternalServerError, codeInternal, "internal server error")
	}
}

func writeChatError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, orchestratorx.ErrInvalidMessage), errors.Is(err, orchestratorx.ErrInvalidSession),
		errors.Is(err, statex.ErrInvalidSession):
		return writeError(c, fiber.StatusBadRequest, toolx.CodeInvalidInput, err.Error())
	case errors.Is(err, contractx.ErrModelInvoke), errors.Is(err, contractx.ErrSchemaViolation), errors.Is(err, contractx.ErrToolBudget):
		return writeError(c, fiber.StatusBadGateway, codeUpstream, "the language model did not produce a usable answer")
	case errors.Is(err, statex.ErrBackend):
		return writeError(c, fiber.StatusServiceUnavailable, codeSessionStore, "session store unavailable")
	default:
		return writeError(c, fiber.StatusInternalServerError, codeInternal, "internal server error")
	}
}

// ErrorHandler standardizes errors that escape handlers.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, toolx.CodeInvalidInput, "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, toolx.CodeNotFound, "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "method_not_allowed", "method not allowed")
		default:
			return writeError(c, status, codeInternal, "internal server error")
		}
	}
}
