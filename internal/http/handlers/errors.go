package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"blossoms/internal/domain"
	applog "blossoms/internal/log"
)

// Error kinds in the "error" field of every failed response.
const (
	KindNotFound   = "not_found"
	KindValidation = "validation_error"
	KindStorage    = "storage_error"
	KindRateLimit  = "rate_limited"
	KindTooLarge   = "payload_too_large"
	KindBadRequest = "bad_request"
	KindServer     = "server_error"
)

// opError carries what a handler wants its failure to look like. The wrapped
// error is only logged.
type opError struct {
	action   string
	notFound string
	invalid  string
	message  string
	err      error
}

func (e *opError) Error() string { return e.action + ": " + e.err.Error() }
func (e *opError) Unwrap() error { return e.err }

func productFailure(action, message string, err error) error {
	return &opError{
		action:   action,
		notFound: "Product not found",
		invalid:  "Invalid product data",
		message:  message,
		err:      err,
	}
}

func orderFailure(action, message string, err error) error {
	return &opError{
		action:   action,
		notFound: "Order not found",
		invalid:  "Invalid order data",
		message:  message,
		err:      err,
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ErrorHandler renders every error as {"error": kind, "message": text}.
// Internal error text never reaches the client; it is logged first.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var (
		status = fiber.StatusInternalServerError
		body   = errorBody{Error: KindServer, Message: "Something went wrong. Please try again."}
		oe     *opError
		fe     *fiber.Error
	)
	switch {
	case errors.As(err, &oe):
		switch {
		case errors.Is(err, domain.ErrNotFound):
			status, body = fiber.StatusNotFound, errorBody{KindNotFound, oe.notFound}
		case errors.Is(err, domain.ErrValidation):
			status, body = fiber.StatusBadRequest, errorBody{KindValidation, oe.invalid}
		default:
			status, body = fiber.StatusInternalServerError, errorBody{KindStorage, oe.message}
		}
		c.Status(status)
		switch status {
		case fiber.StatusNotFound:
			applog.Info(c, oe.action+".miss", nil)
		case fiber.StatusBadRequest:
			applog.Security(c, "validation.fail", map[string]any{"action": oe.action, "err": oe.err.Error()})
		default:
			applog.Error(c, oe.action+".fail", oe.err, nil)
		}
	case errors.As(err, &fe):
		status, body = fe.Code, errorBody{kindFor(fe.Code), fe.Message}
		c.Status(status)
		if status >= fiber.StatusInternalServerError {
			applog.Error(c, "server.error", err, nil)
		}
	default:
		c.Status(status)
		applog.Error(c, "server.error", err, nil)
	}
	return c.Status(status).JSON(body)
}

func kindFor(code int) string {
	switch {
	case code == fiber.StatusNotFound:
		return KindNotFound
	case code == fiber.StatusBadRequest || code == fiber.StatusUnprocessableEntity:
		return KindValidation
	case code == fiber.StatusRequestEntityTooLarge:
		return KindTooLarge
	case code == fiber.StatusTooManyRequests:
		return KindRateLimit
	case code >= fiber.StatusInternalServerError:
		return KindServer
	}
	return KindBadRequest
}
