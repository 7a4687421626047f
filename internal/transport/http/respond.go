package http

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"gameed/internal/domain"
	"github.com/gin-gonic/gin"
)

const genericFailure = "Something went wrong!"

// ok writes a success envelope. Payload keys sit next to success and message.
func ok(c *gin.Context, status int, message string, payload gin.H) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

// fail maps err to a status and writes the error envelope. op is the message clients see
// for unexpected failures and the prefix of the log line.
func (h *Handler) fail(c *gin.Context, op string, err error) {
	status, body := h.errorBody(op, err)
	c.AbortWithStatusJSON(status, body)
}

func (h *Handler) errorBody(op string, err error) (int, gin.H) {
	var de *domain.Error
	if !errors.As(err, &de) {
		log.Printf("%s: %v", op, err)
		body := gin.H{"success": false, "message": op}
		if !h.opts.Production {
			body["error"] = err.Error()
		}
		return http.StatusInternalServerError, body
	}

	body := gin.H{"success": false, "message": de.Message}
	if len(de.Fields) > 0 {
		body["errors"] = de.Fields
	}
	return statusFor(de.Kind), body
}

func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation, domain.KindConflict:
		return http.StatusBadRequest
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// bindJSON decodes the request body into dst. Field rules are checked by the services.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return domain.Validation("Invalid request body")
	}
	return nil
}

// bindOptionalJSON is bindJSON for endpoints whose body may be empty.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return domain.Validation("Invalid request body")
	}
	return nil
}

type panicError struct{ value any }

func (e panicError) Error() string { return fmt.Sprintf("panic: %v", e.value) }
