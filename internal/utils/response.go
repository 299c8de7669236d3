package utils

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type APIResponse struct {
	Status    string      `json:"status"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Meta      *Meta       `json:"meta,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

type Meta struct {
	Pagination *PaginationMeta `json:"pagination,omitempty"`
	Count      int             `json:"count,omitempty"`
}

func SuccessResponse(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Status:    StatusSuccess,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	})
}

func SuccessResponseWithMeta(c *gin.Context, message string, data interface{}, meta *Meta) {
	c.JSON(http.StatusOK, APIResponse{
		Status:    StatusSuccess,
		Message:   message,
		Data:      data,
		Meta:      meta,
		Timestamp: time.Now(),
	})
}

func CreatedResponse(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{
		Status:    StatusSuccess,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	})
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, APIResponse{
		Status: StatusError,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
		Timestamp: time.Now(),
	})
}

func ValidationErrorResponse(c *gin.Context, details map[string]string) {
	c.JSON(http.StatusBadRequest, APIResponse{
		Status: StatusError,
		Error: &APIError{
			Code:    string(ErrKindValidation),
			Message: "validation failed",
			Details: details,
		},
		Timestamp: time.Now(),
	})
}

func BadRequestResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusBadRequest, string(ErrKindValidation), message)
}

func UnauthorizedResponse(c *gin.Context) {
	ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
}

func ForbiddenResponse(c *gin.Context) {
	ErrorResponse(c, http.StatusForbidden, string(ErrKindForbidden), "forbidden")
}

func NotFoundResponse(c *gin.Context, resource string) {
	ErrorResponse(c, http.StatusNotFound, string(ErrKindNotFound), resource+" not found")
}

func InternalServerErrorResponse(c *gin.Context) {
	ErrorResponse(c, http.StatusInternalServerError, string(ErrKindInternal), "internal server error")
}

// EngineErrorResponse maps a typed engine error to the matching HTTP status.
func EngineErrorResponse(c *gin.Context, err error) {
	kind := KindOf(err)
	message := err.Error()

	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		message = engineErr.Message
	}

	status := http.StatusInternalServerError
	switch kind {
	case ErrKindValidation, ErrKindInvalidParameter, ErrKindInvalidBloodType, ErrKindInvalidStatus:
		status = http.StatusBadRequest
	case ErrKindNotFound:
		status = http.StatusNotFound
	case ErrKindForbidden:
		status = http.StatusForbidden
	case ErrKindInvalidTransition, ErrKindAlreadyTerminal, ErrKindDonorUnavailable:
		status = http.StatusUnprocessableEntity
	case ErrKindDuplicatePending, ErrKindStateConflict:
		status = http.StatusConflict
	case ErrKindInternal:
		message = "internal server error"
	}

	ErrorResponse(c, status, string(kind), message)
}
