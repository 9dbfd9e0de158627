// Package models contains data structures for the application's domain models.
package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes used across the application.
const (
	CodeNotFound         = "NOT_FOUND"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeInvalidOperation = "INVALID_OPERATION"
	CodeValidation       = "VALIDATION_ERROR"
	CodeAlreadyExists    = "ALREADY_EXISTS"
	CodeTransientStore   = "TRANSIENT_STORE_FAILURE"
	CodeInternal         = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewInvalidOperationError(message string) *AppError {
	return &AppError{
		Code:    CodeInvalidOperation,
		Message: message,
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewTransientStoreError(err error) *AppError {
	return &AppError{
		Code:    CodeTransientStore,
		Message: "Transient store failure",
		Err:     err,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// ErrorCode extracts the application error code from err, or CodeInternal
// when err is not an AppError.
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, err error) error {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}

	status := fiber.StatusInternalServerError
	switch appErr.Code {
	case CodeNotFound:
		status = fiber.StatusNotFound
	case CodeUnauthorized:
		status = fiber.StatusUnauthorized
	case CodeInvalidOperation, CodeValidation:
		status = fiber.StatusBadRequest
	case CodeAlreadyExists:
		status = fiber.StatusConflict
	case CodeTransientStore:
		status = fiber.StatusServiceUnavailable
	}

	response := ErrorResponse{
		Error: appErr.Message,
		Code:  appErr.Code,
	}
	if appErr.Err != nil {
		response.Details = appErr.Err.Error()
	}
	return c.Status(status).JSON(response)
}
