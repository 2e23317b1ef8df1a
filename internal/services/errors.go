package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/leaderboard-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	ErrUnauthorized = errors.New("unauthorized access")
	ErrForbidden    = errors.New("forbidden - insufficient permissions")

	// Leaderboard specific errors
	ErrTestSeriesNotFound       = errors.New("test series not found")
	ErrLeaderboardEntryNotFound = errors.New("leaderboard entry not found")
	ErrAdminRequired            = errors.New("administrator role required")
)

// ===== CUSTOM ERROR TYPES =====

type ValidationErrors = apperrors.ValidationErrors

type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID string `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %s - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

func (pe *PermissionError) Unwrap() error {
	return ErrForbidden
}

func NewPermissionError(userID, resourceID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// UserFailure records one user that could not be processed during a bulk refresh
type UserFailure struct {
	UserID string `json:"user_id"`
	Error  string `json:"error"`
}

// ===== ERROR HELPERS =====

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTestSeriesNotFound) ||
		errors.Is(err, ErrLeaderboardEntryNotFound)
}

// IsUnauthorized checks if error means the caller is not authenticated
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsForbidden checks if error means the caller lacks the required role or enrollment
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}
