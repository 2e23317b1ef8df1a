package services

import (
	"errors"
	"fmt"
	"testing"

	apperrors "github.com/SAP-F-2025/leaderboard-service/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorPredicates(t *testing.T) {
	assert.True(t, IsNotFound(fmt.Errorf("wrap: %w", ErrTestSeriesNotFound)))
	assert.True(t, IsNotFound(ErrLeaderboardEntryNotFound))
	assert.False(t, IsNotFound(errors.New("boom")))

	assert.True(t, IsForbidden(NewPermissionError("u1", "s1", "leaderboard_entry", "read", "not owner")))
	assert.False(t, IsForbidden(ErrUnauthorized))

	assert.True(t, IsUnauthorized(ErrUnauthorized))

	assert.True(t, IsValidation(apperrors.ValidationErrors{{Field: "page", Message: "must be at least 1", Value: 0}}))
	assert.True(t, IsValidation(fmt.Errorf("bind query: %w", apperrors.ValidationErrors{{Field: "limit", Message: "too large"}})))
	assert.False(t, IsValidation(ErrForbidden))
}

func TestPermissionError_Message(t *testing.T) {
	err := NewPermissionError("u1", "s1", "leaderboard_entry", "read", "not owner")
	assert.Equal(t, "permission denied: user u1 cannot read leaderboard_entry s1 - not owner", err.Error())
}
