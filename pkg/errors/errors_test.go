package errors

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	err := fmt.Errorf("outer: %w", Clone(ErrNotFound, "room not found"))

	appErr := FromError(err)
	assert.Equal(t, ErrNotFound.Code, appErr.Code)
	assert.Equal(t, "room not found", appErr.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(sql.ErrConnDone)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.True(t, errors.Is(appErr, sql.ErrConnDone))
}

func TestIsMatchesByCode(t *testing.T) {
	err := Clone(ErrRoomConflict, "room R101 is busy")
	assert.True(t, errors.Is(err, ErrRoomConflict))
	assert.False(t, errors.Is(err, ErrTeacherConflict))
}

func TestWithDetailsDoesNotMutateSentinel(t *testing.T) {
	err := WithDetails(ErrConflict, map[string]string{"session_id": "s1"})
	assert.NotNil(t, err.Details)
	assert.Nil(t, ErrConflict.Details)
}
