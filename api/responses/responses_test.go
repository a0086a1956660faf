package responses

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/streetcart/groupbuy-backend/pkg/errors"
	"github.com/streetcart/groupbuy-backend/pkg/logger"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorEnvelope {
	t.Helper()
	var body ErrorEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestWriteSuccessStatus(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccessStatus(w, http.StatusCreated, map[string]string{"hello": "world"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var body SuccessEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "world", body.Data.(map[string]any)["hello"])
}

func TestWriteErrorCapacityCarriesRemaining(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeCapacityExceeded, "only 40 remaining").
		WithDetails(map[string]any{"remaining": 40})
	WriteError(context.Background(), logger.Nop(), w, fmt.Errorf("join: %w", err))

	assert.Equal(t, http.StatusConflict, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, string(pkgerrors.CodeCapacityExceeded), body.Error.Code)
	assert.Equal(t, "only 40 remaining", body.Error.Message)
	assert.EqualValues(t, 40, body.Error.Details.(map[string]any)["remaining"])
}

func TestWriteErrorRoleMismatchMessage(t *testing.T) {
	w := httptest.NewRecorder()
	msg := "You are registered as a vendor, not a supplier. Please select the correct role."
	WriteError(context.Background(), nil, w, pkgerrors.New(pkgerrors.CodeRoleMismatch, msg))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, msg, decodeError(t, w).Error.Message)
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, string(pkgerrors.CodeInternal), body.Error.Code)
	assert.Equal(t, "internal server error", body.Error.Message)
}

func TestWriteErrorMapsDeadlineToTimeout(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, fmt.Errorf("load: %w", context.DeadlineExceeded))

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, string(pkgerrors.CodeTimeout), decodeError(t, w).Error.Code)
}

func TestWriteErrorDependencyDetails(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("dial tcp"), "store unavailable")
	WriteError(context.Background(), nil, w, err)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "dependency unavailable", decodeError(t, w).Error.Message)
}
