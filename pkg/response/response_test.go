package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("request_id", "req-1")
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestSuccess_NullData(t *testing.T) {
	c, w := newContext()
	Success[any](c, 0, nil, "done")

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "done", body["message"])
	assert.Equal(t, "req-1", body["request_id"])
	data, present := body["data"]
	assert.True(t, present)
	assert.Nil(t, data)
	_, hasErr := body["error"]
	assert.False(t, hasErr)
}

func TestNotFound(t *testing.T) {
	c, w := newContext()
	NotFound(c, "User not found", "User not found!")

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "User not found", body["message"])
	assert.Equal(t, map[string]any{"code": float64(404), "description": "User not found!"}, body["error"])
	_, hasData := body["data"]
	assert.False(t, hasData)
}

func TestError_DefaultStatus(t *testing.T) {
	c, w := newContext()
	Error(c, 0, "boom", ErrorBody{Code: 500, Description: "boom"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAbortError(t *testing.T) {
	c, w := newContext()
	AbortError(c, http.StatusTooManyRequests, "rate limit exceeded", nil)
	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
