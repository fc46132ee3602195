package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLimit(t *testing.T) {
	tests := map[string]int64{
		"1M":    1 << 20,
		"10m":   10 << 20,
		"512K":  512 << 10,
		"512KB": 512 << 10,
		"1G":    1 << 30,
		"4096":  4096,
		"":      1 << 20,
		"lots":  1 << 20,
		"-5":    1 << 20,
		" 2M ":  2 << 20,
		"0":     1 << 20,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLimit(in), "parseLimit(%q)", in)
	}
}

func TestBodyLimit(t *testing.T) {
	message := `{"content":"What brings you in today?"}`
	oversized := `{"content":"` + strings.Repeat("a", 2048) + `"}`

	// length -1 is a chunked body; wantCode 0 means the handler succeeds.
	tests := []struct {
		name     string
		body     io.Reader
		length   int64
		limit    string
		wantCode int
		reached  bool
	}{
		{"message within limit", strings.NewReader(message), int64(len(message)), "1K", 0, true},
		{"declared length over limit", strings.NewReader(oversized), int64(len(oversized)), "1K", http.StatusRequestEntityTooLarge, false},
		{"chunked body over limit", io.NopCloser(strings.NewReader(oversized)), -1, "1K", http.StatusRequestEntityTooLarge, true},
		{"chunked body within limit", io.NopCloser(bytes.NewReader([]byte(message))), -1, "1K", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/conversations/x/messages", tt.body)
			req.ContentLength = tt.length
			c := echo.New().NewContext(req, httptest.NewRecorder())

			reached := false
			err := BodyLimit(tt.limit)(func(c echo.Context) error {
				reached = true
				_, err := io.ReadAll(c.Request().Body)
				return err
			})(c)

			assert.Equal(t, tt.reached, reached)
			if tt.wantCode == 0 {
				assert.NoError(t, err)
				return
			}
			var he *echo.HTTPError
			require.True(t, errors.As(err, &he), "got %v", err)
			assert.Equal(t, tt.wantCode, he.Code)
		})
	}
}

func TestBodyLimit_DeclaredLengthMessage(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/conversations", bytes.NewReader(make([]byte, 2048)))
	c := echo.New().NewContext(req, httptest.NewRecorder())

	err := BodyLimit("1K")(func(echo.Context) error { return nil })(c)
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he))
	assert.Contains(t, he.Message, "1024 bytes")
}

func TestBodyLimit_GetWithoutBody(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/api/patients", nil), httptest.NewRecorder())

	reached := false
	require.NoError(t, BodyLimit("1")(func(echo.Context) error { reached = true; return nil })(c))
	assert.True(t, reached)
}
