package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", "tok")
}

func TestClient_SendsHeaders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "/api/patients", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"data":[{"id":"p1","first":"Ann","last":"Lee","birthDate":"1980-01-01","gender":"F"}],
			"pagination":{"page":2,"limit":5,"total":6,"totalPages":2}}`))
	})

	page, err := c.Patients.List(context.Background(), 2, 5)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Ann", page.Data[0].First)
	assert.Equal(t, 2, page.Pagination.TotalPages)
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		check  func(error) bool
	}{
		{http.StatusBadRequest, func(err error) bool { var e *ValidationError; return errors.As(err, &e) }},
		{http.StatusUnauthorized, func(err error) bool { var e *AuthenticationError; return errors.As(err, &e) }},
		{http.StatusForbidden, func(err error) bool { var e *ForbiddenError; return errors.As(err, &e) }},
		{http.StatusNotFound, IsNotFound},
		{http.StatusBadGateway, func(err error) bool { var e *ServerError; return errors.As(err, &e) }},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":"boom","details":{"content":["too long"]}}`))
			})

			_, err := c.Conversations.Get(context.Background(), "abc")
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error type %T", err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, "boom", apiErr.Message)
			assert.Equal(t, []string{"too long"}, apiErr.Details["content"])
		})
	}
}

func TestClient_ErrorWithoutJSONBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("<html>oops</html>"))
	})

	_, err := c.Patients.Get(context.Background(), "x")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Internal Server Error", apiErr.Message)
}

func TestClient_ConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, "").Patients.List(context.Background(), 0, 0)
	var connErr *ConnectionError
	assert.True(t, errors.As(err, &connErr))
}

func TestConversations_CreateAndSend(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		switch r.URL.Path {
		case "/api/conversations":
			assert.Equal(t, "p1", body["patientId"])
			assert.Equal(t, "event", body["taskType"])
			assert.Equal(t, "cohort-a", body["metadata"])
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"data":{"id":"c1","patientId":"p1","taskType":"event","patientName":"Ann Lee","createdAt":"2024-01-01T00:00:00Z"}}`))
		case "/api/conversations/c1/messages":
			assert.Equal(t, "Hello", body["content"])
			w.Write([]byte(`{"data":{"conversationId":"c1","role":"assistant","content":"Hi doctor."}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	meta := "cohort-a"
	created, err := c.Conversations.Create(context.Background(), "p1", TaskEvent, &meta)
	require.NoError(t, err)
	assert.Equal(t, "Ann Lee", created.PatientName)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), created.CreatedAt.UTC())

	reply, err := c.Conversations.SendMessage(context.Background(), created.ID, "Hello")
	require.NoError(t, err)
	assert.Equal(t, "assistant", reply.Role)
	assert.Equal(t, "Hi doctor.", reply.Content)
}

func TestConversations_ListFilters(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "p1", q.Get("patientId"))
		assert.Equal(t, "diagnosis", q.Get("taskType"))
		assert.False(t, q.Has("page"))
		w.Write([]byte(`{"data":[],"pagination":{"page":1,"limit":20,"total":0,"totalPages":0}}`))
	})

	page, err := c.Conversations.List(context.Background(), ListConversationsOptions{PatientID: "p1", TaskType: TaskDiagnosis})
	require.NoError(t, err)
	assert.Empty(t, page.Data)
}

func TestHealth_Degraded(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"degraded","service":"virtual-clinic-api","database":"disconnected","error":"connection refused"}`))
	})

	status, err := c.Health(context.Background())
	require.Error(t, err)
	require.NotNil(t, status)
	assert.Equal(t, "disconnected", status.Database)

	var se *ServerError
	assert.True(t, errors.As(err, &se))
	assert.Equal(t, "connection refused", se.Message)
}
