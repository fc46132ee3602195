package conversation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/virtualclinic/api/internal/domain/prompt"
	"github.com/virtualclinic/api/internal/platform/apierror"
	"github.com/virtualclinic/api/internal/platform/validate"
)

func newTestServer(f *fixture) *echo.Echo {
	e := echo.New()
	e.Validator = validate.New()
	e.HTTPErrorHandler = apierror.Handler(zerolog.Nop())
	NewHandler(f.svc).RegisterRoutes(e.Group("/api"))
	return e
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHandler_CreateAndGet(t *testing.T) {
	f := newFixture()
	e := newTestServer(f)
	ehr := f.patients.add("John", "Doe")

	rec := do(e, http.MethodPost, "/api/conversations",
		`{"patientId":"`+ehr.Patient.ID.String()+`","taskType":"diagnosis"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	data := decode(t, rec)["data"].(map[string]interface{})
	id, err := uuid.Parse(data["id"].(string))
	require.NoError(t, err)
	assert.Equal(t, "John Doe", data["patientName"])
	assert.Equal(t, "diagnosis", data["taskType"])
	assert.Contains(t, data, "createdAt")

	rec = do(e, http.MethodGet, "/api/conversations/"+id.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, id.String(), got["id"])
	assert.Equal(t, []interface{}{}, got["messages"])
	assert.Nil(t, got["metadata"])
}

func TestHandler_Create_UppercasePatientID(t *testing.T) {
	f := newFixture()
	e := newTestServer(f)
	ehr := f.patients.add("John", "Doe")

	upper := strings.ToUpper(ehr.Patient.ID.String())
	rec := do(e, http.MethodPost, "/api/conversations", `{"patientId":"`+upper+`","taskType":"diagnosis"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	data := decode(t, rec)["data"].(map[string]interface{})
	id := uuid.MustParse(data["id"].(string))
	stored, err := f.svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, ehr.Patient.ID, stored.PatientID)

	rec = do(e, http.MethodGet, "/api/conversations?patientId="+upper, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], 1)
}

func TestHandler_TypeMismatch(t *testing.T) {
	f := newFixture()
	e := newTestServer(f)
	ehr := f.patients.add("John", "Doe")
	created, err := f.svc.Create(context.Background(), ehr.Patient.ID, prompt.TaskDiagnosis, nil)
	require.NoError(t, err)

	tests := []struct {
		name  string
		path  string
		body  string
		field string
	}{
		{"numeric metadata", "/api/conversations", `{"patientId":"` + ehr.Patient.ID.String() + `","taskType":"event","metadata":5}`, "metadata"},
		{"numeric content", "/api/conversations/" + created.ID.String() + "/messages", `{"content":123}`, "content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, http.MethodPost, tt.path, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, "Validation error", body["error"])
			assert.Equal(t, map[string]interface{}{tt.field: []interface{}{"Expected string, received number"}}, body["details"])
		})
	}
	assert.Empty(t, f.llm.requests)
}

func TestHandler_Create_Validation(t *testing.T) {
	f := newFixture()
	e := newTestServer(f)

	rec := do(e, http.MethodPost, "/api/conversations", `{"patientId":"nope","taskType":"prognosis"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "Validation error", body["error"])
	details := body["details"].(map[string]interface{})
	assert.Equal(t, []interface{}{"patientId must be a valid UUID"}, details["patientId"])
	assert.Equal(t, []interface{}{"Invalid enum value. Expected 'diagnosis' | 'treatment' | 'event', received 'prognosis'"}, details["taskType"])
}

func TestHandler_Create_MalformedJSON(t *testing.T) {
	e := newTestServer(newFixture())
	rec := do(e, http.MethodPost, "/api/conversations", `{"patientId":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid JSON body", decode(t, rec)["error"])
}

func TestHandler_Create_PatientMissing(t *testing.T) {
	e := newTestServer(newFixture())
	id := uuid.New()
	rec := do(e, http.MethodPost, "/api/conversations", `{"patientId":"`+id.String()+`","taskType":"event"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Patient "+id.String()+" not found", decode(t, rec)["error"])
}

func TestHandler_Get_NotFound(t *testing.T) {
	e := newTestServer(newFixture())
	rec := do(e, http.MethodGet, "/api/conversations/"+uuid.New().String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Conversation not found", decode(t, rec)["error"])
}

func TestHandler_SendMessage_LLMFailureLoggedOnce(t *testing.T) {
	f := newFixture()
	var buf bytes.Buffer
	e := echo.New()
	e.Validator = validate.New()
	e.HTTPErrorHandler = apierror.Handler(zerolog.New(&buf))
	NewHandler(f.svc).RegisterRoutes(e.Group("/api"))

	ehr := f.patients.add("John", "Doe")
	created, err := f.svc.Create(context.Background(), ehr.Patient.ID, prompt.TaskDiagnosis, nil)
	require.NoError(t, err)
	buf.Reset()
	f.llm.err = errors.New("llm: 429 too many requests")

	rec := do(e, http.MethodPost, "/api/conversations/"+created.ID.String()+"/messages", `{"content":"Hello"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to send message", decode(t, rec)["error"])
	assert.Equal(t, 1, strings.Count(buf.String(), "llm: 429 too many requests"), buf.String())
}

func TestHandler_Get_InvalidID(t *testing.T) {
	e := newTestServer(newFixture())
	rec := do(e, http.MethodGet, "/api/conversations/xyz", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Validation error", body["error"])
	assert.Equal(t, map[string]interface{}{"id": []interface{}{"Invalid conversation id"}}, body["details"])
}

func TestHandler_SendMessage(t *testing.T) {
	f := newFixture()
	e := newTestServer(f)
	ehr := f.patients.add("John", "Doe")
	created, err := f.svc.Create(context.Background(), ehr.Patient.ID, prompt.TaskDiagnosis, nil)
	require.NoError(t, err)

	rec := do(e, http.MethodPost, "/api/conversations/"+created.ID.String()+"/messages", `{"content":"Hello"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	data := decode(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, created.ID.String(), data["conversationId"])
	assert.Equal(t, "assistant", data["role"])
	assert.Equal(t, f.llm.reply, data["content"])

	rec = do(e, http.MethodGet, "/api/conversations/"+created.ID.String(), "")
	msgs := decode(t, rec)["data"].(map[string]interface{})["messages"].([]interface{})
	require.Len(t, msgs, 2)
	first := msgs[0].(map[string]interface{})
	assert.Equal(t, "user", first["role"])
	assert.Equal(t, "Hello", first["content"])
	assert.NotContains(t, first, "conversationId")
}

func TestHandler_SendMessage_ContentLength(t *testing.T) {
	f := newFixture()
	e := newTestServer(f)
	ehr := f.patients.add("John", "Doe")
	created, err := f.svc.Create(context.Background(), ehr.Patient.ID, prompt.TaskDiagnosis, nil)
	require.NoError(t, err)
	path := "/api/conversations/" + created.ID.String() + "/messages"

	tests := []struct {
		name    string
		content string
		want    int
		message string
	}{
		{"empty", "", http.StatusBadRequest, "Message content cannot be empty"},
		{"at limit", strings.Repeat("a", MaxMessageLength), http.StatusOK, ""},
		{"multibyte at limit", strings.Repeat("é", MaxMessageLength), http.StatusOK, ""},
		{"over limit", strings.Repeat("a", MaxMessageLength+1), http.StatusBadRequest, "Message content too long (max 4096 characters)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(map[string]string{"content": tt.content})
			rec := do(e, http.MethodPost, path, string(body))
			require.Equal(t, tt.want, rec.Code, rec.Body.String())
			if tt.message != "" {
				details := decode(t, rec)["details"].(map[string]interface{})
				assert.Equal(t, []interface{}{tt.message}, details["content"])
			}
		})
	}
}

func TestHandler_SendMessage_NotFound(t *testing.T) {
	e := newTestServer(newFixture())
	id := uuid.New()
	rec := do(e, http.MethodPost, "/api/conversations/"+id.String()+"/messages", `{"content":"Hello"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Conversation "+id.String()+" not found", decode(t, rec)["error"])
}

func TestHandler_SendMessage_LLMFailure(t *testing.T) {
	f := newFixture()
	e := newTestServer(f)
	ehr := f.patients.add("John", "Doe")
	created, err := f.svc.Create(context.Background(), ehr.Patient.ID, prompt.TaskDiagnosis, nil)
	require.NoError(t, err)
	f.llm.err = errors.New("upstream 500: secret detail")

	rec := do(e, http.MethodPost, "/api/conversations/"+created.ID.String()+"/messages", `{"content":"Hello"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to send message", decode(t, rec)["error"])
	assert.NotContains(t, rec.Body.String(), "secret detail")
}

func TestHandler_List(t *testing.T) {
	f := newFixture()
	e := newTestServer(f)
	a := f.patients.add("A", "One")
	b := f.patients.add("B", "Two")
	for _, p := range []uuid.UUID{a.Patient.ID, a.Patient.ID, b.Patient.ID} {
		_, err := f.svc.Create(context.Background(), p, prompt.TaskDiagnosis, nil)
		require.NoError(t, err)
	}
	f.repo.names[a.Patient.ID] = "A One"

	rec := do(e, http.MethodGet, "/api/conversations?patientId="+a.Patient.ID.String()+"&taskType=bogus&limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	data := body["data"].([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, "A One", data[0].(map[string]interface{})["patientName"])

	pg := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(2), pg["total"])
	assert.Equal(t, float64(2), pg["totalPages"])
	assert.Equal(t, float64(1), pg["limit"])
}

func TestHandler_List_InvalidPatientID(t *testing.T) {
	e := newTestServer(newFixture())
	rec := do(e, http.MethodGet, "/api/conversations?patientId=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Validation error", decode(t, rec)["error"])
}
