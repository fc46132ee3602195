package patient

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/virtualclinic/api/internal/platform/apierror"
)

func newTestHandler(repo *mockRepo) (*Handler, *echo.Echo) {
	return NewHandler(NewService(repo)), echo.New()
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he), "expected *echo.HTTPError, got %v", err)
	return he.Code
}

func TestHandler_ListPatients(t *testing.T) {
	repo := newMockRepo()
	for i := 0; i < 3; i++ {
		repo.add(sampleEHR())
	}
	h, e := newTestHandler(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/patients?page=1&limit=2", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.ListPatients(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data       []map[string]interface{} `json:"data"`
		Pagination map[string]float64       `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data, 2)
	assert.Equal(t, float64(3), body.Pagination["total"])
	assert.Equal(t, float64(2), body.Pagination["totalPages"])
	assert.Contains(t, body.Data[0], "birthDate")
}

func TestHandler_ListPatients_Error(t *testing.T) {
	repo := newMockRepo()
	repo.err = errors.New("db down")
	h, e := newTestHandler(repo)

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/patients", nil), httptest.NewRecorder())
	err := h.ListPatients(c)
	assert.Equal(t, http.StatusInternalServerError, httpCode(t, err))
	assert.Equal(t, "Failed to fetch patients", err.(*echo.HTTPError).Message)
}

func TestHandler_GetPatient(t *testing.T) {
	repo := newMockRepo()
	ehr := sampleEHR()
	repo.add(ehr)
	h, e := newTestHandler(repo)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(ehr.Patient.ID.String())

	require.NoError(t, h.GetPatient(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Patient            map[string]interface{} `json:"patient"`
			Summary            map[string]interface{} `json:"summary"`
			RecentObservations []interface{}          `json:"recentObservations"`
			Encounters         []interface{}          `json:"encounters"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Ada", body.Data.Patient["first"])
	assert.Equal(t, float64(2), body.Data.Summary["conditionsCount"])
	assert.Equal(t, float64(1), body.Data.Summary["activeCareplanCount"])
	assert.Len(t, body.Data.RecentObservations, 30)
	assert.NotNil(t, body.Data.Encounters)
}

func TestHandler_GetPatient_NotFound(t *testing.T) {
	h, e := newTestHandler(newMockRepo())
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.GetPatient(c)
	assert.Equal(t, http.StatusNotFound, httpCode(t, err))
	assert.Equal(t, "Patient not found", err.(*echo.HTTPError).Message)
}

func TestHandler_GetPatient_InvalidID(t *testing.T) {
	h, e := newTestHandler(newMockRepo())
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	var ve *apierror.ValidationError
	require.True(t, errors.As(h.GetPatient(c), &ve))
	assert.Equal(t, map[string][]string{"id": {"Invalid patient id"}}, ve.Details)
}
