package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRespondError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrValidation, http.StatusBadRequest},
		{ErrTooLarge, http.StatusRequestEntityTooLarge},
		{ErrUnsupported, http.StatusUnsupportedMediaType},
		{ErrUnavailable, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, tc.err)
		require.Equal(t, tc.status, rec.Code, tc.err.Error())
		require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

		var problem ProblemDetail
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
		require.Equal(t, tc.status, problem.Status)
	}
}

func TestInternalErrorHidesDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, errors.New("redis: connection refused"))
	require.NotContains(t, rec.Body.String(), "redis")
}

func TestDecodeJSON(t *testing.T) {
	var target struct {
		Kind string `json:"kind"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"kind":"bar"}`))
	require.NoError(t, DecodeJSON(httptest.NewRecorder(), req, &target))
	require.Equal(t, "bar", target.Kind)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"kind":`))
	require.ErrorIs(t, DecodeJSON(httptest.NewRecorder(), req, &target), ErrValidation)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	require.ErrorIs(t, DecodeJSON(httptest.NewRecorder(), req, &target), ErrValidation)
}

func TestDecodeJSONTooLarge(t *testing.T) {
	body := `{"kind":"` + strings.Repeat("x", MaxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	var target map[string]string
	require.ErrorIs(t, DecodeJSON(httptest.NewRecorder(), req, &target), ErrTooLarge)
}

func TestValidate(t *testing.T) {
	type input struct {
		Mode  string   `validate:"omitempty,oneof=range stacked"`
		Items []string `validate:"max=2"`
	}
	require.NoError(t, Validate(input{Mode: "range"}))

	err := Validate(input{Mode: "spiral", Items: []string{"a", "b", "c"}})
	require.ErrorIs(t, err, ErrValidation)
	require.Contains(t, err.Error(), "input.Mode failed oneof=range stacked")
	require.Contains(t, err.Error(), "input.Items failed max=2")
}
