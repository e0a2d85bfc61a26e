package endpoints

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionEndpoint(t *testing.T) {
	testCases := []struct {
		description string
		version     string
		revision    string
		expected    string
	}{
		{description: "both set", version: "1.2.3", revision: "abc", expected: `{"revision":"abc","version":"1.2.3"}`},
		{description: "none set", expected: `{"revision":"not-set","version":"not-set"}`},
		{description: "only revision set", revision: "abc", expected: `{"revision":"abc","version":"not-set"}`},
	}

	for _, test := range testCases {
		t.Run(test.description, func(t *testing.T) {
			recorder := httptest.NewRecorder()

			NewVersionEndpoint(test.version, test.revision)(recorder, httptest.NewRequest(http.MethodGet, "/version", nil))

			assert.Equal(t, http.StatusOK, recorder.Code)
			assert.JSONEq(t, test.expected, recorder.Body.String())
		})
	}
}

func TestStatusEndpoint(t *testing.T) {
	testCases := []struct {
		description    string
		response       string
		expectedStatus int
		expectedBody   string
	}{
		{description: "configured response", response: "ready", expectedStatus: http.StatusOK, expectedBody: "ready"},
		{description: "no response", expectedStatus: http.StatusNoContent},
	}

	for _, test := range testCases {
		t.Run(test.description, func(t *testing.T) {
			recorder := httptest.NewRecorder()

			NewStatusEndpoint(test.response)(recorder, httptest.NewRequest(http.MethodGet, "/status", nil), nil)

			assert.Equal(t, test.expectedStatus, recorder.Code)
			assert.Equal(t, test.expectedBody, recorder.Body.String())
		})
	}
}
