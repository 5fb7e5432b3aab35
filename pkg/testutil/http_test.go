package testutil_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"stepway/pkg/testutil"
)

func echoHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"outcome":"applied","new_phase":"INTERVIEW"}`))
	})
}

func TestReadBodyIsRepeatable(t *testing.T) {
	rr := testutil.DoRequest(echoHandler(), testutil.NewRequest(t, http.MethodGet, "/"))

	first := testutil.ReadBody(t, rr)
	second := testutil.ReadBody(t, rr)
	assert.NotEmpty(t, second)
	assert.Equal(t, first, second)
}

func TestRepeatedAssertionsOnOneRecorder(t *testing.T) {
	rr := testutil.DoRequest(echoHandler(), testutil.NewRequest(t, http.MethodGet, "/"))

	testutil.AssertJSONContains(t, rr, "outcome", "applied")
	testutil.AssertJSONContains(t, rr, "new_phase", "INTERVIEW")
	testutil.AssertJSONHasKey(t, rr, "outcome")
}
