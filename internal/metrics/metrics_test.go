package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerExposesDomainCounters(t *testing.T) {
	m := New("voter_registry")
	m.OTPIssued.Inc()
	m.OTPVerifications.WithLabelValues("verified").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "voter_registry_otp_issued_total 1")
	assert.Contains(t, body, `voter_registry_otp_verifications_total{result="verified"} 1`)
}

func TestNewIsolatesRegistries(t *testing.T) {
	a := New("x")
	b := New("x")
	a.VotersAdded.Inc()

	fams, err := b.Registry.Gather()
	require.NoError(t, err)
	for _, f := range fams {
		if f.GetName() == "x_voters_added_total" {
			assert.Equal(t, 0.0, f.GetMetric()[0].GetCounter().GetValue())
		}
	}
}
