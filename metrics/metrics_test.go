package metrics

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruteri/bonding-factory-backend/provisioning"
)

func TestRecorders(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ProvisioningStarted(nil)
	m.ProvisioningStarted(errors.New("fee mismatch"))
	m.ProvisioningStarted(nil)
	m.ProvisioningCompleted(provisioning.StatusRefunded, nil)
	m.AdminCommand("pause", true, nil)
	m.AdminCommand("pause", false, errors.New("not a pair"))
	m.StateSaved(nil)
	m.SetRegistrySize(3, 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.provisioningStarted.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.provisioningStarted.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.provisioningCompleted.WithLabelValues("refunded", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.adminCommands.WithLabelValues("pause", "self", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.adminCommands.WithLabelValues("pause", "subsystem", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stateSaves.WithLabelValues("ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.registeredPairs))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pendingJobs))
}

func TestMetricsServer_Scrape(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.SetRegistrySize(2, 0)

	srv := New(":0", reg)
	rr := httptest.NewRecorder()
	srv.srv.Handler.ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rr.Code)
	assert.Contains(t, rr.Body.String(), "bonding_factory_registry_pairs 2")
}
