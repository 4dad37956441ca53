package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	assert.NoError(t, c.Write(m))
	return m.GetCounter().GetValue()
}

func TestObserveAPICall(t *testing.T) {
	before := counterValue(t, APIRequestsTotal.WithLabelValues("activities", "list", "failure"))
	ObserveAPICall("activities", "list", false, time.Now())
	after := counterValue(t, APIRequestsTotal.WithLabelValues("activities", "list", "failure"))
	assert.Equal(t, before+1, after)
}

func TestRegistryGathers(t *testing.T) {
	ObserveCartMutation("add", true)
	ObserveBookingTransition("contact_info", "payment_selection", true)
	SessionInvalidationsTotal.Inc()

	families, err := Registry().Gather()
	assert.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["storefront_cart_mutations_total"])
	assert.True(t, names["storefront_booking_transitions_total"])
	assert.True(t, names["storefront_session_invalidations_total"])
}
