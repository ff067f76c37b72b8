// AngelaMos | 2026
// metrics_test.go

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordLifecycle(t *testing.T) {
	before := testutil.ToFloat64(
		LifecycleOperations.WithLabelValues("delete_user", "ok"),
	)

	RecordLifecycle("delete_user", "ok", 15*time.Millisecond)
	RecordLifecycle("delete_user", "ok", 5*time.Millisecond)

	after := testutil.ToFloat64(
		LifecycleOperations.WithLabelValues("delete_user", "ok"),
	)
	assert.InDelta(t, 2, after-before, 0.001)
}

func TestRecordCascadeSkipsEmptyTables(t *testing.T) {
	ratings := CascadeRowsDeleted.WithLabelValues("ratings")
	watches := CascadeRowsDeleted.WithLabelValues("watch_records")
	beforeRatings := testutil.ToFloat64(ratings)
	beforeWatches := testutil.ToFloat64(watches)

	RecordCascade(map[string]int64{
		"ratings":       3,
		"watch_records": 0,
	})

	assert.InDelta(t, 3, testutil.ToFloat64(ratings)-beforeRatings, 0.001)
	assert.InDelta(t, 0, testutil.ToFloat64(watches)-beforeWatches, 0.001)
}

func TestRecordHTTPRequest(t *testing.T) {
	counter := HTTPRequestsTotal.WithLabelValues("GET", "/api/movies", "200")
	before := testutil.ToFloat64(counter)

	RecordHTTPRequest("GET", "/api/movies", 200, time.Millisecond)

	assert.InDelta(t, 1, testutil.ToFloat64(counter)-before, 0.001)
}

func TestRecordSweep(t *testing.T) {
	counter := SubscriptionsSwept.WithLabelValues("inactive")
	before := testutil.ToFloat64(counter)

	RecordSweep("inactive", 4)
	RecordSweep("inactive", 0)

	assert.InDelta(t, 4, testutil.ToFloat64(counter)-before, 0.001)
}
