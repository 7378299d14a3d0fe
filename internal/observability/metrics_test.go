package observability

import (
	"testing"
	"time"

	"github.com/danmuck/manholectl/internal/testutil/testlog"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("manhole-a", "GET", "/health", 200, 12*time.Millisecond)
	RecordSessionStart("manhole-a")
	RecordCommand("manhole-a", "ok", 3*time.Millisecond)
	RecordCommand("manhole-a", "timeout", 5*time.Second)
	RecordSessionFault("manhole-a")
	RecordSessionEnd("manhole-a")
}
