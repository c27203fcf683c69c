package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordExtraction(t *testing.T) {
	before := testutil.ToFloat64(ExtractionsTotal.WithLabelValues(StatusParseError))

	RecordExtraction(StatusParseError, 15*time.Millisecond)

	if got := testutil.ToFloat64(ExtractionsTotal.WithLabelValues(StatusParseError)); got != before+1 {
		t.Errorf("parse_error count = %v, want %v", got, before+1)
	}
	if n := testutil.CollectAndCount(ExtractionDuration); n != 1 {
		t.Errorf("duration histogram series = %d, want 1", n)
	}
}
