package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncCollect(CollectQueued)
	pr.IncCollect(CollectQueued)
	pr.IncCollect(CollectRecursionExceeded)
	pr.IncMaterialize(MaterializeCreated)
	pr.ObserveMaterializeDuration(20 * time.Millisecond)
	pr.ObserveRenderDuration(5 * time.Millisecond)
	pr.IncRevisionSaved(true)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) != 5 {
		t.Fatalf("expected 5 metric families, got %d", len(mfs))
	}
	for _, mf := range mfs {
		if mf.GetName() != "autopage_collect_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			if m.GetLabel()[0].GetValue() == string(CollectQueued) && m.GetCounter().GetValue() != 2 {
				t.Fatalf("expected 2 queued collects, got %v", m.GetCounter().GetValue())
			}
		}
	}
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.IncCollect(CollectQueued)
	pr.IncMaterialize(MaterializeFailed)
	pr.ObserveMaterializeDuration(time.Second)
	pr.IncRevisionSaved(false)
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).IncMaterialize(MaterializeCreated)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `autopage_materialize_pages_total{outcome="created"} 1`) {
		t.Fatalf("metric missing from scrape:\n%s", rec.Body.String())
	}
}
