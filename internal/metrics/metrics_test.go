package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	return string(body)
}

func TestCountersAreExported(t *testing.T) {
	m := New()
	m.SurveysCreated.Inc()
	m.Selections.Add(3)
	m.AuthFailures.WithLabelValues("expired").Inc()

	body := scrape(t, m)

	for _, want := range []string{
		"surveys_created_total 1",
		"choice_selections_total 3",
		`auth_failures_total{reason="expired"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestInstancesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.SurveysCreated.Inc()
	if !strings.Contains(scrape(t, b), "surveys_created_total 0") {
		t.Error("second instance shares state with the first")
	}
}
