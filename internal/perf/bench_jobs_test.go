package perf

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	jobmetrics "github.com/nippon-flex/servicios-rapidos-ec/internal/jobs"
	"github.com/nippon-flex/servicios-rapidos-ec/jobs"
)

type slowExpirer struct {
	delay time.Duration
	fail  bool
}

func (s slowExpirer) ExpireOverdue(ctx context.Context, limit int) (int, error) {
	time.Sleep(s.delay)
	if s.fail {
		return 0, errors.New("timeout")
	}
	return 2, nil
}

func TestExpiryJobMetricsAndBudget(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)
	task, err := jobs.NewExpireQuotesTask(0)
	if err != nil {
		t.Fatalf("build task: %v", err)
	}

	ok := jobs.NewQuoteExpiryJob(slowExpirer{delay: 5 * time.Millisecond}, nil, metrics)
	for i := 0; i < 20; i++ {
		if err := ok.Handle(context.Background(), task); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	failing := jobs.NewQuoteExpiryJob(slowExpirer{delay: time.Millisecond, fail: true}, nil, metrics)
	for i := 0; i < 2; i++ {
		if err := failing.Handle(context.Background(), task); err == nil {
			t.Fatal("expected error to propagate")
		}
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	success := metricValue(t, families, "servicios_jobs_total", map[string]string{"job": jobs.TaskExpireQuotes, "status": "success"})
	failure := metricValue(t, families, "servicios_jobs_total", map[string]string{"job": jobs.TaskExpireQuotes, "status": "failure"})
	if success != 20 || failure != 2 {
		t.Fatalf("unexpected run counts success=%f failure=%f", success, failure)
	}
	if expired := metricValue(t, families, "servicios_quotes_expired_total", nil); expired != 40 {
		t.Fatalf("expected 40 expired quotes, got %f", expired)
	}

	mean := histogramMean(t, families, "servicios_job_duration_seconds", map[string]string{"job": jobs.TaskExpireQuotes})
	if mean > 0.5 {
		t.Fatalf("expiry sweep duration above budget: %f", mean)
	}
}

func BenchmarkEnqueueTaskBuild(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		task, err := jobs.NewExpireQuotesTask(i%500 + 1)
		if err != nil || task == nil {
			b.Fatal(err)
		}
	}
}

func metricValue(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				if fam.GetType() == dto.MetricType_COUNTER {
					return metric.GetCounter().GetValue()
				}
				if fam.GetType() == dto.MetricType_GAUGE {
					return metric.GetGauge().GetValue()
				}
			}
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func histogramMean(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				hist := metric.GetHistogram()
				if hist == nil || hist.GetSampleCount() == 0 {
					t.Fatalf("histogram %s missing samples", name)
				}
				return hist.GetSampleSum() / float64(hist.GetSampleCount())
			}
		}
	}
	t.Fatalf("histogram %s with labels %v not found", name, labels)
	return 0
}

func hasLabels(metric *dto.Metric, labels map[string]string) bool {
	for key, want := range labels {
		found := false
		for _, lp := range metric.GetLabel() {
			if lp.GetName() == key {
				found = lp.GetValue() == want
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
