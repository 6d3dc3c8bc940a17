package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once            sync.Once
	dutyTriggers    *prom.CounterVec
	dutyDuration    *prom.HistogramVec
	controlCommands *prom.CounterVec
	running         prom.Gauge
	framesPruned    prom.Counter
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.dutyTriggers = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "rptl",
			Name:      "duty_triggers_total",
			Help:      "Duty triggers by duty and result",
		}, []string{"duty", "result"})
		pr.dutyDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "rptl",
			Name:      "duty_duration_seconds",
			Help:      "Duration of individual duty triggers",
			Buckets:   prom.DefBuckets,
		}, []string{"duty"})
		pr.controlCommands = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "rptl",
			Name:      "control_commands_total",
			Help:      "Control commands received by command and outcome",
		}, []string{"command", "result"})
		pr.running = prom.NewGauge(prom.GaugeOpts{
			Namespace: "rptl",
			Name:      "running",
			Help:      "1 when capture is running, 0 when stopped",
		})
		pr.framesPruned = prom.NewCounter(prom.CounterOpts{
			Namespace: "rptl",
			Name:      "frames_pruned_total",
			Help:      "Photographs removed by the pruning duty",
		})
		reg.MustRegister(pr.dutyTriggers, pr.dutyDuration, pr.controlCommands, pr.running, pr.framesPruned)
	})
	return pr
}

func (p *PrometheusRecorder) IncDutyTrigger(duty string, result ResultLabel) {
	if p == nil || p.dutyTriggers == nil {
		return
	}
	p.dutyTriggers.WithLabelValues(duty, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveDutyDuration(duty string, d time.Duration) {
	if p == nil || p.dutyDuration == nil {
		return
	}
	p.dutyDuration.WithLabelValues(duty).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncControlCommand(command string, ok bool) {
	if p == nil || p.controlCommands == nil {
		return
	}
	res := "failed"
	if ok {
		res = "success"
	}
	p.controlCommands.WithLabelValues(command, res).Inc()
}

func (p *PrometheusRecorder) SetRunning(running bool) {
	if p == nil || p.running == nil {
		return
	}
	v := 0.0
	if running {
		v = 1
	}
	p.running.Set(v)
}

func (p *PrometheusRecorder) IncFramesPruned(n int) {
	if p == nil || p.framesPruned == nil || n <= 0 {
		return
	}
	p.framesPruned.Add(float64(n))
}
