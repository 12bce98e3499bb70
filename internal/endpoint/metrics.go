package endpoint

import (
	"errors"

	"github.com/cirruslabs/vmpower/internal/concurrentmap"
	v1 "github.com/cirruslabs/vmpower/pkg/resource/v1"
	"github.com/gin-gonic/gin"
	"github.com/penglongli/gin-metrics/ginmetrics"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	sessions *concurrentmap.ConcurrentMap[*session]

	tasksSubmitted *prometheus.CounterVec
	tasksCompleted *prometheus.CounterVec
	activeSessions prometheus.Gauge
}

func newMetrics(sessions *concurrentmap.ConcurrentMap[*session]) (*metrics, error) {
	result := &metrics{
		sessions: sessions,
	}

	var err error

	result.tasksSubmitted, err = register(prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vmpower",
		Name:      "tasks_submitted_total",
		Help:      "Number of power operation tasks submitted to the host agent",
	}, []string{"description"}))
	if err != nil {
		return nil, err
	}

	result.tasksCompleted, err = register(prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vmpower",
		Name:      "tasks_completed_total",
		Help:      "Number of power operation tasks that reached a terminal state",
	}, []string{"description", "state"}))
	if err != nil {
		return nil, err
	}

	result.activeSessions, err = register(prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "vmpower",
		Name:      "active_sessions",
		Help:      "Number of user sessions that haven't logged out or expired yet",
	}))
	if err != nil {
		return nil, err
	}

	return result, nil
}

// register tolerates multiple endpoints in the same process (e.g. in tests)
// by re-using the already registered collector.
func register[T prometheus.Collector](collector T) (T, error) {
	if err := prometheus.Register(collector); err != nil {
		var alreadyRegisteredError prometheus.AlreadyRegisteredError

		if errors.As(err, &alreadyRegisteredError) {
			if existing, ok := alreadyRegisteredError.ExistingCollector.(T); ok {
				return existing, nil
			}
		}

		return collector, err
	}

	return collector, nil
}

// use exposes the metrics at /metrics along with the HTTP request metrics.
func (metrics *metrics) use(ginEngine *gin.Engine) {
	monitor := ginmetrics.GetMonitor()

	monitor.SetMetricPath("/metrics")
	monitor.SetSlowTime(10)
	monitor.SetDuration([]float64{0.1, 0.3, 1.2, 5, 10})

	monitor.Use(ginEngine)
}

func (metrics *metrics) taskSubmitted(task v1.Task) {
	metrics.tasksSubmitted.WithLabelValues(task.Info.DescriptionID).Inc()
}

func (metrics *metrics) taskCompleted(task v1.Task) {
	metrics.tasksCompleted.WithLabelValues(task.Info.DescriptionID, task.Info.State.String()).Inc()
}

func (metrics *metrics) observeSessions() {
	metrics.activeSessions.Set(float64(metrics.sessions.Len()))
}
