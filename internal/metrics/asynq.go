package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resumeai",
			Subsystem: "worker",
			Name:      "tasks_total",
			Help:      "后台任务处理次数，outcome 为 ok、retry 或 dropped。",
		},
		[]string{"task_type", "outcome"},
	)

	taskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "resumeai",
			Subsystem: "worker",
			Name:      "task_duration_seconds",
			Help:      "单次任务处理耗时（秒），PDF 渲染占大头。",
			Buckets:   []float64{.5, 1, 2, 5, 10, 20, 45, 90},
		},
		[]string{"task_type"},
	)
)

// TaskOutcome 把任务返回值归类为指标标签。
func TaskOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, asynq.SkipRetry):
		return "dropped"
	default:
		return "retry"
	}
}

// AsynqMiddleware 记录每个任务的处理结果与耗时。
func AsynqMiddleware() asynq.MiddlewareFunc {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
			start := time.Now()
			err := next.ProcessTask(ctx, task)
			taskDuration.WithLabelValues(task.Type()).Observe(time.Since(start).Seconds())
			tasksTotal.WithLabelValues(task.Type(), TaskOutcome(err)).Inc()
			return err
		})
	}
}
