package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aiGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resumeai",
			Subsystem: "ai",
			Name:      "generations_total",
			Help:      "AI 生成请求总数，按类型与结果区分。",
		},
		[]string{"kind", "outcome"},
	)

	paymentEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resumeai",
			Subsystem: "payment",
			Name:      "events_total",
			Help:      "支付事件总数（initiated/verified/rejected/duplicate）。",
		},
		[]string{"event"},
	)

	creditsConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resumeai",
			Subsystem: "credits",
			Name:      "consumed_total",
			Help:      "消耗的额度总数。",
		},
		[]string{"kind"},
	)
)

// AIGeneration 记录一次 AI 生成的结果：ok、insufficient_credits、error。
func AIGeneration(kind, outcome string) {
	aiGenerationsTotal.WithLabelValues(kind, outcome).Inc()
}

func PaymentEvent(event string) {
	paymentEventsTotal.WithLabelValues(event).Inc()
}

// CreditConsumed 记录一次额度扣减，kind 为 ai 或 download。
func CreditConsumed(kind string) {
	creditsConsumedTotal.WithLabelValues(kind).Inc()
}
