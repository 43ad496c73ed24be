// Package metrics 提供复用器监控指标的 Prometheus 实现。
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tokmz/ladder"
)

var _ ladder.Metrics = (*Prometheus)(nil)

// Prometheus 基于 Prometheus 的指标实现，持有独立的 Registry
type Prometheus struct {
	registry *prometheus.Registry

	connectionsOpened  prometheus.Counter
	connectionsCurrent prometheus.Gauge
	roomsCurrent       prometheus.Gauge
	roomOccupation     *prometheus.GaugeVec
	messagesTotal      *prometheus.CounterVec
	invalidMessages    prometheus.Counter
	droppedMessages    prometheus.Counter
	rejectionsTotal    *prometheus.CounterVec
}

// NewPrometheus 创建指标实现，namespace 为空时使用 ladder
func NewPrometheus(namespace string) *Prometheus {
	if namespace == "" {
		namespace = "ladder"
	}

	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Prometheus{
		registry: registry,
		connectionsOpened: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_opened_total",
			Help:      "Total number of accepted connections.",
		}),
		connectionsCurrent: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_current",
			Help:      "Number of currently open connections.",
		}),
		roomsCurrent: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms_current",
			Help:      "Number of currently active rooms.",
		}),
		roomOccupation: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "room_occupation",
			Help:      "Number of connections per room.",
		}, []string{"room"}),
		messagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Total number of broadcast messages per room.",
		}, []string{"room"}),
		invalidMessages: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalid_messages_total",
			Help:      "Total number of inbound payloads dropped as undecodable.",
		}),
		droppedMessages: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_messages_total",
			Help:      "Total number of outbound messages dropped on send failure.",
		}),
		rejectionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "Total number of rejected upgrade requests by reason.",
		}, []string{"reason"}),
	}
}

// Registry 返回底层 Registry，用于注册额外的采集器
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler 返回指标抓取端点
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// IncrementConnections 连接建立
func (p *Prometheus) IncrementConnections() {
	p.connectionsOpened.Inc()
	p.connectionsCurrent.Inc()
}

// DecrementConnections 连接关闭
func (p *Prometheus) DecrementConnections() {
	p.connectionsCurrent.Dec()
}

// SetConnectionCount 设置当前连接数
func (p *Prometheus) SetConnectionCount(count int) {
	p.connectionsCurrent.Set(float64(count))
}

// SetRoomCount 设置当前房间数
func (p *Prometheus) SetRoomCount(count int) {
	p.roomsCurrent.Set(float64(count))
}

// SetRoomOccupation 设置房间占用数，归零时移除对应序列
func (p *Prometheus) SetRoomOccupation(roomID string, count int) {
	if count == 0 {
		p.roomOccupation.DeleteLabelValues(roomID)
		return
	}
	p.roomOccupation.WithLabelValues(roomID).Set(float64(count))
}

// IncrementMessages 房间广播一条消息
func (p *Prometheus) IncrementMessages(roomID string) {
	p.messagesTotal.WithLabelValues(roomID).Inc()
}

// IncrementInvalidMessages 丢弃一条无法解码的入站负载
func (p *Prometheus) IncrementInvalidMessages() {
	p.invalidMessages.Inc()
}

// IncrementDroppedMessages 出站发送失败丢弃一条消息
func (p *Prometheus) IncrementDroppedMessages() {
	p.droppedMessages.Inc()
}

// IncrementRejections 拒绝一次升级请求
func (p *Prometheus) IncrementRejections(reason string) {
	p.rejectionsTotal.WithLabelValues(reason).Inc()
}
