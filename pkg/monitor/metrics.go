package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 定义 keygen 和证书验证的业务监控指标
type Metrics struct {
	NodesDerivedTotal   *prometheus.CounterVec
	CertificatesIssued  *prometheus.CounterVec
	VerificationsTotal  *prometheus.CounterVec
	KeygenDuration      *prometheus.HistogramVec
	DelegatedKeysIssued prometheus.Counter
}

// NewMetrics 在 reg 上注册并返回指标。reg 为 nil 时使用一个私有的 Registry，
// 便于测试和多实例共存。
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		NodesDerivedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arcula_nodes_derived_total",
			Help: "The total number of derived nodes",
		}, []string{"mode"}),
		CertificatesIssued: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arcula_certificates_issued_total",
			Help: "The total number of issued certificates",
		}, []string{"scheme"}),
		VerificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arcula_certificate_verifications_total",
			Help: "Certificate link verifications by result",
		}, []string{"result"}),
		KeygenDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "arcula_keygen_duration_seconds",
			Help:    "Duration of keygen runs",
			Buckets: prometheus.DefBuckets,
		}, []string{"traversal"}),
		DelegatedKeysIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "arcula_delegated_children_total",
			Help: "Children certified through a delegated signing key",
		}),
	}
}

// 以下方法对 nil 接收者安全，组件未配置指标时直接忽略

func (m *Metrics) NodeDerived(mode string) {
	if m != nil {
		m.NodesDerivedTotal.WithLabelValues(mode).Inc()
	}
}

func (m *Metrics) CertificateIssued(scheme string) {
	if m != nil {
		m.CertificatesIssued.WithLabelValues(scheme).Inc()
	}
}

// Verification 记录一次链接验证: valid、cached 或 rejected
func (m *Metrics) Verification(ok, cached bool) {
	if m == nil {
		return
	}
	result := "valid"
	switch {
	case !ok:
		result = "rejected"
	case cached:
		result = "cached"
	}
	m.VerificationsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveKeygen(traversal string, start time.Time) {
	if m != nil {
		m.KeygenDuration.WithLabelValues(traversal).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Delegated() {
	if m != nil {
		m.DelegatedKeysIssued.Inc()
	}
}
