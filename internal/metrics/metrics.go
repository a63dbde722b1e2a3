// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 招待サービスやワーカーから利用する。
type MetricsCollector interface {
	RecordInvitationSuccess(role string)
	RecordInvitationConflict(role string)
	RecordIdentityError(reason string)
	RecordCompensation(role string)
	RecordAssignmentFailure()
	RecordReconcileDeleted(count int)
	RecordInvitationDuration(role string, duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	invitationSuccess  *prometheus.CounterVec
	invitationConflict *prometheus.CounterVec
	identityErrors     *prometheus.CounterVec
	compensations      *prometheus.CounterVec
	assignmentFailures prometheus.Counter
	reconcileDeleted   prometheus.Counter
	invitationDuration *prometheus.HistogramVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		invitationSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sumika_invitations_success_total",
			Help: "招待成功の合計数（役割別）",
		}, []string{"role"}),
		invitationConflict: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sumika_invitations_conflict_total",
			Help: "メール重複により拒否された招待の合計数（役割別）",
		}, []string{"role"}),
		identityErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sumika_identity_errors_total",
			Help: "IDプロバイダのエラー合計数（理由別）",
		}, []string{"reason"}),
		compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sumika_compensations_total",
			Help: "補償処理（ID削除）の実行合計数（役割別）",
		}, []string{"role"}),
		assignmentFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sumika_assignment_failures_total",
			Help: "部屋・契約割り当て失敗の合計数（非致命的）",
		}),
		reconcileDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sumika_reconcile_deleted_total",
			Help: "整理ジョブが削除した孤児IDの合計数",
		}),
		invitationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sumika_invitation_duration_seconds",
			Help:    "招待ワークフローの所要時間（秒・役割別）",
			Buckets: prometheus.DefBuckets,
		}, []string{"role"}),
	}

	reg.MustRegister(
		c.invitationSuccess,
		c.invitationConflict,
		c.identityErrors,
		c.compensations,
		c.assignmentFailures,
		c.reconcileDeleted,
		c.invitationDuration,
	)

	return c
}

// RecordInvitationSuccess は招待成功を記録する。
func (c *Collector) RecordInvitationSuccess(role string) {
	c.invitationSuccess.WithLabelValues(role).Inc()
}

// RecordInvitationConflict はメール重複による拒否を記録する。
func (c *Collector) RecordInvitationConflict(role string) {
	c.invitationConflict.WithLabelValues(role).Inc()
}

// RecordIdentityError はIDプロバイダのエラーを理由別に記録する。
func (c *Collector) RecordIdentityError(reason string) {
	c.identityErrors.WithLabelValues(reason).Inc()
}

// RecordCompensation は補償処理（作成済みIDの削除）を記録する。
func (c *Collector) RecordCompensation(role string) {
	c.compensations.WithLabelValues(role).Inc()
}

// RecordAssignmentFailure は部屋・契約割り当ての失敗を記録する。
func (c *Collector) RecordAssignmentFailure() {
	c.assignmentFailures.Inc()
}

// RecordReconcileDeleted は整理ジョブが削除した孤児ID数を記録する。
func (c *Collector) RecordReconcileDeleted(count int) {
	c.reconcileDeleted.Add(float64(count))
}

// RecordInvitationDuration は招待ワークフローの所要時間を記録する。
func (c *Collector) RecordInvitationDuration(role string, duration time.Duration) {
	c.invitationDuration.WithLabelValues(role).Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
