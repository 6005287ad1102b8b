// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPRequest(method, route string, statusCode int, duration time.Duration)
	RecordLogin(outcome string)
	RecordRegistration()
	RecordPostMutation(op string)
	RecordComment()
	RecordAuthorizationDenial(code string)
	RecordCSRFRejection()
	RecordSessionsPurged(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests   *prometheus.CounterVec
	httpLatency    *prometheus.HistogramVec
	logins         *prometheus.CounterVec
	registrations  prometheus.Counter
	postMutations  *prometheus.CounterVec
	comments       prometheus.Counter
	authzDenials   *prometheus.CounterVec
	csrfRejections prometheus.Counter
	sessionsPurged prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blog_http_requests_total",
			Help: "ルート・メソッド・ステータスコード別のHTTPリクエスト数",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "blog_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blog_logins_total",
			Help: "結果別のログイン試行数",
		}, []string{"outcome"}),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blog_registrations_total",
			Help: "アカウント登録の合計数",
		}),
		postMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blog_post_mutations_total",
			Help: "操作別の記事の作成・更新・削除数",
		}, []string{"op"}),
		comments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blog_comments_total",
			Help: "投稿されたコメントの合計数",
		}),
		authzDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blog_authorization_denials_total",
			Help: "エラーコード別のアクセス拒否数",
		}, []string{"code"}),
		csrfRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blog_csrf_rejections_total",
			Help: "CSRF検証で拒否されたリクエスト数",
		}),
		sessionsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blog_sessions_purged_total",
			Help: "削除された期限切れセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.logins,
		c.registrations,
		c.postMutations,
		c.comments,
		c.authzDenials,
		c.csrfRejections,
		c.sessionsPurged,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストの件数と処理時間を記録する。
// routeにはパスパラメータを含まないルートパターンを渡す。
func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordLogin はログイン試行を結果別に記録する。
func (c *Collector) RecordLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

// RecordRegistration はアカウント登録を記録する。
func (c *Collector) RecordRegistration() {
	c.registrations.Inc()
}

// RecordPostMutation は記事の作成・更新・削除を記録する。
func (c *Collector) RecordPostMutation(op string) {
	c.postMutations.WithLabelValues(op).Inc()
}

// RecordComment はコメント投稿を記録する。
func (c *Collector) RecordComment() {
	c.comments.Inc()
}

// RecordAuthorizationDenial はアクセス拒否を記録する。
func (c *Collector) RecordAuthorizationDenial(code string) {
	c.authzDenials.WithLabelValues(code).Inc()
}

// RecordCSRFRejection はCSRF検証による拒否を記録する。
func (c *Collector) RecordCSRFRejection() {
	c.csrfRejections.Inc()
}

// RecordSessionsPurged は削除した期限切れセッション数を記録する。
func (c *Collector) RecordSessionsPurged(count int64) {
	c.sessionsPurged.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
