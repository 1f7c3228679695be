package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"go.pilab.hu/shadow-auth/domain"
)

var (
	LoginSuccessTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_logins_success_total",
		Help: "Total number of successful federated logins.",
	}, []string{"provider"})
	LoginFailureTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_logins_failure_total",
		Help: "Total number of failed federated logins, by error code.",
	}, []string{"provider", "code"})
	AccountsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_accounts_created_total",
		Help: "Total number of accounts created on first login.",
	})
	LinksAddedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_identity_links_added_total",
		Help: "Total number of provider links appended to existing accounts.",
	}, []string{"provider"})
	IdentityConflictsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_identity_conflicts_total",
		Help: "Total number of logins rejected because a different identity of the provider is linked.",
	}, []string{"provider"})
	TokensIssuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_tokens_issued_total",
		Help: "Total number of access/refresh token pairs issued.",
	})
	TokensRefreshedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_tokens_refreshed_total",
		Help: "Total number of successful refresh token rotations.",
	})
	RefreshRejectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_refresh_rejected_total",
		Help: "Total number of rejected refresh token rotations.",
	})
	TokensRevokedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_tokens_revoked_total",
		Help: "Total number of refresh token revocations.",
	})
)

// InitCustomMetrics registers the service metrics with reg.
// It should be called once at application startup.
func InitCustomMetrics(reg prometheus.Registerer) {
	if reg == nil {
		log.Error().Msg("Prometheus registry is nil, cannot register custom metrics.")
		return
	}

	collectors := map[string]prometheus.Collector{
		"LoginSuccessTotal":      LoginSuccessTotal,
		"LoginFailureTotal":      LoginFailureTotal,
		"AccountsCreatedTotal":   AccountsCreatedTotal,
		"LinksAddedTotal":        LinksAddedTotal,
		"IdentityConflictsTotal": IdentityConflictsTotal,
		"TokensIssuedTotal":      TokensIssuedTotal,
		"TokensRefreshedTotal":   TokensRefreshedTotal,
		"RefreshRejectedTotal":   RefreshRejectedTotal,
		"TokensRevokedTotal":     TokensRevokedTotal,
	}
	for name, c := range collectors {
		if err := reg.Register(c); err != nil {
			log.Warn().Err(err).Str("metric", name).Msg("Failed to register metric")
		}
	}
	log.Info().Msg("Custom Prometheus metrics registered.")
}

// ProviderLabel maps a registration key from a request to a bounded label value.
func ProviderLabel(key string) string {
	if p, ok := domain.ParseProvider(key); ok {
		return p.String()
	}
	return "unknown"
}
