package mw

import (
	"net"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/linemark/internal/logger"
	"github.com/MrSnakeDoc/linemark/internal/utils"
)

func passthrough(next http.Handler) http.Handler { return next }

func forbidden(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"error":"forbidden"}` + "\n"))
}

// AllowOnlyCIDRS rejects callers whose address is not covered by allowed.
// An empty list admits everyone. trustProxy resolves the caller from the
// forwarding headers of a reverse proxy.
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	m := utils.NewIPMatcher(allowed)
	if m.Len() == 0 {
		return passthrough
	}
	log = log.Named("access")
	log.Debug("client allow-list enabled",
		logger.Int("rules", m.Len()),
		logger.Bool("trust_proxy", trustProxy))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)
			if !m.Allow(ip) {
				log.Warn("client rejected",
					logger.String("ip", ip),
					logger.Path(r.URL.Path))
				forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// EnforceHost admits requests whose Host header matches one of hosts.
// Matching ignores case. "*.example.com" covers every subdomain, and a
// pattern without a port matches any port. An empty list admits everything.
func EnforceHost(hosts []string, log logger.Logger) func(http.Handler) http.Handler {
	if len(hosts) == 0 {
		return passthrough
	}
	log = log.Named("access")
	log.Debug("host enforcement enabled", logger.Strings("hosts", hosts))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, pattern := range hosts {
				if matchHost(r.Host, pattern) {
					next.ServeHTTP(w, r)
					return
				}
			}
			log.Warn("host rejected",
				logger.String("host", r.Host),
				logger.Path(r.URL.Path))
			forbidden(w)
		})
	}
}

func matchHost(host, pattern string) bool {
	host, pattern = strings.ToLower(host), strings.ToLower(strings.TrimSpace(pattern))
	if host == pattern {
		return true
	}
	if _, _, err := net.SplitHostPort(pattern); err != nil {
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
	}
	if strings.HasPrefix(pattern, "*.") {
		return strings.HasSuffix(host, pattern[1:])
	}
	return host == pattern
}
