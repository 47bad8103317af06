package handler

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"

	pkghttputil "github.com/utafrali/storefront/pkg/httputil"
)

// metricsIPAllowlist restricts a handler to clients whose address falls in
// one of cidrs. Unparsable entries are logged and skipped.
func metricsIPAllowlist(cidrs []string, logger *slog.Logger) func(http.Handler) http.Handler {
	prefixes := make([]netip.Prefix, 0, len(cidrs))
	for _, cidr := range cidrs {
		p, err := netip.ParsePrefix(cidr)
		if err != nil {
			logger.Warn("invalid metrics CIDR, skipping", slog.String("cidr", cidr), slog.String("error", err.Error()))
			continue
		}
		prefixes = append(prefixes, p.Masked())
	}

	allowed := func(remoteAddr string) bool {
		host, _, err := net.SplitHostPort(remoteAddr)
		if err != nil {
			host = remoteAddr
		}
		addr, err := netip.ParseAddr(host)
		if err != nil {
			return false
		}
		addr = addr.Unmap()
		for _, p := range prefixes {
			if p.Contains(addr) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allowed(r.RemoteAddr) {
				logger.WarnContext(r.Context(), "metrics access denied", slog.String("remote_addr", r.RemoteAddr))
				pkghttputil.WriteJSON(w, http.StatusForbidden, pkghttputil.Response{
					Error: &pkghttputil.ErrorResponse{Code: "FORBIDDEN", Message: "metrics endpoint is restricted"},
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
