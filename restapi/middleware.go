package restapi

import (
	"net"
	"net/http"
)

// LoopbackOnly rejects any request whose peer address isn't loopback,
// before any route handler runs. Patterned after
// bobbydeveaux-starbucks-mugs/internal/server/rest's JWTMiddleware
// shape, checking the connection's remote address instead of a bearer
// token: spec.md §4.6 requires the command front-end never be reachable
// from outside the local host, regardless of what address it's bound
// to.
func LoopbackOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		ip := net.ParseIP(host)
		if ip == nil || !ip.IsLoopback() {
			writeError(w, http.StatusForbidden, "command interface is loopback-only")
			return
		}
		next.ServeHTTP(w, r)
	})
}
