// Package network provides network-related utilities.
package network

import (
	"net"
	"net/http"
)

// ClientIP returns the caller's address without the port. The router runs
// chi's RealIP middleware first, so RemoteAddr already reflects
// X-Forwarded-For / X-Real-IP when a proxy sets them.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RealIP stores the bare address, with no port.
		return r.RemoteAddr
	}
	return host
}
