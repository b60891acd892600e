package pkg

import (
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strings"
)

var (
	localDockerIpRegex = regexp.MustCompile(`^172\.\d{1,3}\.0\.1:\d{1,5}`)
)

func IPIsLocal(ipAddr string) bool {
	// used in local development ?
	if strings.HasPrefix(ipAddr, "127.0.0.1:") {
		return true
	}

	// user within docker container ?
	return localDockerIpRegex.MatchString(ipAddr)
}

// ReadUserIP returns the client IP. Forwarding headers are client controlled,
// so they are only read when the connection comes from a local reverse proxy,
// and then only the right-most X-Forwarded-For entry, the one the proxy appended.
func ReadUserIP(r *http.Request) (string, error) {
	ipAddr := r.RemoteAddr
	if IPIsLocal(ipAddr) {
		forwardedFor := r.Header.Get("X-Forwarded-For")
		if forwardedFor == "" {
			return "localhost", nil
		}
		hops := strings.Split(forwardedFor, ",")
		ipAddr = strings.TrimSpace(hops[len(hops)-1])
	}

	if host, _, err := net.SplitHostPort(ipAddr); err == nil {
		ipAddr = host
	}

	if ip := net.ParseIP(ipAddr); ip == nil {
		return "", fmt.Errorf("ip addr %s is invalid", ipAddr)
	}

	return ipAddr, nil
}
