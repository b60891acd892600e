package middleware

import (
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// bodies bigger than this are closed without reading the rest
const maxDrainBytes = 256 << 10

// DrainAndCloseRequest reads what the handler left of the request body and
// closes it, so the connection can be reused.
func DrainAndCloseRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			if r.Body == nil || r.Body == http.NoBody {
				return
			}
			if n, err := io.CopyN(io.Discard, r.Body, maxDrainBytes); err == nil {
				log.Tracef("drain request body [%s]: stopped after %d bytes", r.URL.Path, n)
			}
			_ = r.Body.Close()
		})
	}
}
