package daemon

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"clapper/internal/logging"
)

// requireToken guards operator routes with a static bearer token. An empty
// token leaves the route open; config validate warns about that.
func (s *apiServer) requireToken(token string, next http.HandlerFunc) http.HandlerFunc {
	if token == "" {
		return next
	}
	want := []byte(token)
	return func(w http.ResponseWriter, r *http.Request) {
		presented, ok := bearerToken(r)
		if !ok || subtle.ConstantTimeCompare([]byte(presented), want) != 1 {
			s.logger.Debug("api request rejected",
				logging.String("path", r.URL.Path),
				logging.String("remote", remoteIP(r)),
				logging.Bool("token_present", ok),
			)
			w.Header().Set("WWW-Authenticate", `Bearer realm="clapper"`)
			s.writeError(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, value, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}
