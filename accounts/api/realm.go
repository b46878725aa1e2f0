package api

import (
	"net/http"
	"regexp"

	"github.com/andrebq/pressbox/accounts"
	"github.com/andrebq/pressbox/internal/logutil"
	"github.com/andrebq/pressbox/ledger"
)

type (
	// SecurityRealm gates sensitive handlers behind the bearer
	// credential issued at registration.
	SecurityRealm struct {
		store *ledger.L
		cache CredentialCache
	}
)

var (
	bearerCredentialRE = regexp.MustCompile(`^Bearer ([^\s]+)$`)
)

func NewRealm(store *ledger.L, cache CredentialCache) *SecurityRealm {
	return &SecurityRealm{
		store: store,
		cache: cache,
	}
}

// Protect wraps sensitive so it only runs for requests carrying a valid
// "Authorization: Bearer <username:token>" header. Invalid or missing
// credentials end the request with 401; a failing ledger ends it with 503
// instead, being unable to check a credential is not the same as the
// credential being wrong.
func (s *SecurityRealm) Protect(sensitive http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, err := s.checkCredential(r)
		if err != nil {
			http.Error(w, "Unable to verify credentials", http.StatusServiceUnavailable)
			return
		}
		if !ok {
			http.Error(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}
		sensitive.ServeHTTP(w, r)
	})
}

func (s *SecurityRealm) checkCredential(r *http.Request) (bool, error) {
	ctx := r.Context()
	log := logutil.GetOrDefault(ctx)
	groups := bearerCredentialRE.FindStringSubmatch(r.Header.Get("Authorization"))
	if len(groups) == 0 {
		return false, nil
	}
	credential := groups[1]
	if s.cache != nil {
		found, err := s.cache.Recall(ctx, credential)
		if err == nil && found {
			return true, nil
		}
	}
	ok, err := accounts.Authorize(ctx, s.store, credential)
	if err != nil {
		log.Error().Err(err).Msg("Unable to check credential against the ledger")
		return false, err
	}
	if ok && s.cache != nil {
		s.cache.Remember(ctx, credential)
	}
	return ok, nil
}
