package middleware

import (
	"context"
	"net/http"
	"strings"
)

type donorKey string

const donorIDKey donorKey = "donor_id"

// DonorIdentity lifts the opaque donor identity forwarded by the
// authenticating gateway into the request context. The core treats it
// as an already-verified principal; requests without one pass through
// and fail later wherever an identity is required.
func DonorIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		donor := strings.TrimSpace(r.Header.Get("X-Donor-ID"))
		if donor != "" {
			r = r.WithContext(context.WithValue(r.Context(), donorIDKey, donor))
		}
		next.ServeHTTP(w, r)
	})
}

// DonorIDFromContext returns the donor identity, empty when absent.
func DonorIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(donorIDKey).(string); ok {
		return v
	}
	return ""
}
