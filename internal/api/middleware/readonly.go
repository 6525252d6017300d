package middleware

import (
	"net/http"

	"github.com/phrazzld/json-bucket/internal/api/shared"
	"github.com/phrazzld/json-bucket/internal/domain"
)

// RejectWrites guards write routes. When readOnly is set every request is
// answered with 403 before its body is read; otherwise requests pass through.
func RejectWrites(readOnly bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !readOnly {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			shared.RespondWithErrorAndLog(w, r, http.StatusForbidden,
				domain.ErrReadOnly.Error(), domain.ErrReadOnly, shared.WithElevatedLogLevel())
		})
	}
}
