package shared

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/phrazzld/json-bucket/internal/domain"
)

// ReadBody reads the whole request body, refusing bodies larger than limit
// bytes. An oversized body yields an error wrapping domain.ErrPayloadTooLarge.
// Any other read failure, such as the client going away mid-upload, wraps
// domain.ErrParse. A non-positive limit disables the check.
func ReadBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	body := r.Body
	if limit > 0 {
		body = http.MaxBytesReader(w, r.Body, limit)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: limit is %d bytes", domain.ErrPayloadTooLarge, tooLarge.Limit)
		}
		return nil, fmt.Errorf("%w: failed to read request body: %v", domain.ErrParse, err)
	}
	return data, nil
}
