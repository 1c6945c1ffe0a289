package shared

import (
	"net/url"
	"strconv"
)

// MaxPageSize caps list page sizes regardless of what the client asks for.
const MaxPageSize = 200

// LimitOffset reads limit/offset query parameters for list endpoints. Missing
// or malformed values fall back to defaultLimit and offset 0; limit is
// clamped to MaxPageSize.
func LimitOffset(q url.Values, defaultLimit int) (limit, offset int) {
	limit = defaultLimit
	if raw := q.Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if raw := q.Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}
