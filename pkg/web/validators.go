package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
)

// ParseValidateGte parses the named query parameter as an int32 and requires
// it to be at least min. Used for offsets, which start at 0.
func ParseValidateGte(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, min int64) (int32, bool) {
	return parseQueryInt(r, w, logger, key, func(v int64) bool { return v >= min })
}

// ParseValidateGt requires the parameter to be strictly greater than floor.
// Used for limits and version numbers, which start at 1.
func ParseValidateGt(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, floor int64) (int32, bool) {
	return parseQueryInt(r, w, logger, key, func(v int64) bool { return v > floor })
}

func parseQueryInt(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, valid func(int64) bool) (int32, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("%s url parameter is required", key))
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || !valid(v) {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s number: %s", key, raw))
		return 0, false
	}
	return int32(v), true
}
