package api

import (
	"net/http"

	"github.com/b0bbywan/go-rtkit/rtkit"
)

var kindStatus = map[rtkit.ErrorKind]int{
	rtkit.RemoteUnavailable:      http.StatusServiceUnavailable,
	rtkit.PermissionDenied:       http.StatusForbidden,
	rtkit.PriorityOutOfRange:     http.StatusBadRequest,
	rtkit.RateLimited:            http.StatusTooManyRequests,
	rtkit.LimitNegotiationFailed: http.StatusInternalServerError,
	rtkit.Unknown:                http.StatusBadGateway,
}

// statusFor returns the HTTP status reporting err.
func statusFor(err error) int {
	if kind, ok := rtkit.KindOf(err); ok {
		return kindStatus[kind]
	}
	return http.StatusInternalServerError
}

// handleError answers 202 for a nil error and the matching status otherwise.
func handleError(w http.ResponseWriter, err error) {
	if err == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	http.Error(w, err.Error(), statusFor(err))
}
