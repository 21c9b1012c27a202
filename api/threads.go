package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/b0bbywan/go-rtkit/rtkit"
)

type realtimeRequest struct {
	PID      uint64 `json:"pid"`
	Priority uint32 `json:"priority"`
}

type highPriorityRequest struct {
	PID  uint64 `json:"pid"`
	Nice int32  `json:"nice"`
}

func validateRealtime(req *realtimeRequest) error {
	if req.Priority == 0 {
		return errors.New("priority must be positive")
	}
	return nil
}

// withThread extracts the thread id and calls next
func withThread(
	next func(w http.ResponseWriter, r *http.Request, tid uint64),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, err := strconv.ParseUint(r.PathValue("tid"), 10, 64)
		if err != nil || tid == 0 {
			http.Error(w, "invalid thread id", http.StatusNotFound)
			return
		}
		next(w, r, tid)
	}
}

func realtimeHandler(c Client) http.HandlerFunc {
	return withThread(func(w http.ResponseWriter, r *http.Request, tid uint64) {
		withBody(validateRealtime, func(w http.ResponseWriter, r *http.Request, req *realtimeRequest) {
			handleError(w, c.Apply(r.Context(), req.PID, tid, rtkit.RealtimeRequest(req.Priority)))
		})(w, r)
	})
}

func highPriorityHandler(c Client) http.HandlerFunc {
	return withThread(func(w http.ResponseWriter, r *http.Request, tid uint64) {
		withBody(nil, func(w http.ResponseWriter, r *http.Request, req *highPriorityRequest) {
			handleError(w, c.Apply(r.Context(), req.PID, tid, rtkit.HighPriorityRequest(req.Nice)))
		})(w, r)
	})
}
