package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/b0bbywan/go-rtkit/events"
	"github.com/b0bbywan/go-rtkit/logger"
	"github.com/b0bbywan/go-rtkit/rtkit"
)

// LimitsFunc reads the daemon's current policy limits.
type LimitsFunc func(ctx context.Context) (rtkit.PolicyLimits, error)

// Stream states carried by server.info events.
const (
	streamConnected = "connected"
	streamAlive     = "alive"
	streamClosing   = "bye"
)

// streamInfo is the payload of server.info events. The connect event carries
// the policy limits in force, or why they could not be read.
type streamInfo struct {
	State       string              `json:"state"`
	Limits      *rtkit.PolicyLimits `json:"limits,omitempty"`
	LimitsError string              `json:"limits_error,omitempty"`
}

// stream is one /events connection.
type stream struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// sseHandler streams the promoter's events. Every connection opens with a
// snapshot of the daemon's limits so clients can validate requests before
// the first promotion event arrives.
func sseHandler(b *Broadcaster, limits LimitsFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		keepAliveDuration, err := parseKeepAlive(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		h := w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")

		s := stream{w: w, flusher: flusher}
		if err := s.info(connectInfo(r.Context(), limits)); err != nil {
			return
		}

		ch := b.SubscribeFunc(filter)
		defer b.Unsubscribe(ch)
		s.serve(r.Context(), ch, keepAliveDuration)
	}
}

func connectInfo(ctx context.Context, limits LimitsFunc) streamInfo {
	info := streamInfo{State: streamConnected}
	if limits == nil {
		return info
	}
	snapshot, err := limits(ctx)
	if err != nil {
		logger.Debug("[sse] policy limits unavailable for new stream: %v", err)
		info.LimitsError = err.Error()
		return info
	}
	info.Limits = &snapshot
	return info
}

// serve forwards events until the client leaves or the subscription ends.
// A server.info keep-alive goes out after every idle period.
func (s stream) serve(ctx context.Context, ch <-chan events.Event, idle time.Duration) {
	keepAlive := time.NewTimer(idle)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := s.info(streamInfo{State: streamClosing}); err != nil {
				logger.Debug("[sse] client left before bye: %v", err)
			}
			return
		case <-keepAlive.C:
			if err := s.info(streamInfo{State: streamAlive}); err != nil {
				logger.Warn("[sse] keep-alive failed, closing stream: %v", err)
				return
			}
		case e, ok := <-ch:
			if !ok {
				return
			}
			if err := s.send(e); err != nil {
				return
			}
		}
		keepAlive.Reset(idle)
	}
}

func (s stream) info(info streamInfo) error {
	return s.send(events.Event{Type: events.TypeServerInfo, Data: info})
}

func (s stream) send(e events.Event) error {
	data, err := json.Marshal(e.Data)
	if err != nil {
		logger.Warn("[sse] cannot encode %s event: %v", e.Type, err)
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", e.Type, data); err != nil {
		logger.Error("[sse] failed to write %s event: %v", e.Type, err)
		return err
	}
	s.flusher.Flush()
	return nil
}

// parseKeepAlive reads the optional ?keepalive=<seconds> query parameter.
// Default: 30s. Min: 10s. Max: 120s.
func parseKeepAlive(r *http.Request) (time.Duration, error) {
	const defaultKeepalive = 30 * time.Second
	raw := r.URL.Query().Get("keepalive")
	if raw == "" {
		return defaultKeepalive, nil
	}
	secs, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("keepalive must be an integer (seconds)")
	}
	if secs < 10 || secs > 120 {
		return 0, errors.New("keepalive must be between 10 and 120 seconds")
	}
	return time.Duration(secs) * time.Second, nil
}

// parseFilter builds an event filter from the request's query parameters:
//   - ?types=promotion.failed        comma-separated event types to include
//   - ?groups=promotion,config       comma-separated groups, see events.GroupTypes
//   - ?exclude=config.reloaded       comma-separated event types to exclude
//
// server.info is always delivered and cannot be excluded.
func parseFilter(r *http.Request) (events.Filter, error) {
	q := r.URL.Query()

	grouped, err := events.ResolveGroups(splitList(q.Get("groups")))
	if err != nil {
		return nil, err
	}
	include := append(splitList(q.Get("types")), grouped...)
	if len(include) > 0 && !slices.Contains(include, events.TypeServerInfo) {
		include = append(include, events.TypeServerInfo)
	}

	exclude := splitList(q.Get("exclude"))
	if slices.Contains(exclude, events.TypeServerInfo) {
		return nil, errors.New("server.info cannot be excluded")
	}

	return events.NewFilter(include, exclude), nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
