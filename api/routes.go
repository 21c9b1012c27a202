package api

import (
	"net/http"

	"github.com/b0bbywan/go-rtkit/logger"
)

func (s *Server) register() {
	// 404 on every unmatched path
	s.mux.HandleFunc("/", http.NotFound)

	s.registerServerRoutes()
	s.registerRTKitRoutes()

	if s.inspect != nil {
		s.mux.HandleFunc(
			"GET /status",
			JSONHandler(func(w http.ResponseWriter, r *http.Request) (any, error) {
				return s.inspect(r.Context())
			}),
		)
	}

	if s.promoter != nil {
		s.registerPromoterRoutes()
	}
}

func (s *Server) registerServerRoutes() {
	s.mux.HandleFunc(
		"GET /server",
		JSONHandler(func(w http.ResponseWriter, r *http.Request) (any, error) {
			return s.serverInfo(), nil
		}),
	)

	// SSE event stream
	if s.broadcaster != nil {
		s.mux.HandleFunc("GET /events", sseHandler(s.broadcaster, s.client.PolicyLimits))
		logger.Info("[api] SSE route registered at /events")
	}
}

func (s *Server) registerRTKitRoutes() {
	s.mux.HandleFunc(
		"GET /limits",
		JSONHandler(func(w http.ResponseWriter, r *http.Request) (any, error) {
			return s.client.PolicyLimits(r.Context())
		}),
	)
	s.mux.HandleFunc(
		"POST /threads/{tid}/realtime",
		realtimeHandler(s.client),
	)
	s.mux.HandleFunc(
		"POST /threads/{tid}/high",
		highPriorityHandler(s.client),
	)
	s.mux.HandleFunc(
		"POST /reset/known",
		func(w http.ResponseWriter, r *http.Request) {
			handleError(w, s.client.ResetKnown(r.Context()))
		},
	)
	s.mux.HandleFunc(
		"POST /reset/all",
		func(w http.ResponseWriter, r *http.Request) {
			handleError(w, s.client.ResetAll(r.Context()))
		},
	)
}

func (s *Server) registerPromoterRoutes() {
	s.mux.HandleFunc(
		"POST /promotions/apply",
		func(w http.ResponseWriter, r *http.Request) {
			handleError(w, s.promoter.Apply(r.Context()))
		},
	)
}
