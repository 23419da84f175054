package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Belphemur/MovieMatch/internal/config"
	"github.com/Belphemur/MovieMatch/internal/metrics"
	"github.com/Belphemur/MovieMatch/internal/session"
)

// accessLog logs one line per request and records API metrics by route pattern
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		elapsed := time.Since(start)
		metrics.APIRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		metrics.APIRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())

		logger := config.GetLogger()
		event := logger.Debug()
		if status >= http.StatusInternalServerError {
			event = logger.Warn()
		}
		event.
			Str("requestID", chimiddleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("route", route).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", elapsed).
			Msg("API request")
	})
}

type sessionKey struct{}

// sessionHandle is the request's view of its session
type sessionHandle struct {
	token  string
	sess   *session.Session
	writer *session.Writer
	store  *session.Store
}

// save persists the session. Handlers that change the session call it before responding.
func (s *sessionHandle) save() {
	s.store.Save(s.token, s.sess.Snapshot())
}

// withSession loads the session named by the token header, or starts a new one when the
// token is missing or unknown. The token in use is echoed in the response header.
func (h *Handler) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(SessionHeader)
		sess, writer, err := h.deps.Sessions.Load(token)
		if err != nil {
			if token != "" {
				logger := config.GetLogger()
				logger.Debug().Err(err).Msg("Unknown session token, starting a new session")
			}
			token = h.deps.Sessions.Create()
			sess, writer = session.New()
		}

		w.Header().Set(SessionHeader, token)
		handle := &sessionHandle{token: token, sess: sess, writer: writer, store: h.deps.Sessions}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, handle)))
	})
}

func sessionFrom(r *http.Request) *sessionHandle {
	return r.Context().Value(sessionKey{}).(*sessionHandle)
}
