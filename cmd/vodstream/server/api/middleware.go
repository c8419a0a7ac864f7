package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const headerRequestID = "X-Request-Id"

type ctxKey int

const requestIDKey ctxKey = iota

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (s *statusWriter) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusWriter) Write(p []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(p)
}

// requestMiddleware tags request with an id and records its status
func (a *Api) requestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey, id))

		var (
			sw    = &statusWriter{ResponseWriter: w}
			begin = time.Now()
			route = routeName(r)
		)
		defer func() {
			status := sw.status
			if p := recover(); p != nil {
				// connection is dropped, nothing was or will be finished
				a.metrics.observeResponse(route, 0)
				logger.With("request_id", id, "route", route).Debugf("%s %s aborted after %v", r.Method, r.URL.Path, time.Since(begin))
				panic(p)
			}
			if status == 0 {
				status = http.StatusOK
			}
			a.metrics.observeResponse(route, status)
			logger.With("request_id", id, "route", route).Debugf("%s %s %d %v", r.Method, r.URL.Path, status, time.Since(begin))
		}()
		next.ServeHTTP(sw, r)
	})
}

func routeName(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return "unknown"
	}
	if n := route.GetName(); n != "" {
		return n
	}
	if t, err := route.GetPathTemplate(); err == nil {
		return t
	}
	return "unknown"
}

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey).(string)
	return id
}
