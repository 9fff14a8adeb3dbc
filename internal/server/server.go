// Package server exposes the dashboard aggregates as a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/0x0BSoD/newsInsight/internal/analytics"
	"github.com/0x0BSoD/newsInsight/internal/dashboard"
)

const dateLayout = "2006-01-02"

type Dashboard interface {
	Sources(ctx context.Context, from, to time.Time, n int) (dashboard.SourcesReport, error)
	Countries(ctx context.Context) ([]dashboard.CountryDomains, error)
	Timeline(ctx context.Context, from, to time.Time) ([]dashboard.DayCount, error)
	Traffic(ctx context.Context, limit int) ([]dashboard.TrafficRank, error)
	Sentiment(ctx context.Context, from, to time.Time) ([]analytics.SentimentDistribution, error)
	Mentions(ctx context.Context, maxRows int) ([]analytics.CountryCount, error)
	Similarity(ctx context.Context, limit int) ([]analytics.ArticleSimilarity, error)
	Topics(ctx context.Context) (dashboard.TopicRun, error)
}

var _ Dashboard = (*dashboard.Service)(nil)

// errBadRequest marks query parameter errors, answered with 400.
var errBadRequest = errors.New("bad request")

type Server struct {
	dash Dashboard
	log  logrus.FieldLogger
}

func New(dash Dashboard, log logrus.FieldLogger) *Server {
	return &Server{dash: dash, log: log.WithField("component", "http")}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/sources", s.handle(func(req *http.Request) (any, error) {
			from, to, err := dateRange(req)
			if err != nil {
				return nil, err
			}
			n, err := queryInt(req, "limit", dashboard.DefaultTopN)
			if err != nil {
				return nil, err
			}
			return s.dash.Sources(req.Context(), from, to, n)
		}))

		r.Get("/countries", s.handle(func(req *http.Request) (any, error) {
			return s.dash.Countries(req.Context())
		}))

		r.Get("/timeline", s.handle(func(req *http.Request) (any, error) {
			from, to, err := dateRange(req)
			if err != nil {
				return nil, err
			}
			return s.dash.Timeline(req.Context(), from, to)
		}))

		r.Get("/traffic", s.handle(func(req *http.Request) (any, error) {
			limit, err := queryInt(req, "limit", 10)
			if err != nil {
				return nil, err
			}
			return s.dash.Traffic(req.Context(), limit)
		}))

		r.Get("/sentiment", s.handle(func(req *http.Request) (any, error) {
			from, to, err := dateRange(req)
			if err != nil {
				return nil, err
			}
			return s.dash.Sentiment(req.Context(), from, to)
		}))

		r.Get("/mentions", s.handle(func(req *http.Request) (any, error) {
			maxRows, err := queryInt(req, "max_rows", 0)
			if err != nil {
				return nil, err
			}
			return s.dash.Mentions(req.Context(), maxRows)
		}))

		r.Get("/similarity", s.handle(func(req *http.Request) (any, error) {
			limit, err := queryInt(req, "limit", 20)
			if err != nil {
				return nil, err
			}
			return s.dash.Similarity(req.Context(), limit)
		}))

		r.Get("/topics", s.handle(func(req *http.Request) (any, error) {
			return s.dash.Topics(req.Context())
		}))
	})

	return r
}

func (s *Server) handle(fn func(r *http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := fn(r)
		switch {
		case errors.Is(err, errBadRequest):
			writeError(w, http.StatusBadRequest, err)
		case err != nil:
			s.log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
			writeError(w, http.StatusInternalServerError, errors.New("internal error"))
		default:
			writeJSON(w, http.StatusOK, v)
		}
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start),
			"request":  middleware.GetReqID(r.Context()),
		}).Debug("handled")
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", errBadRequest, key)
	}
	return v, nil
}

func queryDate(r *http.Request, key string) (time.Time, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", errBadRequest, key)
	}
	return t, nil
}

func dateRange(r *http.Request) (time.Time, time.Time, error) {
	from, err := queryDate(r, "from")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := queryDate(r, "to")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: to is before from", errBadRequest)
	}
	return from, to, nil
}
