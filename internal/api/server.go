// Package api serves compliance summaries and event history over HTTP.
package api

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/ppe-watch/compliance/internal/db"
	"github.com/ppe-watch/compliance/internal/events"
	"github.com/ppe-watch/compliance/internal/httputil"
	"github.com/ppe-watch/compliance/internal/report"
	"github.com/ppe-watch/compliance/internal/zones"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

const defaultEventLimit = 100

type Server struct {
	db     *db.DB
	reader *events.Reader
	zones  zones.Config
	loc    *time.Location
}

func NewServer(database *db.DB, reader *events.Reader, zoneConfig zones.Config, loc *time.Location) *Server {
	if loc == nil {
		loc = time.Local
	}
	return &Server{
		db:     database,
		reader: reader,
		zones:  zoneConfig,
		loc:    loc,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/healthz", s.healthz)
	mux.HandleFunc("/api/summary", s.showSummary)
	mux.HandleFunc("/api/events", s.listEvents)
	mux.HandleFunc("/api/zones", s.showZones)
	mux.HandleFunc("/api/reports", s.listReports)
	return mux
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, map[string]string{"status": "ok"})
}

// showSummary aggregates one day's event log on demand. The date
// parameter defaults to today in the configured timezone.
func (s *Server) showSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().In(s.loc).Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		httputil.BadRequest(w, "Invalid 'date' parameter, want YYYY-MM-DD")
		return
	}

	evs, err := s.reader.LoadDay(date)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to load events: %v", err))
		return
	}

	httputil.WriteJSONOK(w, report.Aggregate(date, evs, s.loc, 0))
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	limit := defaultEventLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			httputil.BadRequest(w, "Invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	var evs interface{}
	var err error
	if day := r.URL.Query().Get("day"); day != "" {
		evs, err = s.db.EventsForDay(day)
	} else {
		evs, err = s.db.RecentEvents(limit)
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to retrieve events: %v", err))
		return
	}

	httputil.WriteJSONOK(w, evs)
}

func (s *Server) showZones(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.zones)
}

func (s *Server) listReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			httputil.BadRequest(w, "Invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	reports, err := s.db.RecentDailyReports(limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to retrieve reports: %v", err))
		return
	}
	httputil.WriteJSONOK(w, reports)
}
