// Package api exposes the chat and knowledge-base administration endpoints.
package api

import (
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"sarthi/internal/logger"
)

// responseWriter captures the status code for the access log.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs method, path, status and latency.
func loggingMiddleware(log *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)
			log.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Int("status", wrapped.statusCode),
				zap.Duration("latency", time.Since(start)),
			)
		})
	}
}

// corsMiddleware allows any origin; the frontend may be served elsewhere.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewRouter registers every route. Static files are served from staticDir
// when it exists.
func NewRouter(h *Handler, auth *Auth, staticDir string, log *zap.Logger) *mux.Router {
	log = logger.OrNop(log)
	r := mux.NewRouter()

	r.Use(loggingMiddleware(log))
	r.Use(corsMiddleware)

	r.HandleFunc("/chat", h.HandleChat).Methods("POST", "OPTIONS")
	r.HandleFunc("/greet", h.HandleGreet).Methods("GET")
	r.HandleFunc("/health", h.HandleHealth).Methods("GET")
	r.HandleFunc("/admin/login", auth.HandleLogin).Methods("POST", "OPTIONS")

	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(auth.Middleware)
	admin.HandleFunc("/upload_faq", h.HandleUploadFAQ).Methods("POST", "OPTIONS")
	admin.HandleFunc("/upload_pdf", h.HandleUploadPDF).Methods("POST", "OPTIONS")
	admin.HandleFunc("/stats", h.HandleStats).Methods("GET")
	admin.HandleFunc("/get_faqs", h.HandleGetFAQs).Methods("GET")
	admin.HandleFunc("/delete_faq", h.HandleDeleteFAQ).Methods("DELETE", "OPTIONS")
	admin.HandleFunc("/update_faq", h.HandleUpdateFAQ).Methods("PUT", "OPTIONS")
	admin.HandleFunc("/export_faqs", h.HandleExportFAQs).Methods("GET")

	if info, err := os.Stat(staticDir); err == nil && info.IsDir() {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(staticDir)))
	} else if staticDir != "" {
		log.Info("static frontend not found, serving API only", zap.String("dir", staticDir))
	}
	return r
}
