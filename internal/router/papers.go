package router

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/reslib/paper-metadata-api/internal/handlers"
	"github.com/reslib/paper-metadata-api/internal/jobs"
	"github.com/reslib/paper-metadata-api/internal/middleware"
	"github.com/reslib/paper-metadata-api/internal/services"
	"github.com/reslib/paper-metadata-api/internal/utils"
)

func NewRouter(paperService services.PaperService, pool *jobs.Pool, logger *utils.Logger) http.Handler {
	r := mux.NewRouter()

	// Middlewares
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS())
	r.Use(middleware.Recovery(logger))

	paperHandler := handlers.NewPaperHandler(paperService, pool, logger)

	// Routes
	api := r.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	// Paper endpoints
	api.HandleFunc("/papers/upload", paperHandler.UploadPaper).Methods(http.MethodPost)
	api.HandleFunc("/papers/{id}", paperHandler.GetPaper).Methods(http.MethodGet)
	api.HandleFunc("/jobs/{id}", paperHandler.JobStatus).Methods(http.MethodGet)

	return r
}
