package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"vizzydb/pkg/api/handlers"
	"vizzydb/pkg/chat"
	"vizzydb/pkg/exports"
)

// Handler builds the HTTP surface:
// - POST /v1/exports               run the export guard for a campaign body
// - GET  /v1/exports?campaign=<id> export history for a campaign
// - GET  /v1/threads/active        get-or-create the tenant's active thread
// - POST /v1/threads/{id}/messages append (requires client_msg_id)
// - GET  /v1/threads/{id}/messages ordered live messages
func Handler(exp *exports.Service, ch *chat.Service) http.Handler {
	r := mux.NewRouter()

	// Liveness probe used by deployment systems and CI
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.Handler())
	r.PathPrefix("/docs/").Handler(httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))
	r.Handle("/openapi.yaml", http.FileServer(http.Dir("./docs")))

	v1 := r.PathPrefix("/v1").Subrouter()
	handlers.RegisterExports(v1, exp)
	handlers.RegisterThreads(v1, ch)
	return r
}
