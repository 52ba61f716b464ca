// -----------------------------------------------------------------------
// Last Modified: Saturday, 17th October 2026 2:51:07 pm
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Analysis
	mux.HandleFunc("/api/analyze", s.app.AnalyzeHandler.AnalyzeHandler) // POST {query}

	// API routes - Jobs (read path for polling)
	mux.HandleFunc("/api/jobs", s.app.JobHandler.ListJobsHandler) // GET ?limit=n
	mux.HandleFunc("/api/jobs/", s.app.JobHandler.GetJobHandler)  // GET /{id}

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// Root accepts analysis posts directly; anything else under it is unknown
	mux.HandleFunc("/", s.handleRoot)

	return mux
}

// handleRoot sends POST / to the analyze handler and 404s other paths
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.app.APIHandler.NotFoundHandler(w, r)
		return
	}

	RouteByMethod(w, r, MethodRouter{
		http.MethodPost: s.app.AnalyzeHandler.AnalyzeHandler,
		http.MethodGet:  s.app.APIHandler.HealthHandler,
	})
}
