package handler

import "net/http"

// HandleHealth answers liveness probes.
//
// HTTP: GET /healthz
//
// Deliberately dependency-free: it reports "the process is up and serving
// HTTP", nothing more. A readiness check that pings the database would be
// a different endpoint with different consumers.
func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}
