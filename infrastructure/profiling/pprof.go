// Package profiling starts the optional pprof listener and pyroscope agent.
package profiling

import (
	"errors"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // bound to localhost only
	"os"
	"time"

	"github.com/Activ8Auto/ProAutoFill/infrastructure/logger"
)

// StartPprofServer serves /debug/pprof on localhost:$PPROF_PORT (default
// 6060) when ENABLE_PROFILING=true.
func StartPprofServer(log logger.Logger) {
	if os.Getenv("ENABLE_PROFILING") != "true" {
		return
	}

	port := os.Getenv("PPROF_PORT")
	if port == "" {
		port = "6060"
	}
	addr := "localhost:" + port

	srv := &http.Server{
		Addr:              addr,
		Handler:           http.DefaultServeMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("Starting pprof server", logger.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("pprof server stopped", logger.Error(err))
		}
	}()
}
