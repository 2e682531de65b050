package server

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"cosmossdk.io/log"
	"github.com/gorilla/mux"

	"github.com/celestiaorg/ev-prover/prover/pipeline"
	"github.com/celestiaorg/ev-prover/prover/registry"
)

// HTTPStatus is the JSON shape served by the status endpoint.
type HTTPStatus struct {
	TrustedRollupHeight uint64 `json:"trusted_rollup_height"`
	TrustedStateRoot    string `json:"trusted_state_root"`
	TrustedDAHeight     uint64 `json:"trusted_da_height"`
	RunningJobs         int    `json:"running_jobs"`
	TrackedJobs         int    `json:"tracked_jobs"`
}

// ServeHTTP runs the health and status HTTP endpoints beside the gRPC
// listener until ctx is cancelled.
func ServeHTTP(ctx context.Context, addr string, cell *pipeline.CheckpointCell, reg *registry.Registry, logger log.Logger) error {
	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	router.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		status := HTTPStatus{
			RunningJobs: reg.Running(),
			TrackedJobs: reg.Len(),
		}
		if cp, ok := cell.Load(); ok {
			status.TrustedRollupHeight = cp.RollupHeight
			status.TrustedStateRoot = hex.EncodeToString(cp.RollupStateRoot[:])
			status.TrustedDAHeight = cp.DAHeight
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(status); err != nil {
			http.Error(w, "failed to encode status", http.StatusInternalServerError)
		}
	}).Methods("GET")

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown", "err", err)
		}
	}()

	logger.Info("http server listening", "addr", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
