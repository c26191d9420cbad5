package observability

import (
	"net/http"
	"sync"

	"go.uber.org/zap"
)

// HealthChecker tracks service readiness plus per-dependency readiness
// (redis, kafka, ...) and serves /healthz off the shared mux.
type HealthChecker struct {
	logger *zap.Logger

	mu    sync.RWMutex
	ready bool
	deps  map[string]bool
}

// NewHealthChecker creates a health checker that starts ready with no
// dependencies registered.
func NewHealthChecker(logger *zap.Logger) *HealthChecker {
	return &HealthChecker{
		logger: logger,
		ready:  true,
		deps:   make(map[string]bool),
	}
}

// Register mounts the health endpoint on the mux.
func (h *HealthChecker) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", h.handleHealthz)
}

// SetDependencyReady records the readiness of a named dependency. First
// call registers the dependency; from then on it gates /healthz.
func (h *HealthChecker) SetDependencyReady(name string, ready bool) {
	h.mu.Lock()
	h.deps[name] = ready
	h.mu.Unlock()

	if !ready {
		h.logger.Warn("dependency not ready", zap.String("dependency", name))
	}
}

// Shutdown flips the checker to not-ready so load balancers drain the
// instance before the listener closes.
func (h *HealthChecker) Shutdown() {
	h.mu.Lock()
	h.ready = false
	h.mu.Unlock()
}

func (h *HealthChecker) handleHealthz(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	healthy := h.ready
	for _, ok := range h.deps {
		if !ok {
			healthy = false
			break
		}
	}
	h.mu.RUnlock()

	if healthy {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("NOT_READY"))
	}
}
