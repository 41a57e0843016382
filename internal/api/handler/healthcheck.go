package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-dashboard-api/infrastructure/cache"
	"github.com/vfg2006/ads-dashboard-api/infrastructure/database/postgres"
	"github.com/vfg2006/ads-dashboard-api/infrastructure/integrator/graph/graphclient"
	"github.com/vfg2006/ads-dashboard-api/internal/syncer"
)

func HealthcheckHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := w.Write([]byte(time.Now().String()))
		if err != nil {
			logrus.WithError(err).Warn("error responding to healthcheck")
		}
	})
}

type componentHealth struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Detail any    `json:"detail,omitempty"`
}

// DetailedHealth answers 200 when the database and cache are reachable,
// 503 otherwise. The upstream credential state is reported but never
// fails the check: the service still serves stored data while the graph
// API is down.
func DetailedHealth(
	conn *postgres.Connection,
	domainCache *cache.DomainCache,
	client graphclient.Client,
	engine *syncer.Engine,
) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		healthy := true
		components := map[string]componentHealth{}

		database := componentHealth{Status: "up"}
		if err := conn.Ping(r.Context()); err != nil {
			healthy = false
			database = componentHealth{Status: "down", Error: err.Error()}
		} else {
			stats := conn.PoolStats()
			database.Detail = map[string]any{
				"open_connections": stats.OpenConnections,
				"in_use":           stats.InUse,
				"idle":             stats.Idle,
			}
		}
		components["database"] = database

		cacheHealth := componentHealth{Status: "up"}
		if err := domainCache.Ping(); err != nil {
			healthy = false
			cacheHealth = componentHealth{Status: "down", Error: err.Error()}
		}
		components["cache"] = cacheHealth

		rateLimit := client.CheckRateLimit()
		components["upstream"] = componentHealth{
			Status: rateLimit.Status,
			Error:  rateLimit.Error,
			Detail: rateLimit,
		}

		status := http.StatusOK
		overall := "healthy"
		if !healthy {
			status = http.StatusServiceUnavailable
			overall = "unhealthy"
		}

		body := map[string]any{
			"status":     overall,
			"components": components,
		}

		if r.URL.Query().Get("detailed") == "true" {
			var memory runtime.MemStats
			runtime.ReadMemStats(&memory)

			body["sync"] = engine.Status()
			body["runtime"] = map[string]any{
				"goroutines":      runtime.NumGoroutine(),
				"heap_alloc_mb":   memory.HeapAlloc / 1024 / 1024,
				"total_alloc_mb":  memory.TotalAlloc / 1024 / 1024,
				"gc_cycles":       memory.NumGC,
				"last_checked_at": time.Now().UTC(),
			}
		}

		respondJSON(w, status, body)
	})
}
