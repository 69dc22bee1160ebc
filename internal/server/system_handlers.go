package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/Tramona1/AIHedgeFund/internal/database"
	"github.com/Tramona1/AIHedgeFund/internal/scheduler"
	"github.com/Tramona1/AIHedgeFund/internal/server/respond"
)

var serverStart = time.Now()

// SystemHandlers serves the health and operations endpoints.
type SystemHandlers struct {
	databases     []*database.DB
	clock         *scheduler.MarketClock
	collectionJob *scheduler.CollectionJob
	log           zerolog.Logger
}

// NewSystemHandlers creates the system handler set.
func NewSystemHandlers(databases []*database.DB, clock *scheduler.MarketClock,
	collectionJob *scheduler.CollectionJob, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		databases:     databases,
		clock:         clock,
		collectionJob: collectionJob,
		log:           log.With().Str("handler", "system").Logger(),
	}
}

// HandleHealth reports liveness plus a ping of every database.
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(serverStart).Seconds()),
	}

	dbs := make(map[string]string, len(h.databases))
	healthy := true
	for _, db := range h.databases {
		if err := db.HealthCheck(r.Context()); err != nil {
			dbs[db.Name()] = "unhealthy: " + err.Error()
			healthy = false
			continue
		}
		dbs[db.Name()] = "ok"
	}
	status["databases"] = dbs

	if !healthy {
		respond.Fail(w, http.StatusServiceUnavailable, "one or more databases unhealthy")
		return
	}

	respond.OK(w, status)
}

type databaseStats struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	PageCount int64  `json:"page_count"`
}

// HandleStats reports process and host resource usage plus database sizes.
func (h *SystemHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{
		"uptime_seconds": int64(time.Since(serverStart).Seconds()),
		"goroutines":     runtime.NumGoroutine(),
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats["heap_alloc_bytes"] = memStats.HeapAlloc

	if vm, err := mem.VirtualMemory(); err == nil {
		stats["system_memory_used_percent"] = vm.UsedPercent
	}
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		stats["system_cpu_percent"] = percents[0]
	}

	dbs := make([]databaseStats, 0, len(h.databases))
	for _, db := range h.databases {
		entry := databaseStats{Name: db.Name()}
		if s, err := db.GetStats(); err == nil {
			entry.SizeBytes = s.SizeBytes
			entry.PageCount = s.PageCount
		}
		dbs = append(dbs, entry)
	}
	stats["databases"] = dbs

	respond.OK(w, stats)
}

// HandleMarketStatus reports the market clock's current state.
func (h *SystemHandlers) HandleMarketStatus(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	respond.OK(w, map[string]interface{}{
		"open":           scheduler.IsMarketOpen(now),
		"collecting":     scheduler.ShouldCollectData(now),
		"observed_open":  h.clock.IsOpen(),
		"checked_at_utc": now.UTC().Format(time.RFC3339),
	})
}

// HandleForceCollect starts a collection pass regardless of the market
// window. The pass runs in the background; the response only acknowledges
// the start.
func (h *SystemHandlers) HandleForceCollect(w http.ResponseWriter, r *http.Request) {
	go func() {
		if err := h.collectionJob.ForceCollect(); err != nil {
			h.log.Error().Err(err).Msg("Forced collection failed")
		}
	}()

	respond.Message(w, http.StatusAccepted, "collection started")
}
