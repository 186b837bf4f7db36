package daemon

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/b0ase/path402/apps/feescope/internal/chartcache"
	"github.com/b0ase/path402/apps/feescope/internal/config"
	"github.com/b0ase/path402/apps/feescope/internal/console"
	"github.com/b0ase/path402/apps/feescope/internal/db"
	"github.com/b0ase/path402/apps/feescope/internal/fees"
	"github.com/b0ase/path402/apps/feescope/internal/headers"
	"github.com/b0ase/path402/apps/feescope/internal/server"
)

// Daemon orchestrates all feescope subsystems.
type Daemon struct {
	cfg        *config.Config
	nodeID     string
	startTime  time.Time
	cache      *chartcache.Cache
	console    *console.Service
	headerSync *headers.SyncService
	httpSrv    *server.Server
	stopCh     chan struct{}
}

// New creates a new daemon instance.
func New(cfg *config.Config) (*Daemon, error) {
	return &Daemon{cfg: cfg, stopCh: make(chan struct{})}, nil
}

// Start initializes and starts all subsystems in order.
func (d *Daemon) Start() error {
	d.startTime = time.Now()

	// 1. Open database
	if err := db.Open(d.cfg.DBPath()); err != nil {
		return fmt.Errorf("db open: %w", err)
	}

	// 2. Get/set node ID
	nodeID, err := db.GetNodeID()
	if err != nil {
		return fmt.Errorf("get node id: %w", err)
	}
	d.nodeID = nodeID
	log.Printf("[daemon] Node ID: %s", nodeID[:16])

	// 3. Header sync, not started until the console can take tip updates
	var hdrs console.HeaderSource
	headerStore := headers.NewHeaderStore()
	if err := headerStore.EnsureSchema(); err != nil {
		log.Printf("[headers] WARNING: Schema init failed: %v", err)
	} else {
		d.headerSync = headers.NewSyncService(headers.SyncConfig{
			BHSURL:       d.cfg.Headers.BHSURL,
			BHSAPIKey:    d.cfg.Headers.BHSAPIKey,
			SyncOnBoot:   d.cfg.Headers.SyncOnBoot,
			PollInterval: d.cfg.Headers.PollInterval,
			BatchSize:    d.cfg.Headers.BatchSize,
			Window:       d.cfg.Headers.Window,
		}, headerStore)
		hdrs = d.headerSync
	}

	// 4. Chart cache and console
	d.cache = chartcache.New(d.cfg.Fees.CacheTTL, d.cfg.Fees.CacheSize)
	d.cache.Start()
	d.console = console.New(d.cache, d.cfg.Chart, d.cfg.Fees.Window, hdrs)

	if d.headerSync != nil {
		d.headerSync.OnTip(d.onTip)
		d.headerSync.Start()
	}

	// 5. Start periodic status logging
	go d.statusLoop()

	// 6. Start HTTP API
	d.httpSrv = server.New(d.cfg.API.Bind, d.cfg.API.Port, d, d.console)
	d.httpSrv.SetIngestToken(d.cfg.Fees.IngestToken)
	if port, err := d.httpSrv.Start(); err != nil {
		log.Printf("[daemon] WARNING: HTTP API failed to start: %v", err)
	} else {
		log.Printf("[daemon] HTTP API on port %d", port)
	}

	log.Println("[daemon] All systems online")
	return nil
}

// onTip expires fee sets that fell out of the retention window.
func (d *Daemon) onTip(height int) {
	if _, err := d.console.Expire(height, d.cfg.Fees.Retain); err != nil {
		log.Printf("[daemon] %v", err)
	}
}

func (d *Daemon) statusLoop() {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopCh:
			return
		case <-ticker.C:
			count, _ := db.CountBlockFees()
			latest, err := db.GetLatestFeeHeight()
			if err != nil {
				latest = -1
			}
			tip := -1
			if d.headerSync != nil {
				tip = d.headerSync.TipHeight()
			}
			log.Printf("[daemon] Fee sets: %d | Latest: %d | Tip: %d | Cached charts: %d",
				count, latest, tip, d.cache.Len())
		}
	}
}

// Stop shuts down all subsystems.
func (d *Daemon) Stop() {
	log.Println("[daemon] Shutting down...")
	close(d.stopCh)

	if d.httpSrv != nil {
		d.httpSrv.Stop()
	}
	if d.headerSync != nil {
		d.headerSync.Stop()
	}
	if d.cache != nil {
		d.cache.Stop()
	}
	db.Close()

	log.Println("[daemon] Shutdown complete")
}

// --- Status accessors (used by HTTP API and MCP) ---

func (d *Daemon) NodeID() string        { return d.nodeID }
func (d *Daemon) Uptime() time.Duration { return time.Since(d.startTime) }

// Console returns the chart and ingest service.
func (d *Daemon) Console() *console.Service { return d.console }

func (d *Daemon) HeaderSyncStatus() map[string]interface{} {
	if d.headerSync == nil {
		return map[string]interface{}{"enabled": false}
	}
	p := d.headerSync.Progress()
	return map[string]interface{}{
		"enabled":        true,
		"is_syncing":     p.IsSyncing,
		"total_headers":  p.TotalHeaders,
		"lowest_height":  p.LowestHeight,
		"highest_height": p.HighestHeight,
		"chain_tip":      p.ChainTipHeight,
		"last_synced_at": p.LastSyncedAt,
	}
}

func (d *Daemon) ValidateMerkleRoot(root string, height int) (bool, error) {
	if d.headerSync == nil {
		return false, fmt.Errorf("header sync not enabled")
	}
	return d.headerSync.ValidateMerkleRoot(root, height)
}

// ImportFile loads a JSON fee record file ([[weight,fee,key],...]) as the
// fee set of height. It opens and closes the database itself and is meant
// to run instead of Start.
func ImportFile(cfg *config.Config, path string, height int, hash string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	records, err := fees.ParseRecords(data)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := db.Open(cfg.DBPath()); err != nil {
		return 0, fmt.Errorf("db open: %w", err)
	}
	defer db.Close()

	svc := console.New(chartcache.New(0, 1), cfg.Chart, 0, nil)
	bf := &db.BlockFees{Height: height, Hash: hash, Records: records}
	if err := svc.Ingest(bf); err != nil {
		return 0, err
	}
	return len(records), nil
}
