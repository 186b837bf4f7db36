package headers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// mockBHS creates an httptest server that mimics the Block Headers Service API.
// It serves headers for heights 0..tipHeight with properly hex-encoded hashes.
func mockBHS(tipHeight int) *httptest.Server {
	// Pre-compute hashes for each height
	hashes := make(map[int]string)
	for i := 0; i <= tipHeight; i++ {
		hashes[i] = fmt.Sprintf("%064x", i+1) // 0000...0001, 0000...0002, etc.
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.URL.Path == "/api/v1/chain/tip/longest":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"header": map[string]interface{}{
					"height": tipHeight,
					"hash":   hashes[tipHeight],
				},
				"state":  "LONGEST_CHAIN",
				"height": tipHeight,
			})

		case r.URL.Path == "/api/v1/chain/header/byHeight":
			heightStr := r.URL.Query().Get("height")
			var height int
			fmt.Sscanf(heightStr, "%d", &height)
			hash, ok := hashes[height]
			if !ok {
				w.WriteHeader(404)
				json.NewEncoder(w).Encode(map[string]string{"error": "not found"})
				return
			}
			prevHash := fmt.Sprintf("%064x", 0)
			if height > 0 {
				prevHash = hashes[height-1]
			}
			json.NewEncoder(w).Encode([]map[string]interface{}{
				{
					"height":            height,
					"hash":              hash,
					"version":           1,
					"merkleRoot":        fmt.Sprintf("%064x", height+100),
					"creationTimestamp": 1000 + height,
					"difficultyTarget":  0x1d00ffff,
					"nonce":             height,
					"prevBlockHash":     prevHash,
				},
			})

		case strings.HasPrefix(r.URL.Path, "/api/v1/chain/header/state/"):
			hash := r.URL.Path[len("/api/v1/chain/header/state/"):]
			// Find the height for this hash
			height := 0
			for h, hh := range hashes {
				if hh == hash {
					height = h
					break
				}
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"header": map[string]interface{}{
					"height": height,
					"hash":   hash,
				},
				"state":  "LONGEST_CHAIN",
				"height": height,
			})

		default:
			w.WriteHeader(404)
		}
	}))
}

func TestSyncServiceDisabledWithoutURL(t *testing.T) {
	setupTestDB(t)

	store := NewHeaderStore()
	store.EnsureSchema()

	svc := NewSyncService(SyncConfig{
		BHSURL:       "", // disabled
		SyncOnBoot:   true,
		PollInterval: 100 * time.Millisecond,
	}, store)

	svc.Start()
	time.Sleep(50 * time.Millisecond)

	p := svc.Progress()
	if p.IsSyncing {
		t.Error("expected not syncing when URL is empty")
	}
	if svc.TipHeight() != -1 {
		t.Errorf("tip = %d, want -1 before any sync", svc.TipHeight())
	}

	svc.Stop()
}

func waitForTip(t *testing.T, tips <-chan int) int {
	t.Helper()
	select {
	case h := <-tips:
		return h
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for sync")
		return -1
	}
}

func TestSyncServiceWindow(t *testing.T) {
	setupTestDB(t)

	store := NewHeaderStore()
	store.EnsureSchema()

	srv := mockBHS(20)
	defer srv.Close()

	svc := NewSyncService(SyncConfig{
		BHSURL:       srv.URL,
		SyncOnBoot:   true,
		PollInterval: 24 * time.Hour, // don't poll during test
		BatchSize:    4,
		MaxRetries:   2,
		Window:       5,
	}, store)

	tips := make(chan int, 1)
	svc.OnTip(func(h int) { tips <- h })
	svc.Start()
	tip := waitForTip(t, tips)
	svc.Stop()

	if tip != 20 {
		t.Errorf("OnTip height = %d, want 20", tip)
	}

	p := svc.Progress()
	if p.ChainTipHeight != 20 {
		t.Errorf("expected chain tip 20, got %d", p.ChainTipHeight)
	}
	if p.TotalHeaders != 5 || p.LowestHeight != 16 || p.HighestHeight != 20 {
		t.Errorf("progress = %+v, want 5 headers 16..20", p)
	}
	if p.IsSyncing {
		t.Error("still syncing after OnTip")
	}

	h, err := svc.Header(18)
	if err != nil || h == nil {
		t.Fatalf("Header(18) = %v, %v", h, err)
	}
	if h.Height != 18 || len(h.Hash) != 64 {
		t.Errorf("header at 18 = %+v", h)
	}
}

func TestSyncServicePrunesOldHeaders(t *testing.T) {
	setupTestDB(t)

	store := NewHeaderStore()
	store.EnsureSchema()
	store.InsertBatch([]BlockHeader{testHeader(1), testHeader(2)})

	srv := mockBHS(10)
	defer srv.Close()

	svc := NewSyncService(SyncConfig{
		BHSURL:       srv.URL,
		SyncOnBoot:   true,
		PollInterval: 24 * time.Hour,
		Window:       3,
	}, store)

	tips := make(chan int, 1)
	svc.OnTip(func(h int) { tips <- h })
	svc.Start()
	waitForTip(t, tips)
	svc.Stop()

	lo, hi, _ := store.Bounds()
	if lo != 8 || hi != 10 {
		t.Errorf("bounds = %d,%d, want 8,10", lo, hi)
	}
}

func TestSyncConfigDefaults(t *testing.T) {
	svc := NewSyncService(SyncConfig{}, NewHeaderStore())
	if svc.cfg.PollInterval != 30*time.Second {
		t.Errorf("expected default poll interval 30s, got %v", svc.cfg.PollInterval)
	}
	if svc.cfg.BatchSize != 500 {
		t.Errorf("expected default batch size 500, got %d", svc.cfg.BatchSize)
	}
	if svc.cfg.MaxRetries != 5 {
		t.Errorf("expected default max retries 5, got %d", svc.cfg.MaxRetries)
	}
	if svc.cfg.Window != 2016 {
		t.Errorf("expected default window 2016, got %d", svc.cfg.Window)
	}
}
