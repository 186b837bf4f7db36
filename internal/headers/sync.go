package headers

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/bsv-blockchain/go-sdk/transaction/chaintracker/headers_client"
)

// SyncConfig configures the header sync service.
type SyncConfig struct {
	BHSURL       string
	BHSAPIKey    string
	SyncOnBoot   bool
	PollInterval time.Duration
	BatchSize    int
	MaxRetries   int
	Window       int // headers kept behind the tip
}

// SyncService follows the chain tip of a Block Headers Service (BHS) and
// keeps the last Window headers in the local store.
type SyncService struct {
	cfg      SyncConfig
	store    *HeaderStore
	client   *headers_client.Client
	mu       sync.RWMutex
	progress SyncProgress
	onTip    func(height int)
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewSyncService(cfg SyncConfig, store *HeaderStore) *SyncService {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 30 * time.Second
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 500
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 5
	}
	if cfg.Window == 0 {
		cfg.Window = 2016
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &SyncService{
		cfg:      cfg,
		store:    store,
		client:   &headers_client.Client{Url: cfg.BHSURL, ApiKey: cfg.BHSAPIKey},
		progress: SyncProgress{LowestHeight: -1, HighestHeight: -1, ChainTipHeight: -1},
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// OnTip registers a callback run after every sync that saw the tip.
func (s *SyncService) OnTip(fn func(height int)) {
	s.mu.Lock()
	s.onTip = fn
	s.mu.Unlock()
}

// Start begins syncing in the background. Without a BHS URL it does nothing.
func (s *SyncService) Start() {
	if s.cfg.BHSURL == "" {
		log.Println("[headers] No BHS URL configured, header sync disabled")
		close(s.done)
		return
	}

	go s.run()
}

// Stop cancels the sync and waits for the goroutine to exit.
func (s *SyncService) Stop() {
	s.cancel()
	<-s.done
	log.Println("[headers] Sync service stopped")
}

// Progress returns a snapshot of current sync progress.
func (s *SyncService) Progress() SyncProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress
}

// TipHeight returns the last chain tip seen, or -1 before the first sync.
func (s *SyncService) TipHeight() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress.ChainTipHeight
}

// Header returns the stored header at height, or nil.
func (s *SyncService) Header(height int) (*BlockHeader, error) {
	return s.store.GetByHeight(height)
}

// ValidateMerkleRoot checks whether a merkle root is valid for a given height.
// Checks local DB first, falls back to remote BHS if not found locally.
func (s *SyncService) ValidateMerkleRoot(root string, height int) (bool, error) {
	found, err := s.store.HasMerkleRoot(root, height)
	if err != nil {
		return false, fmt.Errorf("local lookup: %w", err)
	}
	if found {
		return true, nil
	}

	if s.cfg.BHSURL == "" {
		return false, nil
	}

	rootBytes, err := hex.DecodeString(root)
	if err != nil {
		return false, fmt.Errorf("decode root hex: %w", err)
	}
	var rootHash chainhash.Hash
	copy(rootHash[:], rootBytes)

	valid, err := s.client.IsValidRootForHeight(s.ctx, &rootHash, uint32(height))
	if err != nil {
		return false, fmt.Errorf("remote validate: %w", err)
	}
	return valid, nil
}

func (s *SyncService) run() {
	defer close(s.done)

	if s.cfg.SyncOnBoot {
		s.syncOnce()
	}

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.syncOnce()
		}
	}
}

func (s *SyncService) syncOnce() {
	tip, err := s.client.CurrentHeight(s.ctx)
	if err != nil {
		log.Printf("[headers] Failed to get chain tip: %v", err)
		return
	}
	tipHeight := int(tip)

	s.mu.Lock()
	s.progress.ChainTipHeight = tipHeight
	s.progress.IsSyncing = true
	onTip := s.onTip
	s.mu.Unlock()

	defer func() {
		s.refreshProgress()
		if onTip != nil {
			onTip(tipHeight)
		}
	}()

	floor := tipHeight - s.cfg.Window + 1
	if floor < 0 {
		floor = 0
	}
	if n, err := s.store.PruneBelow(floor); err != nil {
		log.Printf("[headers] Prune error: %v", err)
	} else if n > 0 {
		log.Printf("[headers] Pruned %d headers below %d", n, floor)
	}

	_, highest, err := s.store.Bounds()
	if err != nil {
		log.Printf("[headers] Failed to get local height: %v", err)
		return
	}
	if highest >= tipHeight {
		return
	}

	from := highest + 1
	if from < floor {
		from = floor
	}
	log.Printf("[headers] Syncing %d..%d (%d headers)", from, tipHeight, tipHeight-from+1)
	s.fetchRange(from, tipHeight)
}

func (s *SyncService) refreshProgress() {
	count, _ := s.store.Count()
	lo, hi, _ := s.store.Bounds()

	s.mu.Lock()
	s.progress.TotalHeaders = count
	s.progress.LowestHeight = lo
	s.progress.HighestHeight = hi
	s.progress.IsSyncing = false
	s.progress.LastSyncedAt = time.Now().Unix()
	s.mu.Unlock()
}

func (s *SyncService) fetchRange(from, to int) {
	batch := make([]BlockHeader, 0, s.cfg.BatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if _, err := s.store.InsertBatch(batch); err != nil {
			log.Printf("[headers] Batch insert error: %v", err)
		}
		batch = batch[:0]
	}
	defer flush()

	retries := 0
	for height := from; height <= to; height++ {
		if s.ctx.Err() != nil {
			return
		}

		header, err := s.client.BlockByHeight(s.ctx, uint32(height))
		if err != nil {
			retries++
			if retries > s.cfg.MaxRetries {
				log.Printf("[headers] Too many errors at height %d, pausing sync: %v", height, err)
				return
			}
			log.Printf("[headers] Error at height %d (retry %d/%d): %v", height, retries, s.cfg.MaxRetries, err)
			height-- // retry same height
			select {
			case <-s.ctx.Done():
				return
			case <-time.After(time.Duration(retries) * time.Second):
			}
			continue
		}
		retries = 0

		batch = append(batch, BlockHeader{
			Height:     int(header.Height),
			Hash:       hex.EncodeToString(header.Hash[:]),
			MerkleRoot: hex.EncodeToString(header.MerkleRoot[:]),
			Timestamp:  int(header.Timestamp),
			Bits:       int(header.Bits),
			PrevHash:   hex.EncodeToString(header.PreviousBlock[:]),
		})
		if len(batch) >= s.cfg.BatchSize {
			flush()
		}
	}
}
