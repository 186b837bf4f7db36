package headers

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/b0ase/path402/apps/feescope/internal/db"
)

// BlockHeader is a chain header kept to annotate fee charts.
type BlockHeader struct {
	Height     int    `json:"height"`
	Hash       string `json:"hash"`
	MerkleRoot string `json:"merkle_root"`
	Timestamp  int    `json:"timestamp"`
	Bits       int    `json:"bits"`
	PrevHash   string `json:"prev_hash"`
}

// SyncProgress tracks the state of header synchronisation.
type SyncProgress struct {
	TotalHeaders   int   `json:"total_headers"`
	LowestHeight   int   `json:"lowest_height"`
	HighestHeight  int   `json:"highest_height"`
	ChainTipHeight int   `json:"chain_tip_height"`
	IsSyncing      bool  `json:"is_syncing"`
	LastSyncedAt   int64 `json:"last_synced_at"`
}

// HeaderStore keeps the recent part of the header chain in SQLite.
type HeaderStore struct {
	mu sync.RWMutex
}

func NewHeaderStore() *HeaderStore {
	return &HeaderStore{}
}

const headerSchema = `
CREATE TABLE IF NOT EXISTS block_headers (
    height INTEGER PRIMARY KEY,
    hash TEXT NOT NULL,
    merkle_root TEXT NOT NULL,
    timestamp INTEGER NOT NULL,
    bits INTEGER NOT NULL,
    prev_hash TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_block_headers_hash ON block_headers(hash);
`

const headerColumns = "height, hash, merkle_root, timestamp, bits, prev_hash"

// EnsureSchema creates the block_headers table if it doesn't exist.
func (s *HeaderStore) EnsureSchema() error {
	d := db.DB()
	if d == nil {
		return fmt.Errorf("database not open")
	}
	_, err := d.Exec(headerSchema)
	return err
}

// InsertBatch stores headers in one transaction, replacing any header
// already held at the same height. Returns the number of rows written.
func (s *HeaderStore) InsertBatch(headers []BlockHeader) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := db.DB()
	if d == nil {
		return 0, fmt.Errorf("database not open")
	}

	tx, err := d.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO block_headers (` + headerColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i, h := range headers {
		if _, err := stmt.Exec(h.Height, h.Hash, h.MerkleRoot, h.Timestamp, h.Bits, h.PrevHash); err != nil {
			return i, fmt.Errorf("insert height %d: %w", h.Height, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(headers), nil
}

// PruneBelow deletes headers under height.
func (s *HeaderStore) PruneBelow(height int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := db.DB()
	if d == nil {
		return 0, fmt.Errorf("database not open")
	}
	res, err := d.Exec("DELETE FROM block_headers WHERE height < ?", height)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Bounds returns the lowest and highest stored heights, or -1, -1 if empty.
func (s *HeaderStore) Bounds() (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d := db.DB()
	if d == nil {
		return -1, -1, fmt.Errorf("database not open")
	}

	var lo, hi sql.NullInt64
	if err := d.QueryRow("SELECT MIN(height), MAX(height) FROM block_headers").Scan(&lo, &hi); err != nil {
		return -1, -1, err
	}
	if !hi.Valid {
		return -1, -1, nil
	}
	return int(lo.Int64), int(hi.Int64), nil
}

// Count returns the total number of stored headers.
func (s *HeaderStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d := db.DB()
	if d == nil {
		return 0, fmt.Errorf("database not open")
	}

	var count int
	err := d.QueryRow("SELECT COUNT(*) FROM block_headers").Scan(&count)
	return count, err
}

// GetByHeight returns the header at the given height, or nil if not found.
func (s *HeaderStore) GetByHeight(height int) (*BlockHeader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d := db.DB()
	if d == nil {
		return nil, fmt.Errorf("database not open")
	}

	h := &BlockHeader{}
	err := d.QueryRow("SELECT "+headerColumns+" FROM block_headers WHERE height = ?", height).
		Scan(&h.Height, &h.Hash, &h.MerkleRoot, &h.Timestamp, &h.Bits, &h.PrevHash)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return h, nil
}

// HasMerkleRoot checks whether the given merkle root exists at the given height.
func (s *HeaderStore) HasMerkleRoot(root string, height int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d := db.DB()
	if d == nil {
		return false, fmt.Errorf("database not open")
	}

	var count int
	err := d.QueryRow(
		"SELECT COUNT(*) FROM block_headers WHERE merkle_root = ? AND height = ?",
		root, height,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
