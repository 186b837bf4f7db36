package db

import (
	"encoding/json"
	"fmt"

	"github.com/b0ase/path402/apps/feescope/internal/fees"
)

// BlockFees is the fee record set of one block.
type BlockFees struct {
	Height    int           `json:"height"`
	Hash      string        `json:"hash"`
	Size      int           `json:"size"`
	MinedBy   string        `json:"mined_by"`
	Records   []fees.Record `json:"records"`
	CreatedAt int64         `json:"created_at"`
}

// BlockFeesSummary describes a stored set without its records.
type BlockFeesSummary struct {
	Height      int    `json:"height"`
	Hash        string `json:"hash"`
	Size        int    `json:"size"`
	MinedBy     string `json:"mined_by"`
	RecordCount int    `json:"record_count"`
}

// InsertBlockFees stores a block's fee records, replacing any earlier set
// for the same height (a reorg replaces the block).
func InsertBlockFees(bf *BlockFees) error {
	recs := bf.Records
	if recs == nil {
		recs = []fees.Record{}
	}
	data, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	_, err = db.Exec(`
		INSERT INTO block_fees (height, hash, size, mined_by, record_count, records)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(height) DO UPDATE SET
			hash = excluded.hash, size = excluded.size, mined_by = excluded.mined_by,
			record_count = excluded.record_count, records = excluded.records,
			created_at = strftime('%s','now')`,
		bf.Height, bf.Hash, bf.Size, bf.MinedBy, len(recs), string(data))
	return err
}

// GetBlockFees returns the fee set stored for height, or ErrNotFound.
func GetBlockFees(height int) (*BlockFees, error) {
	bf := &BlockFees{}
	var raw string
	err := db.QueryRow(`
		SELECT height, hash, size, mined_by, records, created_at
		FROM block_fees WHERE height = ?`, height).Scan(
		&bf.Height, &bf.Hash, &bf.Size, &bf.MinedBy, &raw, &bf.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	recs, err := fees.ParseRecords([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("decode records at height %d: %w", height, err)
	}
	bf.Records = recs
	return bf, nil
}

// GetLatestFeeHeight returns the highest stored height, or ErrNotFound.
func GetLatestFeeHeight() (int, error) {
	var height int
	err := db.QueryRow(`SELECT height FROM block_fees ORDER BY height DESC LIMIT 1`).Scan(&height)
	if err != nil {
		return 0, notFound(err)
	}
	return height, nil
}

// ListBlockFees returns summaries of the latest N stored sets, newest first.
func ListBlockFees(limit int) ([]BlockFeesSummary, error) {
	rows, err := db.Query(`
		SELECT height, hash, size, mined_by, record_count
		FROM block_fees ORDER BY height DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BlockFeesSummary
	for rows.Next() {
		var s BlockFeesSummary
		if err := rows.Scan(&s.Height, &s.Hash, &s.Size, &s.MinedBy, &s.RecordCount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CountBlockFees returns the number of stored sets.
func CountBlockFees() (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM block_fees`).Scan(&count)
	return count, err
}

// ExpireBlockFees deletes every set below height and returns how many went.
func ExpireBlockFees(below int) (int, error) {
	res, err := db.Exec(`DELETE FROM block_fees WHERE height < ?`, below)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
