package headers

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/b0ase/path402/apps/feescope/internal/db"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	if err := db.Open(filepath.Join(dir, "test.db")); err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
}

func testHeader(height int) BlockHeader {
	return BlockHeader{
		Height:     height,
		Hash:       fmt.Sprintf("%064x", height+1),
		MerkleRoot: fmt.Sprintf("%064x", height+100),
		Timestamp:  1000 + height,
		Bits:       0x1d00ffff,
		PrevHash:   fmt.Sprintf("%064x", height),
	}
}

func TestEnsureSchema(t *testing.T) {
	setupTestDB(t)
	store := NewHeaderStore()
	if err := store.EnsureSchema(); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	// Calling twice should be idempotent
	if err := store.EnsureSchema(); err != nil {
		t.Fatalf("EnsureSchema (2nd call): %v", err)
	}
}

func TestBoundsEmpty(t *testing.T) {
	setupTestDB(t)
	store := NewHeaderStore()
	store.EnsureSchema()

	lo, hi, err := store.Bounds()
	if err != nil {
		t.Fatalf("Bounds: %v", err)
	}
	if lo != -1 || hi != -1 {
		t.Errorf("expected -1,-1 for empty store, got %d,%d", lo, hi)
	}
}

func TestInsertBatchAndQuery(t *testing.T) {
	setupTestDB(t)
	store := NewHeaderStore()
	store.EnsureSchema()

	batch := []BlockHeader{testHeader(10), testHeader(11), testHeader(12)}
	n, err := store.InsertBatch(batch)
	if err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}
	if n != 3 {
		t.Errorf("inserted %d, want 3", n)
	}

	lo, hi, _ := store.Bounds()
	if lo != 10 || hi != 12 {
		t.Errorf("bounds = %d,%d, want 10,12", lo, hi)
	}

	h, err := store.GetByHeight(11)
	if err != nil {
		t.Fatalf("GetByHeight: %v", err)
	}
	if h == nil || h.Hash != testHeader(11).Hash || h.Timestamp != 1011 {
		t.Errorf("GetByHeight(11) = %+v", h)
	}

	missing, err := store.GetByHeight(99)
	if err != nil || missing != nil {
		t.Errorf("GetByHeight(99) = %+v, %v; want nil, nil", missing, err)
	}

	ok, err := store.HasMerkleRoot(testHeader(12).MerkleRoot, 12)
	if err != nil || !ok {
		t.Errorf("HasMerkleRoot = %v, %v", ok, err)
	}
	ok, _ = store.HasMerkleRoot(testHeader(12).MerkleRoot, 11)
	if ok {
		t.Error("HasMerkleRoot matched the wrong height")
	}
}

func TestInsertBatchReplacesReorgedHeader(t *testing.T) {
	setupTestDB(t)
	store := NewHeaderStore()
	store.EnsureSchema()

	store.InsertBatch([]BlockHeader{testHeader(5)})
	replacement := testHeader(5)
	replacement.Hash = fmt.Sprintf("%064x", 0xbeef)
	store.InsertBatch([]BlockHeader{replacement})

	h, _ := store.GetByHeight(5)
	if h.Hash != replacement.Hash {
		t.Errorf("hash = %s, want reorged %s", h.Hash, replacement.Hash)
	}
	if c, _ := store.Count(); c != 1 {
		t.Errorf("count = %d, want 1", c)
	}
}

func TestPruneBelow(t *testing.T) {
	setupTestDB(t)
	store := NewHeaderStore()
	store.EnsureSchema()

	var batch []BlockHeader
	for i := 0; i < 10; i++ {
		batch = append(batch, testHeader(i))
	}
	store.InsertBatch(batch)

	n, err := store.PruneBelow(7)
	if err != nil {
		t.Fatalf("PruneBelow: %v", err)
	}
	if n != 7 {
		t.Errorf("pruned %d, want 7", n)
	}
	lo, hi, _ := store.Bounds()
	if lo != 7 || hi != 9 {
		t.Errorf("bounds = %d,%d, want 7,9", lo, hi)
	}
}
