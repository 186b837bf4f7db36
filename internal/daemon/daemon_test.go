package daemon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/b0ase/path402/apps/feescope/internal/config"
	"github.com/b0ase/path402/apps/feescope/internal/db"
	"github.com/b0ase/path402/apps/feescope/internal/fees"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.API.Port = 0
	cfg.Headers.BHSURL = ""
	return cfg
}

func TestStartStop(t *testing.T) {
	d, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	if len(d.NodeID()) != 32 {
		t.Errorf("node id = %q", d.NodeID())
	}
	status := d.HeaderSyncStatus()
	if status["enabled"] != true || status["chain_tip"] != -1 {
		t.Errorf("header status = %v", status)
	}
	if d.Console() == nil {
		t.Fatal("console not initialised")
	}
}

func TestOnTipExpires(t *testing.T) {
	cfg := testConfig(t)
	cfg.Fees.Retain = 10
	d, _ := New(cfg)
	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	for _, h := range []int{80, 95, 100} {
		if err := d.Console().Ingest(&db.BlockFees{Height: h, Records: []fees.Record{{Weight: 4, Fee: 1}}}); err != nil {
			t.Fatalf("Ingest: %v", err)
		}
	}
	d.onTip(100)
	if n, _ := db.CountBlockFees(); n != 2 {
		t.Errorf("count after expiry = %d, want 2", n)
	}
}

func TestImportFile(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "fees.json")
	if err := os.WriteFile(path, []byte(`[[400,100,1],[40,1000,2]]`), 0600); err != nil {
		t.Fatal(err)
	}

	n, err := ImportFile(cfg, path, 812345, "00ab")
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if n != 2 {
		t.Errorf("imported %d records, want 2", n)
	}

	if err := db.Open(cfg.DBPath()); err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	defer db.Close()
	bf, err := db.GetBlockFees(812345)
	if err != nil {
		t.Fatalf("GetBlockFees: %v", err)
	}
	if bf.Hash != "00ab" || len(bf.Records) != 2 {
		t.Errorf("stored = %+v", bf)
	}
}

func TestImportFileRejectsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(path, []byte(`{"not":"records"}`), 0600)
	if _, err := ImportFile(testConfig(t), path, 1, ""); err == nil {
		t.Error("malformed file imported")
	}
}
