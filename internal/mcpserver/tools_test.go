package mcpserver

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/b0ase/path402/apps/feescope/internal/chartcache"
	"github.com/b0ase/path402/apps/feescope/internal/console"
	"github.com/b0ase/path402/apps/feescope/internal/db"
	"github.com/b0ase/path402/apps/feescope/internal/fees"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type fakeDaemon struct{}

func (fakeDaemon) NodeID() string        { return "abcd" }
func (fakeDaemon) Uptime() time.Duration { return time.Minute }
func (fakeDaemon) HeaderSyncStatus() map[string]interface{} {
	return map[string]interface{}{"chain_tip": 9, "total_headers": 3}
}
func (fakeDaemon) ValidateMerkleRoot(root string, height int) (bool, error) {
	return root == "ok", nil
}

func newTestMCP(t *testing.T) *MCPServer {
	t.Helper()
	if err := db.Open(filepath.Join(t.TempDir(), "test.db")); err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	t.Cleanup(db.Close)
	svc := console.New(chartcache.New(time.Minute, 8), fees.DefaultRangePolicy(), 0, nil)
	return New("test", fakeDaemon{}, svc)
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("content len = %d", len(res.Content))
	}
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T", res.Content[0])
	}
	return tc.Text
}

func TestStatusAndHeaders(t *testing.T) {
	s := newTestMCP(t)
	res, _, _ := s.handleStatus(context.Background(), nil, emptyInput{})
	text := resultText(t, res)
	if !strings.Contains(text, "Stored blocks: 0") || !strings.Contains(text, "60 sec") {
		t.Errorf("status = %q", text)
	}

	res, _, _ = s.handleHeaders(context.Background(), nil, emptyInput{})
	text = resultText(t, res)
	if strings.Index(text, "chain_tip") > strings.Index(text, "total_headers") {
		t.Errorf("header keys not sorted: %q", text)
	}
}

func TestFeeChart(t *testing.T) {
	s := newTestMCP(t)
	bf := &db.BlockFees{Height: 77, Size: 2000, Records: []fees.Record{
		{Weight: 400, Fee: 300},
		{Weight: 40, Fee: 3000},
	}}
	if err := s.console.Ingest(bf); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	res, _, _ := s.handleFeeChart(context.Background(), nil, feeChartInput{Mode: "spb"})
	if res.IsError {
		t.Fatalf("chart error: %s", resultText(t, res))
	}
	text := resultText(t, res)
	for _, want := range []string{"Block 77 fees (spb)", "Max rate:** 300", "Min rate:** 3.00", "Total size:** 110 vB"} {
		if !strings.Contains(text, want) {
			t.Errorf("chart text missing %q:\n%s", want, text)
		}
	}

	res, _, _ = s.handleFeeChart(context.Background(), nil, feeChartInput{Mode: "bogus"})
	if !res.IsError {
		t.Error("bogus mode accepted")
	}

	res, _, _ = s.handleFeeHeights(context.Background(), nil, feeHeightsInput{})
	if !strings.Contains(resultText(t, res), "| 77 |") {
		t.Errorf("heights = %q", resultText(t, res))
	}
}

func TestValueTools(t *testing.T) {
	s := newTestMCP(t)
	res, _, _ := s.handleValueEncode(context.Background(), nil, valueEncodeInput{Amount: -250000000})
	if got := resultText(t, res); got != "-2.5" {
		t.Errorf("encode = %q", got)
	}
	res, _, _ = s.handleValueDecode(context.Background(), nil, valueDecodeInput{Text: "21000000"})
	if got := resultText(t, res); got != "2100000000000000" {
		t.Errorf("decode = %q", got)
	}
	res, _, _ = s.handleValueDecode(context.Background(), nil, valueDecodeInput{Text: "1e5"})
	if !res.IsError {
		t.Error("decode of 1e5 succeeded")
	}
}

func TestValidateAddressAndMerkle(t *testing.T) {
	s := newTestMCP(t)
	res, _, _ := s.handleValidateAddress(context.Background(), nil, addressInput{Address: "1LoVGDgRs9hTfTNJNuXKSpywcbdvwRXpmK"})
	if res.IsError {
		t.Errorf("valid address rejected: %s", resultText(t, res))
	}
	res, _, _ = s.handleValidateAddress(context.Background(), nil, addressInput{Address: "1LoVGDgRs9hTfTNJNuXKSpywcbdvwRXpmL"})
	if !res.IsError {
		t.Error("bad checksum accepted")
	}

	res, _, _ = s.handleVerifyMerkle(context.Background(), nil, verifyMerkleInput{Root: "ok", Height: 1})
	if !strings.Contains(resultText(t, res), "VALID") {
		t.Errorf("verify = %q", resultText(t, res))
	}
}
