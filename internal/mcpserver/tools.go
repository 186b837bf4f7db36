package mcpserver

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/b0ase/path402/apps/feescope/internal/db"
	"github.com/b0ase/path402/apps/feescope/internal/fees"
	"github.com/b0ase/path402/apps/feescope/internal/format"
	"github.com/b0ase/path402/apps/feescope/internal/value"
	"github.com/b0ase/path402/apps/feescope/internal/wallet"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// --- Input types ---

type emptyInput struct{}

type feeChartInput struct {
	Height int    `json:"height" jsonschema:"block height (0 = latest stored block)"`
	Mode   string `json:"mode" jsonschema:"aggregation: none, group, groupall or spb"`
	Clip   bool   `json:"clip" jsonschema:"scale the y axis to the average rate"`
}

type feeHeightsInput struct {
	Limit int `json:"limit" jsonschema:"max number of blocks to return (0 = 20)"`
}

type valueEncodeInput struct {
	Amount int64 `json:"amount" jsonschema:"amount in satoshis"`
	Pad    bool  `json:"pad" jsonschema:"always print 8 fraction digits"`
}

type valueDecodeInput struct {
	Text string `json:"text" jsonschema:"decimal coin amount, e.g. 1.5"`
}

type verifyMerkleInput struct {
	Root   string `json:"root" jsonschema:"merkle root hash to verify"`
	Height int    `json:"height" jsonschema:"block height to check against"`
}

type addressInput struct {
	Address string `json:"address" jsonschema:"Base58Check P2PKH address"`
}

// registerTools adds all feescope MCP tools to the server.
func (s *MCPServer) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "feescope_status",
		Description: "Node status: ID, uptime, stored fee sets, header sync",
	}, s.handleStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "feescope_fee_chart",
		Description: "Fee rate distribution of one block: stats and curve summary",
	}, s.handleFeeChart)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "feescope_fee_heights",
		Description: "Blocks with stored fee records, newest first",
	}, s.handleFeeHeights)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "feescope_value_encode",
		Description: "Render a satoshi amount as a decimal coin string",
	}, s.handleValueEncode)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "feescope_value_decode",
		Description: "Parse a decimal coin string into satoshis",
	}, s.handleValueDecode)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "feescope_headers",
		Description: "BSV header chain sync status",
	}, s.handleHeaders)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "feescope_verify_merkle",
		Description: "Validate a merkle root against the synced header chain",
	}, s.handleVerifyMerkle)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "feescope_validate_address",
		Description: "Check that a string is a valid Base58Check P2PKH address",
	}, s.handleValidateAddress)
}

// --- Handlers ---

func (s *MCPServer) handleStatus(_ context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, any, error) {
	count, _ := db.CountBlockFees()

	var b strings.Builder
	fmt.Fprintf(&b, "# feescope Status\n\n")
	fmt.Fprintf(&b, "**Node ID:** `%s`\n", s.daemon.NodeID())
	fmt.Fprintf(&b, "**Uptime:** %s\n\n", format.Period(s.daemon.Uptime()))

	fmt.Fprintf(&b, "## Fees\n")
	fmt.Fprintf(&b, "- Stored blocks: %d\n", count)
	if latest, err := db.GetLatestFeeHeight(); err == nil {
		fmt.Fprintf(&b, "- Latest height: %d\n", latest)
	}

	fmt.Fprintf(&b, "\n## Headers\n")
	writeMap(&b, s.daemon.HeaderSyncStatus(), "- %s: %v\n")

	return textResult(b.String()), nil, nil
}

func (s *MCPServer) handleFeeChart(_ context.Context, _ *mcp.CallToolRequest, input feeChartInput) (*mcp.CallToolResult, any, error) {
	mode, err := fees.ParseMode(input.Mode)
	if err != nil {
		return errResult(err.Error()), nil, nil
	}
	height := input.Height
	if height <= 0 {
		height = -1
	}

	view, err := s.console.Chart(height, mode, input.Clip)
	if err != nil {
		return errResult(fmt.Sprintf("chart failed: %v", err)), nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Block %d fees (%s)\n\n", view.Height, view.Mode)
	if view.Hash != "" {
		fmt.Fprintf(&b, "- **Hash:** `%s`\n", view.Hash)
	}
	fmt.Fprintf(&b, "- **Size:** %s\n", view.SizeText)
	if view.MinedBy != "" {
		fmt.Fprintf(&b, "- **Mined by:** %s\n", view.MinedBy)
	}
	if view.Header != nil {
		fmt.Fprintf(&b, "- **Time:** %s\n", view.Header.Time)
	}
	fmt.Fprintf(&b, "- **Records:** %d\n", view.RecordCount)
	fmt.Fprintf(&b, "- **Total fee:** %s\n", view.TotalFee)
	fmt.Fprintf(&b, "- **Max rate:** %s sat/vB\n", view.Display.Max)
	fmt.Fprintf(&b, "- **Avg rate:** %s sat/vB\n", view.Display.Avg)
	fmt.Fprintf(&b, "- **Min rate:** %s sat/vB\n", view.Display.Min)
	fmt.Fprintf(&b, "- **Chart ceiling:** %.0f sat/vB\n", view.Ceiling)
	if n := len(view.Points); n > 0 {
		fmt.Fprintf(&b, "- **Total size:** %.0f vB\n", view.Points[n-1].Vbytes)
	}

	return textResult(b.String()), nil, nil
}

func (s *MCPServer) handleFeeHeights(_ context.Context, _ *mcp.CallToolRequest, input feeHeightsInput) (*mcp.CallToolResult, any, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}
	list, err := db.ListBlockFees(limit)
	if err != nil {
		return errResult(fmt.Sprintf("failed to list fee sets: %v", err)), nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Stored Fee Sets (%d)\n\n", len(list))
	if len(list) == 0 {
		fmt.Fprintf(&b, "No fee records stored yet.\n")
	} else {
		fmt.Fprintf(&b, "| Height | Hash | Size | Records | Mined by |\n")
		fmt.Fprintf(&b, "|--------|------|------|---------|----------|\n")
		for _, bf := range list {
			hash := bf.Hash
			if len(hash) > 16 {
				hash = hash[:16] + "..."
			}
			fmt.Fprintf(&b, "| %d | `%s` | %sB | %d | %s |\n",
				bf.Height, hash, format.BigNum(float64(bf.Size)), bf.RecordCount, bf.MinedBy)
		}
	}

	return textResult(b.String()), nil, nil
}

func (s *MCPServer) handleValueEncode(_ context.Context, _ *mcp.CallToolRequest, input valueEncodeInput) (*mcp.CallToolResult, any, error) {
	return textResult(value.Encode(input.Amount, input.Pad)), nil, nil
}

func (s *MCPServer) handleValueDecode(_ context.Context, _ *mcp.CallToolRequest, input valueDecodeInput) (*mcp.CallToolResult, any, error) {
	amount, err := value.Decode(input.Text)
	if err != nil {
		return errResult(err.Error()), nil, nil
	}
	return textResult(fmt.Sprintf("%d", amount)), nil, nil
}

func (s *MCPServer) handleHeaders(_ context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, any, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# Header Sync\n\n")
	writeMap(&b, s.daemon.HeaderSyncStatus(), "- **%s:** %v\n")

	return textResult(b.String()), nil, nil
}

func (s *MCPServer) handleVerifyMerkle(_ context.Context, _ *mcp.CallToolRequest, input verifyMerkleInput) (*mcp.CallToolResult, any, error) {
	if input.Root == "" {
		return errResult("root is required"), nil, nil
	}

	valid, err := s.daemon.ValidateMerkleRoot(input.Root, input.Height)
	if err != nil {
		return errResult(fmt.Sprintf("verification failed: %v", err)), nil, nil
	}

	status := "INVALID"
	if valid {
		status = "VALID"
	}

	text := fmt.Sprintf("# Merkle Verification\n\n- **Root:** `%s`\n- **Height:** %d\n- **Result:** %s",
		input.Root, input.Height, status)

	return textResult(text), nil, nil
}

func (s *MCPServer) handleValidateAddress(_ context.Context, _ *mcp.CallToolRequest, input addressInput) (*mcp.CallToolResult, any, error) {
	if _, err := wallet.ParseAddress(input.Address); err != nil {
		return errResult(err.Error()), nil, nil
	}
	return textResult(fmt.Sprintf("`%s` is a valid address", input.Address)), nil, nil
}

// --- Helpers ---

func writeMap(b *strings.Builder, m map[string]interface{}, line string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, line, k, m[k])
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
		IsError: true,
	}
}
