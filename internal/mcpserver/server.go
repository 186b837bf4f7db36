package mcpserver

import (
	"context"
	"time"

	"github.com/b0ase/path402/apps/feescope/internal/console"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// DaemonInfo provides read-only access to daemon state for MCP tools.
type DaemonInfo interface {
	NodeID() string
	Uptime() time.Duration
	HeaderSyncStatus() map[string]interface{}
	ValidateMerkleRoot(root string, height int) (bool, error)
}

// MCPServer wraps the MCP protocol server with feescope tools.
type MCPServer struct {
	server  *mcp.Server
	daemon  DaemonInfo
	console *console.Service
}

// New creates an MCP server with all feescope tools registered.
func New(version string, daemon DaemonInfo, svc *console.Service) *MCPServer {
	s := &MCPServer{
		daemon:  daemon,
		console: svc,
		server: mcp.NewServer(
			&mcp.Implementation{
				Name:    "feescope",
				Version: version,
			},
			&mcp.ServerOptions{
				Instructions: "feescope block fee console. Provides tools to read per-block fee distributions, convert coin amounts, check addresses, and query header sync state.",
			},
		),
	}
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects.
func (s *MCPServer) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
