// Package api exposes the operational HTTP surface of the ABI server: health,
// Prometheus metrics, the generated tool catalogue and the transaction
// journal. The MCP protocol itself is served over stdio by mcpserver.
package api
