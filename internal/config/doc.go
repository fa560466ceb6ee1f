// Package config loads the JSON configuration of the ABI MCP server and lets
// environment variables override the contract, wallet and chain selection.
package config
