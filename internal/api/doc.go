// Package api exposes the MCP tool server over streamable HTTP together with
// health and metrics endpoints.
package api
