// Package config loads the Web3-MCP runtime configuration from the process
// environment, optionally seeded from a dotenv file, applies defaults from
// struct tags and validates the result before anything dials the chain.
package config
