// Package api provides an HTTP API server for browsing and searching color
// collections.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string

	// MaxUploadBytes bounds the size of an uploaded query image. Defaults
	// to 32 MiB.
	MaxUploadBytes int

	// DisableMCP leaves /mcp unmounted.
	DisableMCP bool
}
