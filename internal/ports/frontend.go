package ports

// Frontend defines the interface for a request-serving front end (HTTP API,
// SMTP gateway, or CLI)
type Frontend interface {
	// Start starts serving requests
	Start() error

	// Stop stops the front end
	Stop() error
}
