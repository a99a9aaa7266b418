package adapters

import "context"

// Transport is an interface for HTTP communication.
// Implement this interface to use custom HTTP clients.
type Transport interface {
	// Post sends body to url with the given headers.
	//
	// Parameters:
	//   - ctx: Cancels the request; deadlines are the transport's responsibility
	//   - url: The absolute collector URL
	//   - headers: Headers to set on the request
	//   - body: The exact bytes to transmit
	//
	// Returns the HTTP response (any status) or a network-level error.
	Post(ctx context.Context, url string, headers map[string]string, body []byte) (*HTTPResponse, error)
}
