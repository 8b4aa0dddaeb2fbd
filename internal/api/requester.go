package api

import "context"

// PathResolver exposes the endpoint builder bound to a base origin.
type PathResolver interface {
	endpoints() Endpoints
}

// HTTPExecutor performs API requests.
//
// send returns the response whatever its status; do and doRaw additionally
// require a 2xx status and turn anything else into an *HTTPError.
type HTTPExecutor interface {
	send(ctx context.Context, r request) (*response, error)
	do(ctx context.Context, r request, result any) error
	doRaw(ctx context.Context, r request) ([]byte, error)
}

// Requester combines PathResolver and HTTPExecutor. Services depend on it
// rather than on *Client so tests can substitute a fake executor.
type Requester interface {
	PathResolver
	HTTPExecutor
}

func (c *Client) endpoints() Endpoints {
	return c.Endpoints
}
