// Package backend implements the client side of the navigation contract:
// HTTP and gRPC transports plus an in-memory neighbor cache.
package backend

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/tOgg1/mosaic/internal/config"
	"github.com/tOgg1/mosaic/internal/models"
)

// Navigator is the single-step navigation primitive. A nil item with a nil
// error means the backend had nothing to return.
type Navigator interface {
	Navigate(ctx context.Context, req models.NavRequest) (*models.WireItem, error)
}

// Client is a Navigator that holds transport resources.
type Client interface {
	Navigator
	io.Closer
}

// ErrUnavailable wraps transport failures (connection refused, timeouts).
var ErrUnavailable = errors.New("backend unavailable")

// New builds a client for cfg, wrapped in a neighbor cache when
// cfg.CacheSize is positive.
func New(cfg config.BackendConfig) (Client, error) {
	var (
		client Client
		err    error
	)
	switch cfg.Transport {
	case config.TransportHTTP, "":
		client, err = NewHTTPClient(cfg.URL, HTTPOptions{Token: cfg.Token, Timeout: cfg.Timeout})
	case config.TransportGRPC:
		client, err = NewGRPCClient(cfg.GRPCAddr, GRPCOptions{Token: cfg.Token, Timeout: cfg.Timeout})
	default:
		return nil, fmt.Errorf("unknown backend transport %q", cfg.Transport)
	}
	if err != nil {
		return nil, err
	}
	if cfg.CacheSize > 0 {
		client = NewCachingClient(client, cfg.CacheSize)
	}
	return client, nil
}

// ContentURLer is implemented by transports that can build display URLs.
type ContentURLer interface {
	ContentURL(contentRef string) string
}

// ContentURL returns the display URL for contentRef, looking through the
// neighbor cache. It is empty for transports without one.
func ContentURL(nav Navigator, contentRef string) string {
	for {
		switch c := nav.(type) {
		case ContentURLer:
			return c.ContentURL(contentRef)
		case *CachingClient:
			nav = c.Client
		default:
			return ""
		}
	}
}
