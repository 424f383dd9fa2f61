// Package daemon implements mosaicd, which serves a media catalog over the
// navigation contract on HTTP and gRPC.
package daemon

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/tOgg1/mosaic/internal/backend"
	"github.com/tOgg1/mosaic/internal/catalog"
	"github.com/tOgg1/mosaic/internal/models"
)

const shutdownTimeout = 5 * time.Second

// Options configures a Daemon.
type Options struct {
	HTTPAddr string
	GRPCAddr string
	// Token, when set, is required as a bearer token on both transports.
	Token string
}

// Daemon serves a Navigator.
type Daemon struct {
	nav    backend.Navigator
	opts   Options
	logger zerolog.Logger

	httpServer *http.Server
	grpcServer *grpc.Server

	mu           sync.Mutex
	httpListener net.Listener
	grpcListener net.Listener
}

// New creates a daemon serving nav.
func New(nav backend.Navigator, logger zerolog.Logger, opts Options) (*Daemon, error) {
	if nav == nil {
		return nil, errors.New("navigator is required")
	}
	if opts.HTTPAddr == "" && opts.GRPCAddr == "" {
		return nil, errors.New("at least one of http or grpc address is required")
	}

	d := &Daemon{nav: nav, opts: opts, logger: logger}
	d.httpServer = &http.Server{
		Handler:           d.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	d.grpcServer = grpc.NewServer(grpc.ChainUnaryInterceptor(d.logUnary, d.authUnary))
	backend.RegisterNavigatorServer(d.grpcServer, statusNavigator{nav})
	return d, nil
}

// Listen binds the configured addresses.
func (d *Daemon) Listen() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.opts.HTTPAddr != "" && d.httpListener == nil {
		ln, err := net.Listen("tcp", d.opts.HTTPAddr)
		if err != nil {
			return fmt.Errorf("listen http %s: %w", d.opts.HTTPAddr, err)
		}
		d.httpListener = ln
	}
	if d.opts.GRPCAddr != "" && d.grpcListener == nil {
		ln, err := net.Listen("tcp", d.opts.GRPCAddr)
		if err != nil {
			if d.httpListener != nil {
				_ = d.httpListener.Close()
				d.httpListener = nil
			}
			return fmt.Errorf("listen grpc %s: %w", d.opts.GRPCAddr, err)
		}
		d.grpcListener = ln
	}
	return nil
}

// HTTPAddr returns the bound HTTP address, or "".
func (d *Daemon) HTTPAddr() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.httpListener == nil {
		return ""
	}
	return d.httpListener.Addr().String()
}

// GRPCAddr returns the bound gRPC address, or "".
func (d *Daemon) GRPCAddr() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.grpcListener == nil {
		return ""
	}
	return d.grpcListener.Addr().String()
}

// Run listens and serves until ctx is canceled.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Listen(); err != nil {
		return err
	}

	d.mu.Lock()
	httpLn, grpcLn := d.httpListener, d.grpcListener
	d.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	if httpLn != nil {
		d.logger.Info().Str("addr", httpLn.Addr().String()).Msg("http listening")
		g.Go(func() error {
			if err := d.httpServer.Serve(httpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
	}
	if grpcLn != nil {
		d.logger.Info().Str("addr", grpcLn.Addr().String()).Msg("grpc listening")
		g.Go(func() error {
			if err := d.grpcServer.Serve(grpcLn); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("grpc server: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		d.shutdown()
		return nil
	})

	return g.Wait()
}

func (d *Daemon) shutdown() {
	d.logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := d.httpServer.Shutdown(ctx); err != nil {
		d.logger.Warn().Err(err).Msg("http shutdown")
	}

	stopped := make(chan struct{})
	go func() {
		d.grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-ctx.Done():
		d.grpcServer.Stop()
	}
}

func (d *Daemon) authorized(header string) bool {
	if d.opts.Token == "" {
		return true
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	return ok && subtle.ConstantTimeCompare([]byte(token), []byte(d.opts.Token)) == 1
}

func (d *Daemon) authUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	var header string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get("authorization"); len(values) > 0 {
			header = values[0]
		}
	}
	if !d.authorized(header) {
		return nil, status.Error(codes.Unauthenticated, "invalid or missing bearer token")
	}
	return handler(ctx, req)
}

func (d *Daemon) logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	event := d.logger.Debug()
	if err != nil {
		event = d.logger.Warn().Err(err)
	}
	event.Str("method", info.FullMethod).Dur("elapsed", time.Since(start)).Msg("grpc request")
	return resp, err
}

// statusNavigator reports unknown reference keys as NotFound over gRPC.
type statusNavigator struct {
	backend.Navigator
}

func (n statusNavigator) Navigate(ctx context.Context, req models.NavRequest) (*models.WireItem, error) {
	item, err := n.Navigator.Navigate(ctx, req)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, status.Error(codes.NotFound, err.Error())
	}
	return item, err
}
