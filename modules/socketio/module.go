// Package socketio provides a socket.io client endpoint as a constructible
// class.
package socketio

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/vk/modelmirror/internal/ctxlog"
	"github.com/vk/modelmirror/internal/registry"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Schema is the class identifier this module registers.
const Schema = "socketio_client"

// Module implements registry.Module for this package.
type Module struct{}

// Endpoint is the constructed instance: a prepared socket.io client that
// connects lazily on first use.
type Endpoint struct {
	URL                string `mirror:"url,required"`
	Namespace          string `mirror:"namespace"`
	Timeout            string `mirror:"timeout"`
	InsecureSkipVerify bool   `mirror:"insecure_skip_verify"`

	timeout time.Duration
	manager *socket.Manager
	io      *socket.Socket
}

// opResult carries one exchange result through the done channel.
type opResult struct {
	value any
	err   error
}

// Init validates the URL and prepares the manager and socket. Init does not
// connect; Exchange drives the connection per call.
func (e *Endpoint) Init(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	e.timeout = 10 * time.Second
	if e.Timeout != "" {
		parsed, err := time.ParseDuration(e.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", e.Timeout, err)
		}
		e.timeout = parsed
	}

	parsedURL, err := url.Parse(e.URL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	opts.SetTransports(types.NewSet(transports.WebSocket))
	if e.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification", "url", e.URL)
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}

	e.manager = socket.NewManager(baseURL, opts)
	e.io = e.manager.Socket(e.Namespace, opts)
	logger.Debug("Socket.io endpoint prepared.", "url", e.URL, "namespace", e.Namespace)
	return nil
}

// Exchange connects, emits emitEvent with data, and waits for one onEvent
// payload or the timeout.
func (e *Endpoint) Exchange(ctx context.Context, emitEvent string, data any, onEvent string) (any, error) {
	logger := ctxlog.FromContext(ctx).With("url", e.URL, "emitEvent", emitEvent, "onEvent", onEvent)
	logger.Debug("Exchange started")
	defer logger.Debug("Exchange finished")

	var isConnected atomic.Bool
	done := make(chan opResult, 1)
	opCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	defer e.io.Disconnect()

	e.io.On(types.EventName("connect"), func(...any) {
		isConnected.Store(true)
		logger.Info("Successfully connected", "namespace", e.Namespace, "sid", e.io.Id())
		if emitEvent != "" {
			e.io.Emit(emitEvent, data)
		}
	})
	e.io.On(types.EventName("connect_error"), func(errs ...any) {
		if err, ok := errs[0].(error); ok {
			done <- opResult{err: err}
			return
		}
		done <- opResult{err: fmt.Errorf("connect_error: %v", errs[0])}
	})
	e.io.On(types.EventName(onEvent), func(payload ...any) {
		var value any
		if len(payload) > 0 {
			value = payload[0]
		}
		done <- opResult{value: value}
	})

	e.io.Connect()

	select {
	case <-opCtx.Done():
		if isConnected.Load() {
			return nil, fmt.Errorf("timed out after connecting while waiting for event %q", onEvent)
		}
		return nil, fmt.Errorf("timed out while waiting for initial connection")
	case res := <-done:
		return res.value, res.err
	}
}

// Register registers the class with the engine.
func (m *Module) Register(r *registry.Registry) error {
	return r.Register(registry.ClassReference{
		Schema:  Schema,
		Version: "v1",
		Type:    reflect.TypeOf(Endpoint{}),
	})
}
