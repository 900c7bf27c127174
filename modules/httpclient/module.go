// Package httpclient provides a shareable HTTP client as a constructible
// class. Declaring it as a named singleton lets many parts of a document hand
// the same client around by reference.
package httpclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"reflect"
	"time"

	"github.com/vk/modelmirror/internal/ctxlog"
	"github.com/vk/modelmirror/internal/registry"
)

// Schema is the class identifier this module registers.
const Schema = "http_client"

// Module implements registry.Module for this package.
type Module struct{}

// Service is the constructed instance: configuration plus the shared client.
type Service struct {
	BaseURL            string `mirror:"base_url"`
	Timeout            string `mirror:"timeout"`
	InsecureSkipVerify bool   `mirror:"insecure_skip_verify"`

	client *http.Client
}

// Init builds the underlying client after parameter binding.
func (s *Service) Init(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	timeout := 10 * time.Second
	if s.Timeout != "" {
		parsed, err := time.ParseDuration(s.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", s.Timeout, err)
		}
		timeout = parsed
	}

	transport := http.DefaultTransport
	if s.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification", "base_url", s.BaseURL)
		transport = &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}
	}

	s.client = &http.Client{Timeout: timeout, Transport: transport}
	logger.Debug("HTTP client ready.", "base_url", s.BaseURL, "timeout", timeout)
	return nil
}

// Client returns the shared underlying client.
func (s *Service) Client() *http.Client { return s.client }

// Get issues a GET against the configured base URL.
func (s *Service) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return s.client.Do(req)
}

// Register registers the class with the engine.
func (m *Module) Register(r *registry.Registry) error {
	return r.Register(registry.ClassReference{
		Schema:  Schema,
		Version: "v1",
		Type:    reflect.TypeOf(Service{}),
	})
}
