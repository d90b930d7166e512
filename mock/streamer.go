// Package mock provides test doubles for moya interfaces using
// function fields.
package mock

import (
	"context"

	"github.com/montycloud/moya"
)

// Interface compliance checks.
var (
	_ moya.Streamer      = (*Streamer)(nil)
	_ moya.CatalogSource = (*Catalog)(nil)
)

// Streamer is a test double for moya.Streamer.
// Set OpenFn before calling Open.
type Streamer struct {
	OpenFn func(ctx context.Context, req moya.Request) (moya.Stream, error)

	// Opened counts Open calls, for at-most-one-turn assertions.
	Opened int
}

// Open delegates to OpenFn.
func (s *Streamer) Open(ctx context.Context, req moya.Request) (moya.Stream, error) {
	s.Opened++
	return s.OpenFn(ctx, req)
}

// Catalog is a test double for moya.CatalogSource.
// Set StarterPromptsFn before calling StarterPrompts.
type Catalog struct {
	StarterPromptsFn func(ctx context.Context) ([]moya.PromptCategory, error)
}

// StarterPrompts delegates to StarterPromptsFn.
func (c *Catalog) StarterPrompts(ctx context.Context) ([]moya.PromptCategory, error) {
	return c.StarterPromptsFn(ctx)
}
