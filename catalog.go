package moya

import "context"

// PromptCategory groups suggested starter prompts. Read-only: sourced
// externally and never mutated by the core.
type PromptCategory struct {
	Title       string
	Description string
	Prompts     []string
}

// CatalogSource fetches the starter-prompt catalog. An empty or failed
// response degrades to an empty catalog at the session layer rather
// than surfacing to the user.
type CatalogSource interface {
	StarterPrompts(ctx context.Context) ([]PromptCategory, error)
}
