// Package tools defines the tool registry: an explicit list of
// providers, each describing one tool module with named methods, that
// is flattened into (qualified name, handler) pairs for registration
// with the MCP transport. Validation is permissive — a broken
// provider or method is logged and skipped, never aborting discovery
// of the rest, so the server can always start (at worst with an empty
// tool set).
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// Handler executes one tool method. Expected failures are returned as
// errors; the dispatch layer converts them into error results for the
// client.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Method describes a single callable method of a tool module.
// Parameters and Returns hold JSON schemas for the arguments and the
// result.
type Method struct {
	Name        string
	Description string
	Handler     Handler
	Parameters  json.RawMessage
	Returns     json.RawMessage
}

// Definition is a tool module's self-description.
type Definition struct {
	Name        string
	Description string
	Methods     []Method
}

// Provider is implemented by every tool module.
type Provider interface {
	ToolDefinition() Definition
}

// RegisteredTool is one discovered method, ready for transport
// registration under its qualified name ({tool}_{method}).
type RegisteredTool struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     Handler
}

// emptyObjectSchema is used for methods that declare no parameters.
var emptyObjectSchema = json.RawMessage(`{"type":"object"}`)

// Registry holds the registered providers.
type Registry struct {
	logger    *slog.Logger
	providers []Provider
}

// NewRegistry creates a Registry seeded with the given providers.
func NewRegistry(logger *slog.Logger, providers ...Provider) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger, providers: providers}
}

// Register appends a provider.
func (r *Registry) Register(p Provider) {
	r.providers = append(r.providers, p)
}

// DiscoverTools performs a fresh scan over the providers and returns
// one entry per valid method. Providers with an empty or private
// (leading underscore) name, providers whose definition call panics,
// methods without a name or handler, and duplicate qualified names
// are all logged and skipped.
func (r *Registry) DiscoverTools() []RegisteredTool {
	var discovered []RegisteredTool
	seen := make(map[string]bool)

	for _, p := range r.providers {
		def, ok := r.definitionOf(p)
		if !ok {
			continue
		}

		for _, m := range def.Methods {
			if m.Name == "" {
				r.logger.Warn("skipping method without a name", "tool", def.Name)
				continue
			}
			if m.Handler == nil {
				r.logger.Warn("skipping method without a handler",
					"tool", def.Name, "method", m.Name)
				continue
			}

			qualified := fmt.Sprintf("%s_%s", def.Name, m.Name)
			if seen[qualified] {
				r.logger.Warn("skipping duplicate tool name", "name", qualified)
				continue
			}
			seen[qualified] = true

			schema := m.Parameters
			if len(schema) == 0 {
				schema = emptyObjectSchema
			}
			discovered = append(discovered, RegisteredTool{
				Name:        qualified,
				Description: m.Description,
				InputSchema: schema,
				Handler:     m.Handler,
			})
			r.logger.Debug("prepared tool for registration", "name", qualified)
		}
	}

	if len(discovered) == 0 {
		r.logger.Warn("no tools discovered; server will run without registered tools")
	}
	return discovered
}

// Definitions returns the full description of every valid tool
// module, for introspection use. The same module-level validation as
// DiscoverTools applies; method-level problems are left to the
// consumer.
func (r *Registry) Definitions() []Definition {
	defs := make([]Definition, 0, len(r.providers))
	for _, p := range r.providers {
		if def, ok := r.definitionOf(p); ok {
			defs = append(defs, def)
		}
	}
	return defs
}

// definitionOf obtains and validates a provider's definition. A
// panicking provider is treated as malformed and skipped.
func (r *Registry) definitionOf(p Provider) (def Definition, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("tool definition call failed, skipping module", "panic", rec)
			ok = false
		}
	}()

	def = p.ToolDefinition()
	if def.Name == "" {
		r.logger.Warn("skipping tool module without a name")
		return Definition{}, false
	}
	if strings.HasPrefix(def.Name, "_") {
		r.logger.Debug("skipping private tool module", "name", def.Name)
		return Definition{}, false
	}
	return def, true
}
