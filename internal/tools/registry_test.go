package tools

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
)

// stubProvider returns a fixed definition.
type stubProvider struct {
	def Definition
}

func (s stubProvider) ToolDefinition() Definition { return s.def }

// panickingProvider simulates a tool module whose definition call
// blows up.
type panickingProvider struct{}

func (panickingProvider) ToolDefinition() Definition { panic("broken module") }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okHandler(ctx context.Context, args map[string]any) (any, error) {
	return "ok", nil
}

func TestDiscoverToolsQualifiedNames(t *testing.T) {
	r := NewRegistry(discardLogger(), stubProvider{Definition{
		Name: "demo",
		Methods: []Method{
			{Name: "first", Handler: okHandler},
			{Name: "second", Handler: okHandler},
		},
	}})

	discovered := r.DiscoverTools()
	if len(discovered) != 2 {
		t.Fatalf("len(discovered) = %d, want 2", len(discovered))
	}
	if discovered[0].Name != "demo_first" || discovered[1].Name != "demo_second" {
		t.Fatalf("names = %s, %s, want demo_first, demo_second",
			discovered[0].Name, discovered[1].Name)
	}
}

func TestDiscoverToolsSkipsBrokenMethods(t *testing.T) {
	// One module mixing valid and broken methods: the valid ones are
	// still discovered.
	r := NewRegistry(discardLogger(), stubProvider{Definition{
		Name: "mixed",
		Methods: []Method{
			{Name: "good", Handler: okHandler},
			{Name: "", Handler: okHandler},
			{Name: "noHandler"},
			{Name: "alsoGood", Handler: okHandler},
		},
	}})

	discovered := r.DiscoverTools()
	if len(discovered) != 2 {
		t.Fatalf("len(discovered) = %d, want 2", len(discovered))
	}
	if discovered[0].Name != "mixed_good" || discovered[1].Name != "mixed_alsoGood" {
		t.Fatalf("names = %s, %s, want mixed_good, mixed_alsoGood",
			discovered[0].Name, discovered[1].Name)
	}
}

func TestDiscoverToolsSkipsInvalidModules(t *testing.T) {
	r := NewRegistry(discardLogger(),
		stubProvider{Definition{Name: "", Methods: []Method{{Name: "m", Handler: okHandler}}}},
		stubProvider{Definition{Name: "_private", Methods: []Method{{Name: "m", Handler: okHandler}}}},
		panickingProvider{},
		stubProvider{Definition{Name: "valid", Methods: []Method{{Name: "m", Handler: okHandler}}}},
	)

	discovered := r.DiscoverTools()
	if len(discovered) != 1 || discovered[0].Name != "valid_m" {
		t.Fatalf("discovered = %+v, want only valid_m", discovered)
	}
}

func TestDiscoverToolsSkipsDuplicates(t *testing.T) {
	r := NewRegistry(discardLogger(),
		stubProvider{Definition{Name: "demo", Methods: []Method{{Name: "m", Handler: okHandler}}}},
		stubProvider{Definition{Name: "demo", Methods: []Method{{Name: "m", Handler: okHandler}}}},
	)

	discovered := r.DiscoverTools()
	if len(discovered) != 1 {
		t.Fatalf("len(discovered) = %d, want 1 after duplicate skip", len(discovered))
	}
}

func TestDiscoverToolsDefaultSchema(t *testing.T) {
	r := NewRegistry(discardLogger(), stubProvider{Definition{
		Name:    "demo",
		Methods: []Method{{Name: "noParams", Handler: okHandler}},
	}})

	discovered := r.DiscoverTools()
	if len(discovered) != 1 {
		t.Fatalf("len(discovered) = %d, want 1", len(discovered))
	}

	var schema map[string]any
	if err := json.Unmarshal(discovered[0].InputSchema, &schema); err != nil {
		t.Fatalf("unmarshal default schema: %v", err)
	}
	if schema["type"] != "object" {
		t.Fatalf("default schema = %v, want an empty object schema", schema)
	}
}

func TestDiscoverToolsFreshScan(t *testing.T) {
	r := NewRegistry(discardLogger())
	if got := r.DiscoverTools(); len(got) != 0 {
		t.Fatalf("discovered = %+v, want none before registration", got)
	}

	r.Register(stubProvider{Definition{Name: "late", Methods: []Method{{Name: "m", Handler: okHandler}}}})
	if got := r.DiscoverTools(); len(got) != 1 {
		t.Fatalf("len(discovered) = %d, want 1 after Register", len(got))
	}
}

func TestDefinitions(t *testing.T) {
	r := NewRegistry(discardLogger(),
		stubProvider{Definition{Name: "a", Description: "first"}},
		panickingProvider{},
		stubProvider{Definition{Name: "_hidden"}},
		stubProvider{Definition{Name: "b", Description: "second"}},
	)

	defs := r.Definitions()
	if len(defs) != 2 {
		t.Fatalf("len(defs) = %d, want 2", len(defs))
	}
	if defs[0].Name != "a" || defs[1].Name != "b" {
		t.Fatalf("names = %s, %s, want a, b", defs[0].Name, defs[1].Name)
	}
}
