package integrations

import (
	"context"
	"testing"
)

func TestRegistryProviders(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	if r.ActiveProviders() != 0 {
		t.Errorf("ActiveProviders() = %d on empty registry", r.ActiveProviders())
	}

	if err := r.RegisterProvider(ctx, "openai", map[string]string{"region": "us"}); err != nil {
		t.Fatalf("RegisterProvider() error = %v", err)
	}
	if err := r.RegisterProvider(ctx, "anthropic", nil); err != nil {
		t.Fatalf("RegisterProvider() error = %v", err)
	}

	if r.ActiveProviders() != 2 {
		t.Errorf("ActiveProviders() = %d, want 2", r.ActiveProviders())
	}

	// Re-registering replaces, not duplicates
	if err := r.RegisterProvider(ctx, "openai", map[string]string{"region": "eu"}); err != nil {
		t.Fatalf("RegisterProvider() error = %v", err)
	}
	if r.ActiveProviders() != 2 {
		t.Errorf("ActiveProviders() after re-register = %d, want 2", r.ActiveProviders())
	}
}

func TestRegistryModels(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	if err := r.RegisterModel(ctx, "openai", "gpt-4", nil); err != nil {
		t.Fatalf("RegisterModel() error = %v", err)
	}
	if err := r.RegisterModel(ctx, "openai", "gpt-3.5", nil); err != nil {
		t.Fatalf("RegisterModel() error = %v", err)
	}

	if r.ActiveModels() != 2 {
		t.Errorf("ActiveModels() = %d, want 2", r.ActiveModels())
	}

	// Registering a model implicitly registers its provider
	if r.ActiveProviders() != 1 {
		t.Errorf("ActiveProviders() = %d, want 1 (implicit)", r.ActiveProviders())
	}
}

func TestRegistryValidation(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	if err := r.RegisterProvider(ctx, "", nil); err == nil {
		t.Error("empty provider name should fail")
	}
	if err := r.RegisterModel(ctx, "", "model", nil); err == nil {
		t.Error("empty provider name should fail")
	}
	if err := r.RegisterModel(ctx, "provider", "", nil); err == nil {
		t.Error("empty model name should fail")
	}
}

func TestRegistryConfigIsolation(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	cfg := map[string]string{"key": "original"}
	r.RegisterProvider(ctx, "provider", cfg)
	cfg["key"] = "mutated"

	all := r.List()
	if len(all) != 1 {
		t.Fatalf("List() has %d entries, want 1", len(all))
	}
	if all[0].Config["key"] != "original" {
		t.Error("registry should copy caller config maps")
	}
}

func TestRegistryListSorted(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	r.RegisterModel(ctx, "zeta", "m1", nil)
	r.RegisterProvider(ctx, "alpha", nil)
	r.RegisterModel(ctx, "alpha", "m2", nil)

	all := r.List()
	// alpha, alpha/m2, zeta, zeta/m1
	if len(all) != 4 {
		t.Fatalf("List() has %d entries, want 4", len(all))
	}
	if all[0].Provider != "alpha" || all[0].Model != "" {
		t.Errorf("List()[0] = %+v", all[0])
	}
	if all[1].Provider != "alpha" || all[1].Model != "m2" {
		t.Errorf("List()[1] = %+v", all[1])
	}
	if all[3].Provider != "zeta" || all[3].Model != "m1" {
		t.Errorf("List()[3] = %+v", all[3])
	}
}
