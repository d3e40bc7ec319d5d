package registry

import (
	"testing"

	"github.com/awalsh128/orchid/pkg/models"
)

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := New([]models.AgentDefinition{
		{Name: "main"},
		{Name: "main"},
	})
	if err == nil {
		t.Fatal("expected error for duplicate agent names")
	}
}

func TestNewRejectsUnnamed(t *testing.T) {
	_, err := New([]models.AgentDefinition{{Title: "No Name"}})
	if err == nil {
		t.Fatal("expected error for unnamed agent")
	}
}

func TestDefaultIsFirstRegistered(t *testing.T) {
	r, err := New([]models.AgentDefinition{
		{Name: "main"},
		{Name: "reviewer"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	def, ok := r.Default()
	if !ok {
		t.Fatal("expected a default agent")
	}
	if def.Name != "main" {
		t.Errorf("expected default 'main', got %q", def.Name)
	}

	if err := r.SetDefault("reviewer"); err != nil {
		t.Fatalf("SetDefault: %v", err)
	}
	def, _ = r.Default()
	if def.Name != "reviewer" {
		t.Errorf("expected default 'reviewer', got %q", def.Name)
	}

	if err := r.SetDefault("ghost"); err == nil {
		t.Error("expected error setting unknown default")
	}
}

func TestLookup(t *testing.T) {
	r, err := New([]models.AgentDefinition{{Name: "main"}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if !r.Has("main") {
		t.Error("expected Has('main') to be true")
	}
	if r.Has("ghost") {
		t.Error("expected Has('ghost') to be false")
	}
	if _, ok := r.Get("ghost"); ok {
		t.Error("expected Get('ghost') to report missing")
	}
	if r.Len() != 1 {
		t.Errorf("expected Len 1, got %d", r.Len())
	}
}
