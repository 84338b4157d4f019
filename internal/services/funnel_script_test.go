package services

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultFunnelScript(t *testing.T) {
	script := DefaultFunnelScript()
	if len(script.Domains) != 10 {
		t.Errorf("expected 10 domains, got %d", len(script.Domains))
	}
	if len(script.Roles) != 4 {
		t.Errorf("expected 4 roles, got %d", len(script.Roles))
	}
	for _, d := range script.Domains {
		if len(d.Subdomains) == 0 {
			t.Errorf("domain %s has no subdomains", d.ID)
		}
		if d.Subdomains[len(d.Subdomains)-1] != "Other" {
			t.Errorf("domain %s should end with an Other escape hatch", d.ID)
		}
	}
}

func TestLoadFunnelScriptNoPath(t *testing.T) {
	script, err := LoadFunnelScript("")
	if err != nil {
		t.Fatalf("LoadFunnelScript: %v", err)
	}
	if script.Welcome == "" {
		t.Error("defaults missing")
	}
}

func TestLoadFunnelScriptOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.yaml")
	yaml := `welcome: "Custom hello"
domains:
  - id: pets
    name: Pet Care
    subdomains: ["Grooming", "Other"]
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	script, err := LoadFunnelScript(path)
	if err != nil {
		t.Fatalf("LoadFunnelScript: %v", err)
	}
	if script.Welcome != "Custom hello" {
		t.Errorf("welcome override missing: %q", script.Welcome)
	}
	if len(script.Domains) != 1 || script.Domains[0].ID != "pets" {
		t.Errorf("domain override missing: %+v", script.Domains)
	}
	// untouched fields keep their defaults
	if len(script.Roles) != 4 {
		t.Errorf("roles should keep defaults, got %d", len(script.Roles))
	}
	if script.RolePrompt == "" {
		t.Error("role prompt should keep its default")
	}
}

func TestLoadFunnelScriptBadFile(t *testing.T) {
	if _, err := LoadFunnelScript(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte(":\n\t- broken"), 0o644)
	if _, err := LoadFunnelScript(path); err == nil {
		t.Error("expected error for invalid yaml")
	}
}
