package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	c := Default()
	if c.Query.DefaultLimit != 100 {
		t.Errorf("DefaultLimit = %d", c.Query.DefaultLimit)
	}
	if !c.Query.CombinedDatetimeMatching || !c.Query.OnlyWithStudies {
		t.Errorf("matching toggles = %+v", c.Query)
	}
	if c.Log.Level != "info" {
		t.Errorf("Level = %q", c.Log.Level)
	}
}

func TestLoadFrom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	doc := `
default_archive = "main"
project = "RESEARCH01"

[archives]
main = "/var/lib/qido/archive.db"
scratch = "/tmp/scratch.db"

[query]
default_limit = 25
max_limit = 200
only_with_studies = false
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	c, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if c.DefaultArchive != "main" || c.Project != "RESEARCH01" {
		t.Errorf("config = %+v", c)
	}
	if c.Query.DefaultLimit != 25 || c.Query.MaxLimit != 200 {
		t.Errorf("query config = %+v", c.Query)
	}
	if c.Query.OnlyWithStudies {
		t.Error("only_with_studies not overridden")
	}
	// Unset keys keep their defaults.
	if !c.Query.CombinedDatetimeMatching {
		t.Error("combined_datetime_matching lost its default")
	}
	if c.Log.Level != "info" {
		t.Errorf("Level = %q", c.Log.Level)
	}
}

func TestLoadFromMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("default_archive = [broken"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("malformed config accepted")
	}
}

func TestArchivePath(t *testing.T) {
	c := Default()
	c.DefaultArchive = "main"
	c.Archives = map[string]string{"main": "/var/lib/qido/archive.db"}

	if got, err := c.ArchivePath(""); err != nil || got != "/var/lib/qido/archive.db" {
		t.Errorf("default archive = %q, %v", got, err)
	}
	if got, err := c.ArchivePath("main"); err != nil || got != "/var/lib/qido/archive.db" {
		t.Errorf("named archive = %q, %v", got, err)
	}
	if _, err := c.ArchivePath("missing"); err == nil {
		t.Error("unknown archive accepted")
	}

	empty := Default()
	if _, err := empty.ArchivePath(""); err == nil {
		t.Error("unconfigured default accepted")
	}
}

func TestEffectiveLimit(t *testing.T) {
	c := Default()
	c.Query.DefaultLimit = 50
	c.Query.MaxLimit = 200

	tests := []struct {
		requested, want int
	}{
		{0, 50},
		{-1, 50},
		{120, 120},
		{500, 200},
	}
	for _, tt := range tests {
		if got := c.EffectiveLimit(tt.requested); got != tt.want {
			t.Errorf("EffectiveLimit(%d) = %d, want %d", tt.requested, got, tt.want)
		}
	}

	uncapped := Default()
	uncapped.Query.MaxLimit = 0
	if got := uncapped.EffectiveLimit(100000); got != 100000 {
		t.Errorf("uncapped EffectiveLimit = %d", got)
	}
}
