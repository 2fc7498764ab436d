package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dbdb.yaml")
	data := []byte(`dataDir: /var/lib/dbdb
itemsURL: mem://localhost/items
vantageCount: 8
distance: euclidean
lockTimeout: 2s
radiusFactor: 1.5
exclude:
  - ts_9
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "/var/lib/dbdb" || cfg.ItemsURL != "mem://localhost/items" {
		t.Fatalf("locations = %s %s", cfg.DataDir, cfg.ItemsURL)
	}
	if cfg.VantageCount != 8 || cfg.Distance != "euclidean" || cfg.RadiusFactor != 1.5 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if len(cfg.Exclude) != 1 || cfg.Exclude[0] != "ts_9" {
		t.Fatalf("exclude = %v", cfg.Exclude)
	}
	if cfg.LockTimeout != 2*time.Second {
		t.Fatalf("lock timeout = %v", cfg.LockTimeout)
	}
	if cfg.K != DefaultK || cfg.KernelMult != DefaultKernelMult {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.Catalog != filepath.Join("/var/lib/dbdb", DefaultCatalogName) {
		t.Fatalf("catalog = %s", cfg.Catalog)
	}
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	testCases := []struct {
		description string
		content     string
	}{
		{description: "negative k", content: "k: -1\n"},
		{description: "negative vantage count", content: "vantageCount: -3\n"},
		{description: "malformed yaml", content: "dataDir: [\n"},
	}
	for i, testCase := range testCases {
		path := filepath.Join(dir, filepath.Base(t.Name())+string(rune('a'+i))+".yaml")
		if err := os.WriteFile(path, []byte(testCase.content), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected error", testCase.description)
		}
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Errorf("expected error for missing file")
	}
}

func TestExpandUserPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}
	testCases := []struct {
		input  string
		expect string
		err    bool
	}{
		{input: "~/dbdb", expect: filepath.Join(home, "dbdb")},
		{input: "~", expect: home},
		{input: "/tmp/x", expect: "/tmp/x"},
		{input: "", expect: ""},
		{input: "~bob/x", err: true},
	}
	for _, testCase := range testCases {
		got, err := expandUserPath(testCase.input)
		if testCase.err {
			if err == nil {
				t.Errorf("%q: expected error", testCase.input)
			}
			continue
		}
		if err != nil || got != testCase.expect {
			t.Errorf("%q: got %q, %v; want %q", testCase.input, got, err, testCase.expect)
		}
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.VantageCount != DefaultVantageCount || cfg.Distance != DefaultDistance || cfg.RadiusFactor != DefaultRadiusFactor {
		t.Fatalf("cfg = %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}
