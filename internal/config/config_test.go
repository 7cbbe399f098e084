package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// tempConfigPath returns a path to a config file inside a temp directory.
func tempConfigPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "config.json")
}

// --- Defaults ---

func TestDefaults(t *testing.T) {
	d := Defaults()

	if d.Method == nil {
		t.Fatal("Defaults().Method should not be nil")
	}
	if *d.Method != -1 {
		t.Errorf("Defaults().Method = %d, want -1", *d.Method)
	}

	if d.School == nil {
		t.Fatal("Defaults().School should not be nil")
	}
	if *d.School != -1 {
		t.Errorf("Defaults().School = %d, want -1", *d.School)
	}

	if d.TimeFormat != "24h" {
		t.Errorf("Defaults().TimeFormat = %q, want %q", d.TimeFormat, "24h")
	}

	if d.City != "" || d.Country != "" {
		t.Error("Defaults() should have no location set")
	}
	if d.APIURL != "" || d.RecordsURL != "" || d.AuthURL != "" {
		t.Error("Defaults() should have no service URLs set")
	}
}

// --- Dir and Path with XDG ---

func TestDir_XDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")

	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}

	want := filepath.Join("/tmp/xdg-test", "salahtrack")
	if dir != want {
		t.Errorf("Dir() = %q, want %q", dir, want)
	}
}

func TestDir_FallbackToHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")

	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	want := filepath.Join(home, ".config", "salahtrack")
	if dir != want {
		t.Errorf("Dir() = %q, want %q", dir, want)
	}
}

// --- LoadFrom ---

func TestLoadFrom_NonExistentFile(t *testing.T) {
	cfg, err := LoadFrom("/no/such/file.json")
	if err != nil {
		t.Fatalf("LoadFrom non-existent should not error, got: %v", err)
	}
	if cfg.City != "" || cfg.Country != "" {
		t.Error("LoadFrom non-existent should return empty config")
	}
	if cfg.Method != nil {
		t.Error("LoadFrom non-existent should have nil Method")
	}
}

func TestLoadFrom_ValidJSON(t *testing.T) {
	path := tempConfigPath(t)

	method := 4
	data := Config{
		City:       "Riyadh",
		Country:    "Saudi Arabia",
		Method:     &method,
		TimeFormat: "12h",
		RecordsURL: "https://records.example.com",
	}
	raw, _ := json.MarshalIndent(data, "", "  ")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom error: %v", err)
	}

	if cfg.City != "Riyadh" {
		t.Errorf("City = %q, want %q", cfg.City, "Riyadh")
	}
	if cfg.Method == nil || *cfg.Method != 4 {
		t.Errorf("Method = %v, want 4", cfg.Method)
	}
	if cfg.TimeFormat != "12h" {
		t.Errorf("TimeFormat = %q, want %q", cfg.TimeFormat, "12h")
	}
	if cfg.RecordsURL != "https://records.example.com" {
		t.Errorf("RecordsURL = %q", cfg.RecordsURL)
	}
}

func TestLoadFrom_InvalidJSON(t *testing.T) {
	path := tempConfigPath(t)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Error("LoadFrom should error on invalid JSON")
	}
}

// --- Save round trip ---

func TestSaveTo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := Config{City: "Lahore", Country: "Pakistan", TimeFormat: "24h"}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo error: %v", err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom error: %v", err)
	}
	if got.City != "Lahore" || got.Country != "Pakistan" {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestResetAt(t *testing.T) {
	path := tempConfigPath(t)
	cfg := Config{City: "Lahore"}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatal(err)
	}

	if err := ResetAt(path); err != nil {
		t.Fatalf("ResetAt error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("config file should be gone after reset")
	}

	// Resetting a missing file is not an error.
	if err := ResetAt(path); err != nil {
		t.Errorf("ResetAt on missing file: %v", err)
	}
}

// --- Set / Get ---

func TestSet_Validation(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		wantErr bool
	}{
		{"city", "Istanbul", false},
		{"country", "Turkey", false},
		{"latitude", "41.0082", false},
		{"latitude", "91", true},
		{"latitude", "abc", true},
		{"longitude", "28.9784", false},
		{"longitude", "-200", true},
		{"method", "13", false},
		{"method", "99", true},
		{"method", "x", true},
		{"school", "1", false},
		{"school", "2", true},
		{"time_format", "12h", false},
		{"time_format", "25h", true},
		{"cache_dir", "/tmp/cache", false},
		{"api_url", "https://api.aladhan.com/v1", false},
		{"records_url", "https://records.example.com", false},
		{"auth_url", "https://auth.example.com", false},
		{"no_such_key", "v", true},
	}

	for _, tt := range tests {
		var cfg Config
		err := cfg.Set(tt.key, tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("Set(%q, %q) error = %v, wantErr %v", tt.key, tt.value, err, tt.wantErr)
		}
	}
}

func TestGet_RoundTrip(t *testing.T) {
	var cfg Config
	for _, pair := range [][2]string{
		{"city", "Istanbul"},
		{"latitude", "41.0082"},
		{"method", "13"},
		{"time_format", "12h"},
		{"records_url", "https://records.example.com"},
	} {
		if err := cfg.Set(pair[0], pair[1]); err != nil {
			t.Fatalf("Set(%q): %v", pair[0], err)
		}
		got, err := cfg.Get(pair[0])
		if err != nil {
			t.Fatalf("Get(%q): %v", pair[0], err)
		}
		if got != pair[1] {
			t.Errorf("Get(%q) = %q, want %q", pair[0], got, pair[1])
		}
	}

	if _, err := cfg.Get("no_such_key"); err == nil {
		t.Error("Get on unknown key should error")
	}
}

// --- Environment overrides ---

func TestApplyEnv_Overrides(t *testing.T) {
	t.Setenv("SALAHTRACK_CITY", "Cairo")
	t.Setenv("SALAHTRACK_METHOD", "5")
	t.Setenv("SALAHTRACK_RECORDS_URL", "https://records.env.example.com")

	cfg := Config{City: "Lahore"}
	if err := cfg.applyEnv(); err != nil {
		t.Fatalf("applyEnv error: %v", err)
	}

	if cfg.City != "Cairo" {
		t.Errorf("City = %q, want env override %q", cfg.City, "Cairo")
	}
	if cfg.Method == nil || *cfg.Method != 5 {
		t.Errorf("Method = %v, want 5", cfg.Method)
	}
	if cfg.RecordsURL != "https://records.env.example.com" {
		t.Errorf("RecordsURL = %q", cfg.RecordsURL)
	}
}

func TestApplyEnv_InvalidValue(t *testing.T) {
	t.Setenv("SALAHTRACK_LATITUDE", "not-a-number")

	var cfg Config
	if err := cfg.applyEnv(); err == nil {
		t.Error("applyEnv should reject invalid values")
	}
}

func TestMethodSchoolOrDefault(t *testing.T) {
	var cfg Config
	if got := cfg.MethodOrDefault(3); got != 3 {
		t.Errorf("MethodOrDefault = %d, want 3", got)
	}
	m := 7
	cfg.Method = &m
	if got := cfg.MethodOrDefault(3); got != 7 {
		t.Errorf("MethodOrDefault = %d, want 7", got)
	}

	if got := cfg.SchoolOrDefault(0); got != 0 {
		t.Errorf("SchoolOrDefault = %d, want 0", got)
	}
	s := 1
	cfg.School = &s
	if got := cfg.SchoolOrDefault(0); got != 1 {
		t.Errorf("SchoolOrDefault = %d, want 1", got)
	}
}
