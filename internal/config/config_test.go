package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kailas-cloud/faqdex/internal/domain"
)

func validConfig() Config {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidateEngine_IgnoresHTTP(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.ValidateEngine(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_MissingValkeyAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing valkey addrs")
	}
}

func TestValidate_LocalDriverNeedsNoAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = DriverLocal
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "qdrant"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestValidate_ThresholdErrors(t *testing.T) {
	tests := []struct {
		name    string
		v, l, e float64
	}{
		{"out of range", 1.5, 0.3, 0.1},
		{"lexical above vector", 0.2, 0.3, 0.1},
		{"emergency above lexical", 0.5, 0.3, 0.4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Retrieval.VectorThreshold = ptr(tt.v)
			cfg.Retrieval.LexicalThreshold = ptr(tt.l)
			cfg.Retrieval.EmergencyThreshold = ptr(tt.e)

			err := cfg.Validate()
			if !errors.Is(err, domain.ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestValidate_ExplicitZeroThresholdKept(t *testing.T) {
	cfg := Config{
		HTTP:      HTTPConfig{Port: 8080},
		Database:  DatabaseConfig{Driver: DriverLocal},
		Retrieval: RetrievalConfig{EmergencyThreshold: ptr(0.0)},
	}
	cfg.ApplyDefaults()

	if *cfg.Retrieval.EmergencyThreshold != 0 {
		t.Errorf("explicit 0 should not be replaced, got %v", *cfg.Retrieval.EmergencyThreshold)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_LexicalMode(t *testing.T) {
	cfg := validConfig()
	cfg.Lexical.Mode = "phoneme"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown lexical mode")
	}
}

func TestValidate_DefaultResultsAboveMax(t *testing.T) {
	cfg := validConfig()
	cfg.Retrieval.DefaultResults = 50
	cfg.Retrieval.MaxResults = 10

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Database.Driver != DriverValkey {
		t.Errorf("expected driver valkey, got %q", cfg.Database.Driver)
	}
	if cfg.Embedding.Model != "all-MiniLM-L6-v2" {
		t.Errorf("expected MiniLM model, got %q", cfg.Embedding.Model)
	}
	if cfg.Embedding.Dimensions != 384 {
		t.Errorf("expected Dimensions=384, got %d", cfg.Embedding.Dimensions)
	}
	if *cfg.Retrieval.VectorThreshold != 0.5 ||
		*cfg.Retrieval.LexicalThreshold != 0.3 ||
		*cfg.Retrieval.EmergencyThreshold != 0.1 {
		t.Errorf("unexpected thresholds %v/%v/%v", *cfg.Retrieval.VectorThreshold,
			*cfg.Retrieval.LexicalThreshold, *cfg.Retrieval.EmergencyThreshold)
	}
	if cfg.Lexical.NgramSize != 3 || cfg.Lexical.Mode != "char" {
		t.Errorf("unexpected lexical defaults %d/%q", cfg.Lexical.NgramSize, cfg.Lexical.Mode)
	}
	if cfg.Index.HNSWM != 16 {
		t.Errorf("expected HNSWM=16, got %d", cfg.Index.HNSWM)
	}
	if cfg.Storage.KeyPrefix != "faqdex:" {
		t.Errorf("expected KeyPrefix='faqdex:', got %q", cfg.Storage.KeyPrefix)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database: DatabaseConfig{ReadinessTimeout: 15},
		Index:    IndexConfig{HNSWM: 32, HNSWEFConstruct: 400},
		Lexical:  LexicalConfig{NgramSize: 2, Mode: "word"},
		Storage:  StorageConfig{KeyPrefix: "custom:"},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Index.HNSWM != 32 {
		t.Errorf("expected HNSWM=32, got %d", cfg.Index.HNSWM)
	}
	if cfg.Lexical.Mode != "word" || cfg.Lexical.NgramSize != 2 {
		t.Errorf("lexical overridden: %d/%q", cfg.Lexical.NgramSize, cfg.Lexical.Mode)
	}
	if cfg.Storage.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Storage.KeyPrefix)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("FAQDEX_TEST_ADDR", "valkey:6379")

	got := string(expandEnvVars([]byte("a: ${FAQDEX_TEST_ADDR}\nb: ${FAQDEX_TEST_MISSING:-fallback}\nc: ${FAQDEX_TEST_MISSING}")))
	want := "a: valkey:6379\nb: fallback\nc: "
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	t.Setenv("FAQDEX_TEST_PORT", "9090")
	data := []byte(`
http:
  port: ${FAQDEX_TEST_PORT}
database:
  driver: local
retrieval:
  vector_threshold: 0.6
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("port = %d", cfg.HTTP.Port)
	}
	if *cfg.Retrieval.VectorThreshold != 0.6 {
		t.Errorf("vector threshold = %v", *cfg.Retrieval.VectorThreshold)
	}
}

func TestLoadFile_InvalidThresholdsFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	data := []byte(`
http:
  port: 8080
database:
  driver: local
retrieval:
  vector_threshold: 0.2
  lexical_threshold: 0.4
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(path)
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
