package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	apperrors "github.com/agbru/hypbound/internal/errors"
	"github.com/agbru/hypbound/internal/hypgeom"
	"github.com/agbru/hypbound/internal/mag"
)

var magEqual = cmp.Comparer(func(x, y mag.Mag) bool { return x.Equal(y) })

func TestParseConfig(t *testing.T) {
	t.Run("DefaultValues", func(t *testing.T) {
		t.Parallel()
		cfg, err := ParseConfig("hypbound", nil, io.Discard)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if cfg.R != DefaultR || cfg.Tol != DefaultTol || cfg.Z != DefaultZ {
			t.Errorf("unexpected defaults: %+v", cfg)
		}
		if cfg.Timeout != DefaultTimeout {
			t.Errorf("Expected default Timeout %v, got %v", DefaultTimeout, cfg.Timeout)
		}
		if cfg.MaxIterations != hypgeom.DefaultMaxIterations {
			t.Errorf("Expected default MaxIterations, got %d", cfg.MaxIterations)
		}
	})

	t.Run("ValidFlags", func(t *testing.T) {
		t.Parallel()
		args := []string{
			"-K", "5", "-A", "1", "-B", "0", "-r", "2",
			"-z", "0.5", "-tk", "3/7", "-tol", "100",
			"-max-iter", "50", "-timeout", "10s",
			"-q", "-json", "-log-level", "DEBUG",
		}
		cfg, err := ParseConfig("hypbound", args, io.Discard)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		want := hypgeom.Shape{K: 5, A: 1, B: 0, R: 2}
		if cfg.Shape() != want {
			t.Errorf("Shape() = %v, want %v", cfg.Shape(), want)
		}
		if cfg.Tol != 100 || cfg.MaxIterations != 50 || cfg.Timeout != 10*time.Second {
			t.Errorf("numeric flags not applied: %+v", cfg)
		}
		if !cfg.Quiet || !cfg.JSONOutput {
			t.Error("boolean flags not applied")
		}
		if cfg.LogLevel != "debug" {
			t.Errorf("LogLevel = %q, want lower-cased debug", cfg.LogLevel)
		}
		p, err := cfg.Problem()
		if err != nil {
			t.Fatal(err)
		}
		if !p.Z.Equal(mag.FromFloat64(0.5)) {
			t.Errorf("Z = %v, want 0.5", p.Z)
		}
	})

	t.Run("InvalidValues", func(t *testing.T) {
		t.Parallel()
		cases := [][]string{
			{"-timeout", "0s"},
			{"-max-iter", "0"},
			{"-concurrency", "0"},
			{"-cache-size", "-1"},
			{"-log-level", "loud"},
			{"-z", "-1"},
			{"-tk", "abc"},
		}
		for _, args := range cases {
			_, err := ParseConfig("hypbound", args, io.Discard)
			var cfgErr apperrors.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("%v: got %v, want ConfigError", args, err)
			}
		}
	})

	t.Run("ServerModeSkipsProblem", func(t *testing.T) {
		t.Parallel()
		if _, err := ParseConfig("hypbound", []string{"-server", "-z", "bogus"}, io.Discard); err != nil {
			t.Errorf("server mode must not parse -z: %v", err)
		}
	})

	t.Run("UnknownFlag", func(t *testing.T) {
		t.Parallel()
		if _, err := ParseConfig("hypbound", []string{"-n", "3"}, io.Discard); err == nil {
			t.Error("expected an error for an unknown flag")
		}
	})
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HYPBOUND_K", "7")
	t.Setenv("HYPBOUND_R", "0")
	t.Setenv("HYPBOUND_Z", "1/4")
	t.Setenv("HYPBOUND_TOL", "20")
	t.Setenv("HYPBOUND_TIMEOUT", "2m")
	t.Setenv("HYPBOUND_QUIET", "yes")
	t.Setenv("HYPBOUND_SERVER", "0")
	t.Setenv("HYPBOUND_PORT", "9999")
	t.Setenv("HYPBOUND_MAX_ITER", "not-a-number")

	cfg, err := ParseConfig("hypbound", []string{"-tol", "30"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.K != 7 || cfg.R != 0 || cfg.Z != "1/4" || cfg.Port != "9999" {
		t.Errorf("environment not applied: %+v", cfg)
	}
	if cfg.Tol != 30 {
		t.Errorf("flag must win over environment: Tol = %d", cfg.Tol)
	}
	if cfg.Timeout != 2*time.Minute || !cfg.Quiet || cfg.ServerMode {
		t.Errorf("duration/bool overrides: %+v", cfg)
	}
	if cfg.MaxIterations != hypgeom.DefaultMaxIterations {
		t.Errorf("malformed value must keep the default, got %d", cfg.MaxIterations)
	}
}

const yamlBatch = `
problems:
  - name: exp
    K: 0
    r: 1
    z: "1"
    tol: 64
  - K: 5
    A: 1
    z: "0.25"
    tk: "2"
`

const tomlBatch = `
[[problems]]
name = "exp"
K = 0
r = 1
z = "1"
tol = 64

[[problems]]
K = 5
A = 1
z = "0.25"
tk = "2"
`

func TestParseProblems(t *testing.T) {
	t.Parallel()
	want := []NamedProblem{
		{Name: "exp", Problem: hypgeom.Problem{
			Shape: hypgeom.Shape{R: 1}, TK: mag.One(), Z: mag.One(), Tol: 64,
		}},
		{Name: "#2", Problem: hypgeom.Problem{
			Shape: hypgeom.Shape{K: 5, A: 1, R: DefaultR},
			TK:    mag.FromUint(2), Z: mag.FromFloat64(0.25), Tol: DefaultTol,
		}},
	}
	for format, doc := range map[string]string{"yaml": yamlBatch, "toml": tomlBatch} {
		got, err := ParseProblems([]byte(doc), format)
		if err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		if diff := cmp.Diff(want, got, magEqual); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", format, diff)
		}
	}
}

func TestParseProblemsErrors(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name, doc, format string
	}{
		{"empty", "problems: []", "yaml"},
		{"bad yaml", "problems: [", "yaml"},
		{"bad toml", "[[problems]\n", "toml"},
		{"negative z", "problems:\n  - z: \"-2\"\n", "yaml"},
		{"format", "", "json"},
	}
	for _, tc := range cases {
		_, err := ParseProblems([]byte(tc.doc), tc.format)
		var cfgErr apperrors.ConfigError
		if !errors.As(err, &cfgErr) {
			t.Errorf("%s: got %v, want ConfigError", tc.name, err)
		}
	}
}

func TestLoadProblems(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.yml")
	if err := os.WriteFile(path, []byte(yamlBatch), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := LoadProblems(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Name != "exp" {
		t.Errorf("LoadProblems = %+v", got)
	}

	if _, err := LoadProblems(filepath.Join(dir, "batch.json")); err == nil {
		t.Error("expected an error for an unknown extension")
	}
	if _, err := LoadProblems(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
