package main

// Notes:
// - Tests use black-box approach: testing through runDoctorCmd() observable outputs
// - Chrome and d2 detection depend on system state, so their results are only
//   checked for consistency with the reported status
// - Container detection tests modify environment variables, cannot use t.Parallel()

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/alnah/go-md2blog/internal/config"
)

// runDoctorJSON runs doctor with --json over cfg and decodes the result.
func runDoctorJSON(t *testing.T, cfg *config.Config) (doctorResult, int) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	env := &Environment{Stdout: &stdout, Stderr: &stderr, Config: cfg}

	code := runDoctorCmd([]string{"--json"}, env)

	var result doctorResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		t.Fatalf("Invalid JSON output: %v\nOutput was: %s", err, stdout.String())
	}
	return result, code
}

// ---------------------------------------------------------------------------
// TestRunDoctorCmd_JSONOutput - JSON output format and structure
// ---------------------------------------------------------------------------

func TestRunDoctorCmd_JSONOutput(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Vault.Root = t.TempDir()

	result, code := runDoctorJSON(t, cfg)

	validStatuses := map[string]bool{"ready": true, "warnings": true, "errors": true}
	if !validStatuses[result.Status] {
		t.Errorf("Invalid status %q, expected ready/warnings/errors", result.Status)
	}
	if result.Status == "errors" && code != ExitGeneral {
		t.Errorf("Expected exit code %d for errors status, got %d", ExitGeneral, code)
	}
	if result.Status != "errors" && code != ExitSuccess {
		t.Errorf("Expected exit code %d for non-error status, got %d", ExitSuccess, code)
	}

	if result.Env.OS != runtime.GOOS {
		t.Errorf("OS = %q, want %q", result.Env.OS, runtime.GOOS)
	}
	if result.Env.Arch != runtime.GOARCH {
		t.Errorf("Arch = %q, want %q", result.Env.Arch, runtime.GOARCH)
	}
	if result.Chrome.Required {
		t.Error("Chrome should not be required without mermaid or imgur")
	}
	if result.Publish.UploadBackend != config.BackendNone {
		t.Errorf("UploadBackend = %q, want none", result.Publish.UploadBackend)
	}
	if result.System.Vault == "" {
		t.Error("Vault should be reported for an existing directory")
	}
	if !slices.ContainsFunc(result.Warnings, func(w string) bool { return strings.Contains(w, "credentialsFile") }) {
		t.Errorf("Warnings = %v, want missing credentials warning", result.Warnings)
	}
}

// ---------------------------------------------------------------------------
// TestRunDoctorCmd_PublishChecks - Blogger readiness
// ---------------------------------------------------------------------------

func TestRunDoctorCmd_PublishChecks(t *testing.T) {
	t.Parallel()

	t.Run("missing credentials file is an error", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.Vault.Root = t.TempDir()
		cfg.Blogger.CredentialsFile = filepath.Join(t.TempDir(), "missing.json")

		result, code := runDoctorJSON(t, cfg)
		if result.Status != "errors" || code != ExitGeneral {
			t.Errorf("Status = %q code = %d, want errors and %d", result.Status, code, ExitGeneral)
		}
		if result.Publish.Credentials {
			t.Error("Credentials should be false")
		}
	})

	t.Run("credentials and token found", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		creds := filepath.Join(dir, "client.json")
		token := filepath.Join(dir, "token.json")
		for _, p := range []string{creds, token} {
			if err := os.WriteFile(p, []byte("{}"), 0o600); err != nil {
				t.Fatal(err)
			}
		}

		cfg := config.DefaultConfig()
		cfg.Vault.Root = dir
		cfg.Blogger.CredentialsFile = creds
		cfg.Blogger.TokenFile = token
		cfg.Blogger.Blogs = []config.Blog{{ID: "1", Alias: "main"}}

		result, _ := runDoctorJSON(t, cfg)
		if !result.Publish.Credentials || !result.Publish.Token || result.Publish.Blogs != 1 {
			t.Errorf("Publish = %+v, want credentials, token and one blog", result.Publish)
		}
	})

	t.Run("missing vault is an error", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.Vault.Root = filepath.Join(t.TempDir(), "nope")

		result, code := runDoctorJSON(t, cfg)
		if code != ExitGeneral {
			t.Errorf("code = %d, want %d", code, ExitGeneral)
		}
		if !slices.ContainsFunc(result.Errors, func(e string) bool { return strings.Contains(e, "Vault directory not found") }) {
			t.Errorf("Errors = %v, want vault error", result.Errors)
		}
	})

	t.Run("chrome required for imgur", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.Vault.Root = t.TempDir()
		cfg.Upload.Backend = config.BackendImgur

		result, _ := runDoctorJSON(t, cfg)
		if !result.Chrome.Required {
			t.Error("Chrome should be required for imgur uploads")
		}
	})
}

// ---------------------------------------------------------------------------
// TestRunDoctorCmd_HumanOutput - Human-readable output format
// ---------------------------------------------------------------------------

func TestRunDoctorCmd_HumanOutput(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Vault.Root = t.TempDir()

	var stdout, stderr bytes.Buffer
	env := &Environment{Stdout: &stdout, Stderr: &stderr, Config: cfg}

	runDoctorCmd(nil, env)

	output := stdout.String()
	for _, section := range []string{
		"md2blog doctor",
		"Chrome/Chromium",
		"Diagrams",
		"Publishing",
		"Environment",
		"System",
		"Status:",
	} {
		if !strings.Contains(output, section) {
			t.Errorf("Output missing section %q", section)
		}
	}
}

func TestRunDoctorCmd_InvalidFlag(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	env := &Environment{Stdout: &stdout, Stderr: &stderr, Config: config.DefaultConfig()}

	if code := runDoctorCmd([]string{"--bogus"}, env); code != ExitUsage {
		t.Errorf("code = %d, want %d", code, ExitUsage)
	}
}

// ---------------------------------------------------------------------------
// TestIsContainer - Container detection
// ---------------------------------------------------------------------------

func TestIsContainer_ExplicitOverride(t *testing.T) {
	t.Setenv("MD2BLOG_CONTAINER", "1")

	got, hint := isContainer()
	if !got || hint != "MD2BLOG_CONTAINER=1" {
		t.Errorf("isContainer() = %v, %q; want true, MD2BLOG_CONTAINER=1", got, hint)
	}
}
