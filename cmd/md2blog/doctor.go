package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"

	"github.com/alnah/go-md2blog/internal/config"
	"github.com/alnah/go-md2blog/internal/diagram"
	"github.com/alnah/go-md2blog/internal/fileutil"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string      `json:"status"` // "ready", "warnings", "errors"
	Chrome   chromeInfo  `json:"chrome"`
	D2       d2Info      `json:"d2"`
	Publish  publishInfo `json:"publish"`
	Env      envInfo     `json:"environment"`
	System   systemInfo  `json:"system"`
	Warnings []string    `json:"warnings,omitempty"`
	Errors   []string    `json:"errors,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results.
type chromeInfo struct {
	Found    bool   `json:"found"`
	Path     string `json:"path,omitempty"`
	Version  string `json:"version,omitempty"`
	Required bool   `json:"required"` // mermaid diagrams or SVG rasterizing enabled
}

// d2Info holds d2 detection results.
type d2Info struct {
	Found bool   `json:"found"`
	Path  string `json:"path,omitempty"`
}

// publishInfo holds image host and Blogger readiness.
type publishInfo struct {
	UploadBackend string `json:"upload_backend"`
	Credentials   bool   `json:"credentials"`
	Token         bool   `json:"token"`
	Blogs         int    `json:"blogs"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	BrowserBin    string `json:"rod_browser_bin"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool   `json:"temp_writable"`
	Vault        string `json:"vault,omitempty"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(args []string, env *Environment) int {
	f, _, err := parseDoctorFlags(args, env.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintln(env.Stderr, err)
		return exitCodeFor(err)
	}

	result := runDoctor(f, env)

	if f.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(f *doctorFlags, env *Environment) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			BrowserBin: os.Getenv("ROD_BROWSER_BIN"),
		},
	}

	cfg, err := loadConfig(&f.common, env)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Config: %v", err))
		cfg = config.DefaultConfig()
	}

	result.Chrome.Required = cfg.Diagrams.Mermaid || cfg.Upload.Backend == config.BackendImgur
	checkChrome(result)
	checkD2(result, cfg)
	checkPublish(result, cfg)
	checkEnvironment(result)
	checkSystem(result, vaultRoot(&f.common, cfg))

	// Determine final status
	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkChrome detects Chrome/Chromium installation. A missing browser is
// an error only when the config needs one.
func checkChrome(result *doctorResult) {
	report := func(msg string) {
		if result.Chrome.Required {
			result.Errors = append(result.Errors, msg)
		} else {
			result.Warnings = append(result.Warnings, msg+" (needed for mermaid and SVG uploads)")
		}
	}

	chromePath := result.Env.BrowserBin
	if chromePath == "" {
		// Use rod's launcher to locate Chrome
		var found bool
		chromePath, found = launcher.LookPath()
		if !found {
			report("Chrome/Chromium not found. Install Chrome or set ROD_BROWSER_BIN")
			return
		}
	}

	// Verify it exists
	if _, err := os.Stat(chromePath); err != nil {
		report(fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath

	// Get version by running chrome --version
	cmd := exec.Command(chromePath, "--version") // #nosec G204 -- browser path from rod or ROD_BROWSER_BIN
	out, err := cmd.Output()
	if err == nil {
		result.Chrome.Version = strings.TrimSpace(string(out))
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Chrome version: %v", err))
	}
}

// checkD2 locates the d2 executable.
func checkD2(result *doctorResult, cfg *config.Config) {
	p, err := diagram.NewD2(cfg.Diagrams.D2Path, cfg.Diagrams.Timeout).LookPath()
	if err != nil {
		result.Warnings = append(result.Warnings,
			"d2 not found: d2 diagrams will render as errors. Install d2 or set diagrams.d2Path")
		return
	}
	result.D2.Found = true
	result.D2.Path = p
}

// checkPublish verifies the image host and Blogger settings.
func checkPublish(result *doctorResult, cfg *config.Config) {
	result.Publish.UploadBackend = cfg.Upload.Backend
	result.Publish.Blogs = len(cfg.Blogger.Blogs)

	if cfg.Upload.Backend == config.BackendNone {
		result.Warnings = append(result.Warnings,
			"No upload backend: images keep local links. Set upload.backend to imgur or s3")
	}

	creds := cfg.Blogger.CredentialsFile
	if creds == "" {
		result.Warnings = append(result.Warnings,
			"blogger.credentialsFile not set: publish is unavailable")
		return
	}
	if !fileutil.FileExists(creds) {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Blogger credentials not found at %s", creds))
		return
	}
	result.Publish.Credentials = true

	if fileutil.FileExists(tokenPath(&cfg.Blogger)) {
		result.Publish.Token = true
	} else {
		result.Warnings = append(result.Warnings,
			"No Blogger token yet. Run: md2blog auth")
	}
	if len(cfg.Blogger.Blogs) == 0 {
		result.Warnings = append(result.Warnings,
			"No blogs configured in blogger.blogs")
	}
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult) {
	// Detect container (multi-signal approach)
	result.Env.Container, result.Env.ContainerHint = isContainer()

	// Detect CI environments
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	// The launcher disables the sandbox only for CI=true or a custom binary.
	if (result.Env.Container || result.Env.CI) && os.Getenv("CI") != "true" && result.Env.BrowserBin == "" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected: set CI=true to run Chrome without sandbox")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer() (bool, string) {
	// Explicit override (highest priority)
	if os.Getenv("MD2BLOG_CONTAINER") == "1" {
		return true, "MD2BLOG_CONTAINER=1"
	}
	// Docker
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, "/.dockerenv"
	}
	// Podman / systemd-nspawn / general container indicator
	if v := os.Getenv("container"); v != "" {
		return true, "container=" + v
	}
	// Kubernetes
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the temp directory and the vault.
func checkSystem(result *doctorResult, root string) {
	// Check temp directory is writable
	tmpDir := os.TempDir()
	testFile := filepath.Join(tmpDir, "md2blog-doctor-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", tmpDir))
	} else {
		_ = os.Remove(testFile)
		result.System.TempWritable = true
	}

	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Vault directory not found: %s", root))
		return
	}
	if abs, err := filepath.Abs(root); err == nil {
		result.System.Vault = abs
	}
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "md2blog doctor")
	fmt.Fprintln(w)

	// Chrome section
	fmt.Fprintln(w, "Chrome/Chromium")
	if r.Chrome.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Chrome.Path)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Chrome.Version)
		}
	} else if r.Chrome.Required {
		fmt.Fprintln(w, "  [ERROR] Not found")
	} else {
		fmt.Fprintln(w, "  [WARN] Not found")
	}
	fmt.Fprintln(w)

	// Diagram section
	fmt.Fprintln(w, "Diagrams")
	if r.D2.Found {
		fmt.Fprintf(w, "  [OK] d2: %s\n", r.D2.Path)
	} else {
		fmt.Fprintln(w, "  [WARN] d2: not found")
	}
	fmt.Fprintln(w)

	// Publish section
	fmt.Fprintln(w, "Publishing")
	fmt.Fprintf(w, "  [OK] Upload backend: %s\n", r.Publish.UploadBackend)
	if r.Publish.Credentials {
		fmt.Fprintln(w, "  [OK] Blogger credentials: found")
	}
	if r.Publish.Token {
		fmt.Fprintln(w, "  [OK] Blogger token: found")
	}
	fmt.Fprintf(w, "  [OK] Blogs configured: %d\n", r.Publish.Blogs)
	fmt.Fprintln(w)

	// Environment section
	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	// System section
	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	if r.System.Vault != "" {
		fmt.Fprintf(w, "  [OK] Vault: %s\n", r.System.Vault)
	}
	fmt.Fprintln(w)

	// Warnings
	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	// Errors
	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	// Final status
	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to publish")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
