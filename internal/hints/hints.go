// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-md2blog/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForBrowserConnect returns hints for browser launch errors (Mermaid
// diagrams and SVG rasterization need Chrome).
func ForBrowserConnect() string {
	var hints []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	// The launcher disables the sandbox only for CI=true or a custom binary.
	if (inCI || IsInContainer()) && os.Getenv("CI") != "true" && os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set CI=true to run Chrome without sandbox in Docker/CI")
	}
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use an installed Chrome")
	}

	return formatHints(hints)
}

// ForTimeout returns a hint about increasing timeout for slow operations.
func ForTimeout() string {
	return format("for large diagrams, use --timeout flag")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config and creating the file in the XDG config directory.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(slashed(p), "/md2blog/") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForStyleNotFound returns hints for style not found errors.
func ForStyleNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

// ForAuth returns hints for missing or rejected Google credentials.
func ForAuth(credentialsFile string) string {
	if credentialsFile == "" {
		return format("set blogger.credentialsFile to an OAuth client JSON, then run: md2blog auth")
	}
	return format("run: md2blog auth --config <file> to authorize again")
}

// ForUpload returns hints for image upload failures.
func ForUpload(backend string) string {
	switch backend {
	case "imgur":
		return format("check upload.imgur.clientId; Imgur limits anonymous uploads per hour")
	case "s3":
		return format("check upload.s3 endpoint, bucket and credentials")
	default:
		return format("set upload.backend to imgur or s3 to publish images")
	}
}

// ForD2NotFound returns hints when the d2 executable is missing.
func ForD2NotFound() string {
	return format("install d2 (https://d2lang.com) or set diagrams.d2Path")
}

// slashed normalizes separators for matching.
func slashed(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
