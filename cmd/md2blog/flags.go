package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	vault   string
	quiet   bool
	verbose bool
}

// styleFlags holds preview styling flags.
type styleFlags struct {
	style     string // Name, path or CSS content
	assetPath string // Override asset directory
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common   commonFlags
	style    styleFlags
	output   string
	workers  int
	timeout  string
	noUpload bool
}

// publishFlags holds all flags for the publish command.
type publishFlags struct {
	common  commonFlags
	style   styleFlags
	blog    string
	title   string
	timeout string
	draft   bool
	public  bool
	page    bool
	open    bool
	dryRun  bool
}

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	common  commonFlags
	style   styleFlags
	addr    string
	timeout string
	upload  bool
}

// watchFlags holds all flags for the watch command.
type watchFlags struct {
	common   commonFlags
	style    styleFlags
	output   string
	debounce string
	timeout  string
	noUpload bool
}

// authFlags holds all flags for the auth command.
type authFlags struct {
	common commonFlags
}

// doctorFlags holds all flags for the doctor command.
type doctorFlags struct {
	common commonFlags
	json   bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.StringVar(&f.vault, "vault", "", "vault directory (default: config or current directory)")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs and timing")
}

// addStyleFlags adds preview styling flags to a FlagSet.
func addStyleFlags(fs *flag.FlagSet, f *styleFlags) {
	fs.StringVar(&f.style, "style", "", "CSS style name, file path or content")
	fs.StringVar(&f.assetPath, "asset-path", "", "directory overriding embedded styles and templates")
}

// newFlagSet creates a FlagSet that reports errors instead of exiting.
func newFlagSet(name string, usage func(io.Writer), w io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(w)
	fs.Usage = func() { usage(w) }
	return fs
}

// parseConvertFlags parses flags for the convert command.
func parseConvertFlags(args []string, w io.Writer) (*convertFlags, []string, error) {
	f := &convertFlags{}
	fs := newFlagSet("convert", printConvertUsage, w)
	addCommonFlags(fs, &f.common)
	addStyleFlags(fs, &f.style)
	fs.StringVarP(&f.output, "output", "o", "", "output directory for HTML previews")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-note timeout (e.g. 30s, 2m)")
	fs.BoolVar(&f.noUpload, "no-upload", false, "keep local image links instead of uploading")

	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}

// parsePublishFlags parses flags for the publish command.
func parsePublishFlags(args []string, w io.Writer) (*publishFlags, []string, error) {
	f := &publishFlags{}
	fs := newFlagSet("publish", printPublishUsage, w)
	addCommonFlags(fs, &f.common)
	addStyleFlags(fs, &f.style)
	fs.StringVarP(&f.blog, "blog", "b", "", "blog alias or id (default: note, then config)")
	fs.StringVar(&f.title, "title", "", "article title (default: blogTitle or note name)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "conversion timeout (e.g. 30s, 2m)")
	fs.BoolVar(&f.draft, "draft", false, "publish as draft")
	fs.BoolVar(&f.public, "public", false, "publish publicly, overriding blogIsDraft")
	fs.BoolVar(&f.page, "page", false, "publish as a page instead of a post")
	fs.BoolVar(&f.open, "open", false, "open the article in a browser afterwards")
	fs.BoolVarP(&f.dryRun, "dry-run", "n", false, "convert and print the request without publishing")

	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}

// parseServeFlags parses flags for the serve command.
func parseServeFlags(args []string, w io.Writer) (*serveFlags, []string, error) {
	f := &serveFlags{}
	fs := newFlagSet("serve", printServeUsage, w)
	addCommonFlags(fs, &f.common)
	addStyleFlags(fs, &f.style)
	fs.StringVarP(&f.addr, "addr", "a", "127.0.0.1:8080", "listen address")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-note timeout (e.g. 30s, 2m)")
	fs.BoolVar(&f.upload, "upload", false, "upload images instead of serving vault files")

	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}

// parseWatchFlags parses flags for the watch command.
func parseWatchFlags(args []string, w io.Writer) (*watchFlags, []string, error) {
	f := &watchFlags{}
	fs := newFlagSet("watch", printWatchUsage, w)
	addCommonFlags(fs, &f.common)
	addStyleFlags(fs, &f.style)
	fs.StringVarP(&f.output, "output", "o", "", "output directory for HTML previews")
	fs.StringVar(&f.debounce, "debounce", "300ms", "delay before re-exporting a changed note")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-note timeout (e.g. 30s, 2m)")
	fs.BoolVar(&f.noUpload, "no-upload", false, "keep local image links instead of uploading")

	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}

// parseAuthFlags parses flags for the auth command.
func parseAuthFlags(args []string, w io.Writer) (*authFlags, []string, error) {
	f := &authFlags{}
	fs := newFlagSet("auth", printAuthUsage, w)
	addCommonFlags(fs, &f.common)

	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}

// parseDoctorFlags parses flags for the doctor command.
func parseDoctorFlags(args []string, w io.Writer) (*doctorFlags, []string, error) {
	f := &doctorFlags{}
	fs := newFlagSet("doctor", printDoctorUsage, w)
	addCommonFlags(fs, &f.common)
	fs.BoolVar(&f.json, "json", false, "print results as JSON")

	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}
