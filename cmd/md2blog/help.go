package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2blog <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert    Export notes as standalone HTML previews")
	fmt.Fprintln(w, "  publish    Publish a note to Blogger")
	fmt.Fprintln(w, "  serve      Preview vault notes in a browser")
	fmt.Fprintln(w, "  watch      Re-export notes when they change")
	fmt.Fprintln(w, "  auth       Authorize access to Blogger")
	fmt.Fprintln(w, "  doctor     Check system configuration")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'md2blog help <command>' for details on a specific command.")
}

// printCommonUsage prints the flags shared by vault commands.
func printCommonUsage(w io.Writer) {
	fmt.Fprintln(w, "Common:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "      --vault <dir>         Vault directory (default: config or current directory)")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs and timing")
}

// printStyleUsage prints the preview styling flags.
func printStyleUsage(w io.Writer) {
	fmt.Fprintln(w, "Styling:")
	fmt.Fprintln(w, "      --style <s>           Style name (default, minimal), CSS file or CSS content")
	fmt.Fprintln(w, "      --asset-path <dir>    Directory overriding embedded styles and templates")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2blog convert [notes or directories...] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Export notes as standalone HTML previews. Without arguments, every")
	fmt.Fprintln(w, "note of the vault is exported.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory (default: next to each note)")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto)")
	fmt.Fprintln(w, "  -t, --timeout <d>         Per-note timeout (e.g. 30s, 2m)")
	fmt.Fprintln(w, "      --no-upload           Keep local image links instead of uploading")
	fmt.Fprintln(w)
	printStyleUsage(w)
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printPublishUsage prints usage for the publish command.
func printPublishUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2blog publish <note> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert a note, publish it to Blogger and record the article in the")
	fmt.Fprintln(w, "note's frontmatter. A note with blogArticleId updates its article.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Article:")
	fmt.Fprintln(w, "  -b, --blog <s>            Blog alias or id (default: note, then blogger.defaultBlog)")
	fmt.Fprintln(w, "      --title <s>           Article title (default: blogTitle or note name)")
	fmt.Fprintln(w, "      --page                Publish as a page instead of a post")
	fmt.Fprintln(w, "      --draft               Publish as draft")
	fmt.Fprintln(w, "      --public              Publish publicly, overriding blogIsDraft")
	fmt.Fprintln(w, "      --open                Open the article in a browser afterwards")
	fmt.Fprintln(w, "  -n, --dry-run             Print the request without uploading or publishing")
	fmt.Fprintln(w, "  -t, --timeout <d>         Conversion timeout (e.g. 30s, 2m)")
	fmt.Fprintln(w)
	printStyleUsage(w)
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2blog serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve previews of vault notes over HTTP. Notes are converted on each")
	fmt.Fprintln(w, "request; attachments are served from the vault.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Server:")
	fmt.Fprintln(w, "  -a, --addr <host:port>    Listen address (default: 127.0.0.1:8080)")
	fmt.Fprintln(w, "  -t, --timeout <d>         Per-note timeout (e.g. 30s, 2m)")
	fmt.Fprintln(w, "      --upload              Upload images instead of serving vault files")
	fmt.Fprintln(w)
	printStyleUsage(w)
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printWatchUsage prints usage for the watch command.
func printWatchUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2blog watch [notes or directories...] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Export notes, then re-export each note when it changes.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory (default: next to each note)")
	fmt.Fprintln(w, "      --debounce <d>        Delay before re-exporting (default: 300ms)")
	fmt.Fprintln(w, "  -t, --timeout <d>         Per-note timeout (e.g. 30s, 2m)")
	fmt.Fprintln(w, "      --no-upload           Keep local image links instead of uploading")
	fmt.Fprintln(w)
	printStyleUsage(w)
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printAuthUsage prints usage for the auth command.
func printAuthUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2blog auth [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Authorize md2blog to publish on Blogger. Opens the Google consent page,")
	fmt.Fprintln(w, "stores the token next to blogger.credentialsFile and checks the")
	fmt.Fprintln(w, "configured blogs.")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2blog doctor [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check Chrome, d2, publishing settings and the vault.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "      --json                Print results as JSON")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "publish":
		printPublishUsage(env.Stdout)
	case "serve":
		printServeUsage(env.Stdout)
	case "watch":
		printWatchUsage(env.Stdout)
	case "auth":
		printAuthUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: md2blog version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: md2blog help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
