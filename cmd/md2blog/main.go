package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"

	md2blog "github.com/alnah/go-md2blog"
	"github.com/alnah/go-md2blog/internal/blogger"
	"github.com/alnah/go-md2blog/internal/config"
	"github.com/alnah/go-md2blog/internal/diagram"
	"github.com/alnah/go-md2blog/internal/hints"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	env := DefaultEnv()
	loadDotEnv(env.Stderr)

	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	if slices.Contains(os.Args, "-v") || slices.Contains(os.Args, "--verbose") {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
	}

	os.Exit(runMain(os.Args, env))
}

// runMain dispatches the command named by args[1] and returns the exit code.
func runMain(args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	cmd, rest := args[1], args[2:]
	switch cmd {
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "md2blog %s\n", Version)
		return ExitSuccess
	case "help", "-h", "--help":
		return runHelp(rest, env)
	case "doctor":
		return runDoctorCmd(rest, env)
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	var err error
	switch cmd {
	case "convert":
		err = dispatch(rest, env, parseConvertFlags, func(f *convertFlags, pos []string) error {
			return runConvert(ctx, pos, f, env)
		})
	case "publish":
		err = dispatch(rest, env, parsePublishFlags, func(f *publishFlags, pos []string) error {
			return runPublish(ctx, pos, f, env)
		})
	case "serve":
		err = dispatch(rest, env, parseServeFlags, func(f *serveFlags, pos []string) error {
			return runServe(ctx, pos, f, env)
		})
	case "watch":
		err = dispatch(rest, env, parseWatchFlags, func(f *watchFlags, pos []string) error {
			return runWatch(ctx, pos, f, env)
		})
	case "auth":
		err = dispatch(rest, env, parseAuthFlags, func(f *authFlags, pos []string) error {
			return runAuth(ctx, pos, f, env)
		})
	default:
		fmt.Fprintf(env.Stderr, "unknown command: %s\n", cmd)
		printUsage(env.Stderr)
		return ExitUsage
	}

	if err == nil || errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	fmt.Fprintf(env.Stderr, "error: %v%s\n", err, hintFor(err))
	return exitCodeFor(err)
}

// dispatch parses flags with parse, then runs the command.
func dispatch[F any](args []string, env *Environment, parse func([]string, io.Writer) (F, []string, error), run func(F, []string) error) error {
	f, pos, err := parse(args, env.Stderr)
	if err != nil {
		return err
	}
	return run(f, pos)
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error) string {
	var apiErr *blogger.APIError
	switch {
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(nil)
	case errors.Is(err, blogger.ErrCredentials):
		return hints.ForAuth("")
	case errors.Is(err, blogger.ErrNoToken), errors.Is(err, blogger.ErrAuthorization):
		return hints.ForAuth("configured")
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized:
		return hints.ForAuth("configured")
	case errors.Is(err, md2blog.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, ErrWriteHTML):
		return hints.ForOutputDirectory()
	case errors.Is(err, diagram.ErrD2NotFound):
		return hints.ForD2NotFound()
	case errors.Is(err, md2blog.ErrStyleNotFound):
		return hints.ForStyleNotFound([]string{md2blog.DefaultStyle, md2blog.MinimalStyle})
	}
	return ""
}
