package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pthm/yupee"
	"github.com/pthm/yupee/lib/bundler"
	"github.com/pthm/yupee/lib/dom"
	"github.com/pthm/yupee/lib/store"
)

const version = "0.1.0"

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

func main() {
	if err := run(context.Background(), os.Stdin, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string) error {
	if len(args) < 1 {
		printUsage(stderr)
		return &ExitError{Code: 2, Message: "missing command"}
	}

	cmd, args := args[0], args[1:]
	switch cmd {
	case "render":
		return runRender(ctx, stdin, stdout, stderr, args)
	case "bundle":
		return runBundle(stderr, args)
	case "version":
		fmt.Fprintf(stdout, "yupee version %s\n", version)
		return nil
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		printUsage(stderr)
		return &ExitError{Code: 2, Message: "unknown command: " + cmd}
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `yupee - component loading for HTML documents

Usage:
  yupee <command> [arguments]

Commands:
  render [-config file] [-debug] <page.html>   Boot a page and print the resulting document
  bundle [-dry-run] [-clean] -i in -o out      Expand //#include directives
  version                                      Print version
  help                                         Show this help

Examples:
  yupee render -config yupee.yaml web/index.html
  yupee bundle -i src/main.js -o dist/yupee.js`)
}

func runRender(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string) error {
	flags := flag.NewFlagSet("render", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "YAML configuration file")
	debug := flags.Bool("debug", false, "trace to stderr")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return &ExitError{Code: 2, Message: err.Error()}
	}
	if flags.NArg() != 1 {
		return &ExitError{Code: 2, Message: "render: expected one page file"}
	}
	page := flags.Arg(0)

	var opts []yupee.Option
	if *configPath != "" {
		fc, err := yupee.LoadConfig(*configPath)
		if err != nil {
			return err
		}
		fileOpts, closer, err := fc.Options()
		if err != nil {
			return err
		}
		defer closer.Close()
		opts = append(opts, fileOpts...)
	} else {
		opts = append(opts, yupee.WithDriver(yupee.NewFSDriver(os.DirFS(filepath.Dir(page)), store.NewMemory())))
	}
	if *debug {
		opts = append(opts, yupee.WithDebug(yupee.TraceConsole), yupee.WithTraceOutput(stderr))
	}
	opts = append(opts, yupee.WithDialogs(yupee.NewTerminalDialogs(stdin, stderr)))

	f, err := os.Open(page)
	if err != nil {
		return err
	}
	defer f.Close()
	doc, err := dom.Parse(f)
	if err != nil {
		return fmt.Errorf("render: parse %s: %w", page, err)
	}

	return renderPage(ctx, yupee.New(doc, opts...), stdout)
}

// renderPage boots r and writes the resulting document. A load may have
// navigated, so the document is read after Boot.
func renderPage(ctx context.Context, r *yupee.Registry, w io.Writer) error {
	if err := r.Boot(ctx); err != nil {
		if code, exited := r.ExitCode(); exited {
			return &ExitError{Code: code, Message: err.Error()}
		}
		return err
	}
	if code, exited := r.ExitCode(); exited && code != 0 {
		return &ExitError{Code: code, Message: fmt.Sprintf("render: page exited with code %d", code)}
	}
	return r.Document().Render(w)
}

func runBundle(stderr io.Writer, args []string) error {
	flags := flag.NewFlagSet("bundle", flag.ContinueOnError)
	flags.SetOutput(stderr)
	input := flags.String("i", "main.js", "main file")
	output := flags.String("o", "bundle.js", "output file")
	dryRun := flags.Bool("dry-run", false, "show what would be written")
	clean := flags.Bool("clean", false, "remove the output file instead")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return &ExitError{Code: 2, Message: err.Error()}
	}

	b := bundler.New(bundler.Options{DryRun: *dryRun, Log: stderr})
	if *clean {
		return b.Clean(*output)
	}
	return b.Bundle(*input, *output)
}
