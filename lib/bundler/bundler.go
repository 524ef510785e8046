// Package bundler implements the build-time include preprocessor used to
// assemble a single script or component file from parts.
//
// A line of the form
//
//	//#include "file.js"
//
// in the main file is replaced with the content of file.js, read relative
// to the main file. Regions of an included file enclosed in //#start and
// //#end are dropped, so parts can carry scaffolding that only matters when
// they are used on their own.
package bundler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
)

// Header starts every file written by Bundle. Clean refuses to remove
// files without it.
const Header = "// Code generated by yupee bundle. DO NOT EDIT.\n"

var (
	includeRe = regexp.MustCompile(`//#include\s+"([\w./-]+)"`)
	regionRe  = regexp.MustCompile(`(?s)//#start.*?//#end`)
)

// ErrNotGenerated is returned by Clean for files it did not write.
var ErrNotGenerated = errors.New("bundler: file was not generated by bundle")

// Options configures the bundler.
type Options struct {
	// DryRun reports what would be written without touching the output.
	DryRun bool
	// Log receives progress lines. Nil discards them.
	Log io.Writer
}

// Bundler expands include directives.
type Bundler struct {
	opts Options
}

// New creates a new bundler.
func New(opts Options) *Bundler {
	if opts.Log == nil {
		opts.Log = io.Discard
	}
	return &Bundler{opts: opts}
}

// Expand returns the main file of fsys with every include directive
// replaced. Each distinct include is read once.
func (b *Bundler) Expand(fsys fs.FS, main string) (string, error) {
	src, err := fs.ReadFile(fsys, main)
	if err != nil {
		return "", err
	}

	dir := path.Dir(main)
	parts := make(map[string][]byte)
	for _, m := range includeRe.FindAllSubmatch(src, -1) {
		name := string(m[1])
		if _, ok := parts[name]; ok {
			continue
		}
		part, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return "", fmt.Errorf("include %q: %w", name, err)
		}
		parts[name] = StripRegions(part)
	}

	out := includeRe.ReplaceAllFunc(src, func(match []byte) []byte {
		name := string(includeRe.FindSubmatch(match)[1])
		return parts[name]
	})
	return string(out), nil
}

// StripRegions drops every //#start ... //#end region of src.
func StripRegions(src []byte) []byte {
	return regionRe.ReplaceAll(src, nil)
}

// Bundle expands input and writes the result, prefixed with Header, to
// output.
func (b *Bundler) Bundle(input, output string) error {
	fmt.Fprintf(b.opts.Log, "Processing %s\n", input)

	content, err := b.Expand(os.DirFS(filepath.Dir(input)), filepath.Base(input))
	if err != nil {
		return fmt.Errorf("bundle %s: %w", input, err)
	}

	if b.opts.DryRun {
		fmt.Fprintf(b.opts.Log, "Would write %s (%d bytes)\n", output, len(Header)+len(content))
		return nil
	}
	fmt.Fprintf(b.opts.Log, "Write to %s\n", output)
	return os.WriteFile(output, []byte(Header+content), 0o644)
}

// Clean removes an output file written by Bundle. A missing file is not
// an error.
func (b *Bundler) Clean(output string) error {
	data, err := os.ReadFile(output)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if !bytes.HasPrefix(data, []byte(Header)) {
		return fmt.Errorf("%w: %s", ErrNotGenerated, output)
	}

	if b.opts.DryRun {
		fmt.Fprintf(b.opts.Log, "Would remove %s\n", output)
		return nil
	}
	fmt.Fprintf(b.opts.Log, "Remove %s\n", output)
	return os.Remove(output)
}
