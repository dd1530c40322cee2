package compiler

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jmm-lang/jmmc/internal/cli"
	"github.com/jmm-lang/jmmc/internal/diagnostic"
	"github.com/jmm-lang/jmmc/internal/lexer"
	"github.com/jmm-lang/jmmc/internal/position"
)

// Options configures a Driver.
type Options struct {
	Target    Target
	Jobs      int // concurrent units; 0 means one per CPU
	MaxErrors int
	Color     bool
	CacheSize int // scan results kept for unchanged files; 0 means 256
}

// Driver runs the front end over source files. Files are independent, so
// each one is processed on its own goroutine with its own diagnostics.
type Driver struct {
	opts   Options
	logger *cli.Logger
	cache  *scanCache
}

// NewDriver creates a driver. logger may be nil.
func NewDriver(opts Options, logger *cli.Logger) *Driver {
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.NumCPU()
	}
	if logger == nil {
		logger = cli.NewLoggerTo(io.Discard, false, false)
	}
	return &Driver{opts: opts, logger: logger, cache: newScanCache(opts.CacheSize)}
}

// CacheStats reports how often ScanSource reused an earlier result.
func (d *Driver) CacheStats() CacheStats { return d.cache.snapshot() }

// ScanResult is the token stream of one file and the diagnostics scanning
// produced.
type ScanResult struct {
	Path        string
	Tokens      []lexer.Token
	Diagnostics *diagnostic.DiagnosticEngine
}

// OK reports whether the file scanned without errors.
func (r *ScanResult) OK() bool { return !r.Diagnostics.HasErrors() }

func (d *Driver) diagnosticConfig() diagnostic.DiagnosticConfig {
	return diagnostic.DiagnosticConfig{
		MaxErrors:  d.opts.MaxErrors,
		ShowSource: true,
		Colorize:   d.opts.Color,
	}
}

// ScanSource tokenizes one in-memory source. A source already scanned under
// the same path returns the earlier result.
func (d *Driver) ScanSource(path, source string) *ScanResult {
	key := keyFor(path, source)
	if r, ok := d.cache.get(key); ok {
		d.logger.Debug("%s: unchanged, reusing scan", path)
		return r
	}

	file := position.NewSourceFile(path, source)
	engine := diagnostic.NewDiagnosticEngine(file, d.diagnosticConfig())
	tokens, _ := lexer.Tokenize(file.Content, engine.Reporter(diagnostic.DiagnosticLexical))
	d.logger.Debug("%s: %d tokens, %s", path, len(tokens), engine.Summary())
	r := &ScanResult{Path: path, Tokens: tokens, Diagnostics: engine}
	d.cache.put(key, r)
	return r
}

// ScanFiles reads and tokenizes paths concurrently. Results keep the order
// of paths. Lexical errors are diagnostics, not errors; the returned error is
// the first file that could not be read, or the context's error.
func (d *Driver) ScanFiles(ctx context.Context, paths []string) ([]*ScanResult, error) {
	results := make([]*ScanResult, len(paths))
	semaphore := make(chan struct{}, d.opts.Jobs)

	g, gctx := errgroup.WithContext(ctx)

	for i, path := range paths {
		i, path := i, path

		g.Go(func() error {
			select {
			case semaphore <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-semaphore }()

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}

			d.logger.Info("scanning %s", path)
			results[i] = d.ScanSource(path, string(data))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// NewUnit creates the compilation unit of a scanned file, configured like
// the driver. The unit starts with the file's lexical errors, so it will not
// generate code for a file that did not scan cleanly. The scan result itself
// is left untouched since it may be reused from the cache.
func (d *Driver) NewUnit(r *ScanResult) *Unit {
	file := r.Diagnostics.File()
	u := &Unit{
		File:        file,
		Target:      d.opts.Target,
		Diagnostics: diagnostic.NewDiagnosticEngine(file, d.diagnosticConfig()),
	}
	for _, diag := range r.Diagnostics.GetDiagnostics() {
		u.Diagnostics.AddDiagnostic(diag)
	}
	return u
}

// Report writes the diagnostics of every result to w and returns the total
// number of errors.
func (d *Driver) Report(w io.Writer, results []*ScanResult) int {
	total := 0
	for _, r := range results {
		if r == nil {
			continue
		}
		io.WriteString(w, r.Diagnostics.FormatDiagnostics())
		total += r.Diagnostics.ErrorCount()
	}
	if total > 0 {
		fmt.Fprintf(w, "%s\n", plural(total, "error"))
	}
	return total
}

// DumpTokens writes one token per line: line number, kind and image.
func DumpTokens(w io.Writer, r *ScanResult) {
	fmt.Fprintf(w, "== %s\n", r.Path)
	for _, tok := range r.Tokens {
		fmt.Fprintf(w, "%d\t%s\t%s\n", tok.Line, tok.Type, tok.Image())
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %s", n, word+"s")
}

// SourceFiles expands directories in args to the .jmm files they contain.
func SourceFiles(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), SourceExt) {
				out = append(out, filepath.Join(arg, e.Name()))
			}
		}
	}
	return out, nil
}

// SourceExt is the file extension of j-- sources.
const SourceExt = ".jmm"
