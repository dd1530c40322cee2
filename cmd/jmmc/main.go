// Command jmmc is the j-- compiler front end. It scans source files,
// reports lexical diagnostics tagged file:line and, with -watch, re-checks
// files as they are saved.
package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/jmm-lang/jmmc/internal/cli"
	"github.com/jmm-lang/jmmc/internal/compiler"
)

const toolName = "jmmc"

type options struct {
	configPath string
	verbose    bool
	debug      bool
	target     string
	jobs       int
	watch      bool
	tokens     bool
	dumpAST    bool
	saveConfig bool
	maxErrors  int
	color      string
	version    bool
	jsonOut    bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(toolName, flag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options
	fs.StringVar(&o.configPath, "config", cli.DefaultConfigFile, "configuration file")
	fs.BoolVar(&o.verbose, "v", false, "verbose output")
	fs.BoolVar(&o.debug, "debug", false, "debug output")
	fs.StringVar(&o.target, "target", "", "target Java release, e.g. 1.8 or 17")
	fs.IntVar(&o.jobs, "j", 0, "files processed in parallel (0 = one per CPU)")
	fs.BoolVar(&o.watch, "watch", false, "re-check files when they change")
	fs.BoolVar(&o.tokens, "tokens", false, "print the token stream of each file")
	fs.BoolVar(&o.dumpAST, "dump-ast", false, "print the analyzed tree of each unit")
	fs.BoolVar(&o.saveConfig, "save-config", false, "write the effective configuration to the -config file and exit")
	fs.IntVar(&o.maxErrors, "max-errors", 0, "stop reporting after this many errors per file (0 = unlimited)")
	fs.StringVar(&o.color, "color", "", "colored diagnostics: auto, always or never")
	fs.BoolVar(&o.version, "version", false, "show version information")
	fs.BoolVar(&o.jsonOut, "json", false, "print version information as JSON")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [OPTIONS] <file.jmm|dir>...\n\nOPTIONS:\n", toolName)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if o.version {
		cli.PrintVersion(stdout, toolName, o.jsonOut)
		return 0
	}

	cfg, err := cli.LoadConfig(o.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	applyFlags(fs, &o, cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	logger := cli.NewLoggerTo(stderr, cfg.Verbose, cfg.Debug)

	target, err := compiler.ParseTarget(cfg.Target)
	if err != nil {
		logger.Error("%v", err)
		return 2
	}
	logger.Debug("target %s", target)

	if o.saveConfig {
		if err := cfg.SaveConfig(o.configPath); err != nil {
			logger.Error("%v", err)
			return 1
		}
		logger.Info("configuration written to %s", o.configPath)
		return 0
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}
	if cfg.WorkDir != "" && cfg.WorkDir != "." {
		if err := os.Chdir(cfg.WorkDir); err != nil {
			logger.Error("work_dir: %v", err)
			return 1
		}
	}

	paths, err := compiler.SourceFiles(fs.Args())
	if err != nil {
		logger.Error("%v", err)
		return 1
	}

	d := compiler.NewDriver(compiler.Options{
		Target:    target,
		Jobs:      cfg.Jobs,
		MaxErrors: cfg.MaxErrors,
		Color:     cfg.UseColor(os.Stderr),
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	status := check(ctx, d, paths, o, stdout, stderr, logger)
	if !o.watch {
		return status
	}

	w, err := compiler.NewWatcher(paths)
	if err != nil {
		logger.Error("watch: %v", err)
		return 1
	}
	defer w.Close()

	logger.Info("watching %d file(s)", len(paths))
	err = w.Run(ctx, func(path string) {
		logger.Info("%s changed", path)
		check(ctx, d, []string{path}, o, stdout, stderr, logger)
	})
	if err != nil && ctx.Err() == nil {
		logger.Error("watch: %v", err)
		return 1
	}
	return 0
}

// applyFlags overrides configuration values with the flags given on the
// command line.
func applyFlags(fs *flag.FlagSet, o *options, cfg *cli.Config) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "v":
			cfg.Verbose = o.verbose
		case "debug":
			cfg.Debug = o.debug
		case "target":
			cfg.Target = o.target
		case "j":
			cfg.Jobs = o.jobs
		case "max-errors":
			cfg.MaxErrors = o.maxErrors
		case "color":
			cfg.Color = o.color
		}
	})
}

// check scans paths, prints tokens and diagnostics and returns the exit
// status: 1 when any error was found. Each file becomes a compilation unit
// that is only generated when it scanned cleanly.
func check(ctx context.Context, d *compiler.Driver, paths []string, o options, stdout, stderr io.Writer, logger *cli.Logger) int {
	results, err := d.ScanFiles(ctx, paths)
	if err != nil {
		logger.Error("%v", err)
		return 1
	}

	status := 0
	for _, r := range results {
		if o.tokens {
			compiler.DumpTokens(stdout, r)
		}
		u := d.NewUnit(r)
		if o.dumpAST {
			u.Dump(stdout)
		}
		codes, err := u.Generate()
		switch {
		case stderrors.Is(err, compiler.ErrHasErrors):
			status = 1
		case err != nil:
			logger.Error("%v", err)
			status = 1
		default:
			logger.Debug("%s: %d method(s) generated", r.Path, len(codes))
		}
	}

	if n := d.Report(stderr, results); n > 0 {
		return 1
	}
	if status == 0 {
		logger.Info("%d file(s) checked, no errors", len(results))
	}
	return status
}
