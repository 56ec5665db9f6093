// Package config assembles converter options from an optional ini file and
// the command line. Flags given on the command line win over the file.
package config

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"gopkg.in/ini.v1"

	"uvcompdb/internal/charset"
)

const (
	DefaultOutput = "compile_commands.json"
	section       = "convert"
)

// ErrUsage is returned for invalid arguments or option values.
var ErrUsage = errors.New("usage error")

// Options is everything a conversion run needs.
type Options struct {
	Projects []string
	Target   string
	// Append and Remove hold compiler arguments, already split.
	Append       []string
	Remove       []string
	StripSysroot bool
	// DiskTemplate is only applied when ReplaceDisk is set, since an empty
	// template is a valid replacement.
	DiskTemplate string
	ReplaceDisk  bool
	Output       string
	Rebuild      bool
	UV4          string
	// AnsiCharset is the code page of traces and build logs that are not
	// UTF-8. Empty leaves the choice to detection.
	AnsiCharset string
	Verbose     bool
	Quiet       bool
}

// Default returns the options used when neither a file nor a flag sets a
// value. Missing traces are only rebuilt on Windows, where UV4 runs.
func Default() Options {
	return Options{
		Output:  DefaultOutput,
		Rebuild: runtime.GOOS == "windows",
	}
}

type flags struct {
	set          *pflag.FlagSet
	config       string
	target       string
	appendArgs   []string
	removeArgs   []string
	stripSysroot bool
	disk         string
	output       string
	rebuild      bool
	uv4          string
	ansiCharset  string
	verbose      bool
	quiet        bool
}

func newFlags(name string) *flags {
	f := &flags{set: pflag.NewFlagSet(name, pflag.ContinueOnError)}
	d := Default()
	s := f.set
	s.StringVarP(&f.config, "config", "c", "", "ini file with a ["+section+"] section supplying defaults")
	s.StringVarP(&f.target, "target", "t", "", "target name (default: first target of each project)")
	s.StringArrayVarP(&f.appendArgs, "append", "a", nil, "arguments appended to every command, shell quoted (repeatable)")
	s.StringArrayVarP(&f.removeArgs, "remove", "r", nil, "flags removed from every command with their value, shell quoted (repeatable)")
	s.BoolVarP(&f.stripSysroot, "strip-sysroot", "s", false, "drop -I directories that hold no standard library header")
	s.StringVarP(&f.disk, "disk", "d", "", "replacement for drive prefixes such as C:/, e.g. /mnt/$d")
	s.StringVarP(&f.output, "output", "o", d.Output, "output file, - for stdout")
	s.BoolVar(&f.rebuild, "rebuild", d.Rebuild, "run UV4 when a dependency trace is missing")
	s.StringVar(&f.uv4, "uv4", "", "UV4 executable used for rebuilds")
	s.StringVar(&f.ansiCharset, "ansi-charset", "", "code page of non UTF-8 traces and build logs, e.g. gbk (default: detected)")
	s.BoolVarP(&f.verbose, "verbose", "v", false, "log debug messages")
	s.BoolVarP(&f.quiet, "quiet", "q", false, "log warnings and errors only")
	return f
}

// Parse parses args, which exclude the program name. It returns
// pflag.ErrHelp when help was requested.
func Parse(fsys afero.Fs, name string, args []string) (*Options, error) {
	f := newFlags(name)
	if err := f.set.Parse(args); err != nil {
		return nil, err
	}

	opts := Default()
	if f.config != "" {
		if err := loadFile(fsys, f.config, &opts); err != nil {
			return nil, err
		}
	}
	if err := f.apply(&opts); err != nil {
		return nil, err
	}

	opts.Projects = f.set.Args()
	if len(opts.Projects) == 0 {
		return nil, fmt.Errorf("%w: at least one .uvprojx file is required", ErrUsage)
	}
	if opts.AnsiCharset != "" && !charset.Valid(opts.AnsiCharset) {
		return nil, fmt.Errorf("%w: unknown charset %q", ErrUsage, opts.AnsiCharset)
	}
	if opts.Verbose && opts.Quiet {
		return nil, fmt.Errorf("%w: --verbose and --quiet are exclusive", ErrUsage)
	}
	return &opts, nil
}

// Usage returns the flag help text.
func Usage(name string) string {
	return newFlags(name).set.FlagUsages()
}

func (f *flags) apply(opts *Options) error {
	changed := f.set.Changed
	if changed("target") {
		opts.Target = f.target
	}
	if changed("append") {
		args, err := splitAll(f.appendArgs)
		if err != nil {
			return fmt.Errorf("%w: --append: %w", ErrUsage, err)
		}
		opts.Append = args
	}
	if changed("remove") {
		args, err := splitAll(f.removeArgs)
		if err != nil {
			return fmt.Errorf("%w: --remove: %w", ErrUsage, err)
		}
		opts.Remove = args
	}
	if changed("strip-sysroot") {
		opts.StripSysroot = f.stripSysroot
	}
	if changed("disk") {
		opts.DiskTemplate = f.disk
		opts.ReplaceDisk = true
	}
	if changed("output") {
		opts.Output = f.output
	}
	if changed("rebuild") {
		opts.Rebuild = f.rebuild
	}
	if changed("uv4") {
		opts.UV4 = f.uv4
		if !changed("rebuild") {
			opts.Rebuild = true
		}
	}
	if changed("ansi-charset") {
		opts.AnsiCharset = f.ansiCharset
	}
	if changed("verbose") {
		opts.Verbose = f.verbose
	}
	if changed("quiet") {
		opts.Quiet = f.quiet
	}
	return nil
}

func loadFile(fsys afero.Fs, path string, opts *Options) error {
	raw, err := afero.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("unable to read config: %w", err)
	}
	cfg, err := ini.Load(raw)
	if err != nil {
		return fmt.Errorf("unable to parse config %s: %w", path, err)
	}
	sec := cfg.Section(section)

	if sec.HasKey("target") {
		opts.Target = sec.Key("target").String()
	}
	for key, dst := range map[string]*[]string{"append": &opts.Append, "remove": &opts.Remove} {
		if !sec.HasKey(key) {
			continue
		}
		args, err := shellquote.Split(sec.Key(key).String())
		if err != nil {
			return fmt.Errorf("config %s: %s: %w", path, key, err)
		}
		*dst = args
	}
	if sec.HasKey("strip_sysroot") {
		if opts.StripSysroot, err = sec.Key("strip_sysroot").Bool(); err != nil {
			return fmt.Errorf("config %s: strip_sysroot: %w", path, err)
		}
	}
	if sec.HasKey("disk_template") {
		opts.DiskTemplate = sec.Key("disk_template").String()
		opts.ReplaceDisk = true
	}
	if sec.HasKey("output") {
		opts.Output = sec.Key("output").String()
	}
	if sec.HasKey("rebuild") {
		if opts.Rebuild, err = sec.Key("rebuild").Bool(); err != nil {
			return fmt.Errorf("config %s: rebuild: %w", path, err)
		}
	}
	if sec.HasKey("ansi_charset") {
		opts.AnsiCharset = sec.Key("ansi_charset").String()
	}
	if sec.HasKey("uv4") {
		opts.UV4 = sec.Key("uv4").String()
		if !sec.HasKey("rebuild") {
			opts.Rebuild = true
		}
	}
	return nil
}

func splitAll(values []string) ([]string, error) {
	var out []string
	for _, v := range values {
		args, err := shellquote.Split(v)
		if err != nil {
			return nil, err
		}
		out = append(out, args...)
	}
	return out, nil
}
