package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"uvcompdb/internal/charset"
	"uvcompdb/internal/compdb"
	"uvcompdb/internal/config"
	"uvcompdb/internal/uvproj"
)

const name = "uvcompdb"

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.StampMilli,
	})
}

func setLogLevel(opts *config.Options) {
	switch {
	case opts.Verbose:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case opts.Quiet:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func rebuilder(opts *config.Options) uvproj.Rebuilder {
	if !opts.Rebuild {
		return nil
	}
	return uvproj.UV4{Path: opts.UV4}
}

// Convert loads every project and applies the configured transforms to the
// combined command list.
func Convert(fsys afero.Fs, opts *config.Options) (*compdb.Converter, error) {
	conv := compdb.New()
	for _, project := range opts.Projects {
		abs, err := filepath.Abs(project)
		if err != nil {
			return nil, fmt.Errorf("unable to resolve %s: %w", project, err)
		}
		c, err := compdb.Load(fsys, filepath.ToSlash(abs), compdb.LoadOptions{
			Target:    opts.Target,
			Rebuilder: rebuilder(opts),
			Charset:   charset.ConvertOpts{AnsiCharset: opts.AnsiCharset},
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", project, err)
		}
		conv.Merge(c)
	}

	// Appended arguments go through the disk rewrite and the sysroot probe
	// like recorded ones.
	conv.RemoveArguments(opts.Remove...)
	conv.AppendArguments(opts.Append...)
	if opts.ReplaceDisk {
		conv.ReplaceDisk(opts.DiskTemplate)
	}
	if opts.StripSysroot {
		conv.StripSysrootIncludes(fsys)
	}
	return conv, nil
}

// Sink writes the database to output, or to stdout when output is "-".
func Sink(fsys afero.Fs, output string, conv *compdb.Converter) error {
	if output == "-" {
		_, err := conv.WriteTo(os.Stdout)
		return err
	}
	if err := compdb.Sink(fsys, output, conv); err != nil {
		return err
	}
	log.Info().Str("output", output).Int("commands", conv.Len()).Msg("wrote compilation database")
	return nil
}

func run(args []string) error {
	fsys := afero.NewOsFs()
	opts, err := config.Parse(fsys, name, args)
	if err != nil {
		return err
	}
	setLogLevel(opts)

	conv, err := Convert(fsys, opts)
	if err != nil {
		return err
	}
	return Sink(fsys, opts.Output, conv)
}

func main() {
	err := run(os.Args[1:])
	switch {
	case err == nil:
	case errors.Is(err, pflag.ErrHelp):
	case errors.Is(err, config.ErrUsage):
		fmt.Fprintf(os.Stderr, "%v\n\nUsage: %s [flags] <project.uvprojx>...\n%s", err, name, config.Usage(name))
		os.Exit(2)
	default:
		fmt.Fprintf(os.Stderr, "unable to generate compilation database: %v\n", err)
		os.Exit(1)
	}
}
