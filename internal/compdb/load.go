package compdb

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"uvcompdb/internal/charset"
	"uvcompdb/internal/toolchain"
	"uvcompdb/internal/uvproj"
)

// LoadOptions selects the target to convert and how to recover a missing
// dependency trace.
type LoadOptions struct {
	// Target is the target name; empty selects the first named target.
	Target string
	// Rebuilder regenerates the trace when it does not exist yet. Nil
	// disables regeneration.
	Rebuilder uvproj.Rebuilder
	// Charset decodes the trace and the build log.
	Charset charset.ConvertOpts
}

// Load builds a converter from one target of the project file. Commands run
// in the project's directory. When the build log names a toolchain, its
// compiler becomes the first argument of every command.
func Load(fsys afero.Fs, project string, opts LoadOptions) (*Converter, error) {
	target, err := uvproj.Resolve(fsys, project, opts.Target)
	if err != nil {
		return nil, err
	}
	logger := log.With().Str("project", project).Str("target", target.Name).Logger()

	depPath := target.DepPath()
	if opts.Rebuilder != nil {
		if exists, _ := afero.Exists(fsys, depPath); !exists {
			logger.Info().Str("dep", depPath).Msg("dependency trace is missing, rebuilding")
			if err := opts.Rebuilder.Rebuild(project); err != nil {
				return nil, err
			}
		}
	}

	text, err := afero.ReadFile(fsys, depPath)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to read dependency trace: %w", ErrIO, err)
	}
	conv, err := FromTrace(string(charset.ToUTF8(text, opts.Charset)), target.ProjectDir)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", depPath, err)
	}

	if cc, ok := toolchain.Locate(fsys, target.BuildLogPath(), opts.Charset); ok {
		logger.Debug().Str("compiler", cc).Send()
		conv.PrependCompiler(cc)
	} else {
		logger.Warn().Str("log", target.BuildLogPath()).Msg("no toolchain found, commands have no compiler")
	}
	logger.Info().Int("commands", conv.Len()).Msg("loaded dependency trace")
	return conv, nil
}
