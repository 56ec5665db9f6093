// Package toolchain finds the ARM compiler a µVision target was built with.
package toolchain

import (
	"path"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"uvcompdb/internal/charset"
)

var toolchainPath = regexp.MustCompile(`Toolchain Path:\s*(.*)`)

// compilerPrefixes are the ARM Compiler 5 and 6 driver names.
var compilerPrefixes = []string{"armcc", "armclang"}

// Locate returns the compiler executable named in the build log. It reports
// false when the log, the directory it names, or a compiler in that directory
// cannot be found.
func Locate(fsys afero.Fs, buildLog string, opts charset.ConvertOpts) (string, bool) {
	raw, err := afero.ReadFile(fsys, buildLog)
	if err != nil {
		log.Debug().Err(err).Str("log", buildLog).Msg("no build log")
		return "", false
	}
	dir, ok := Dir(raw, opts)
	if !ok {
		log.Debug().Str("log", buildLog).Msg("no toolchain path in build log")
		return "", false
	}
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		log.Debug().Err(err).Str("dir", dir).Msg("unable to list toolchain directory")
		return "", false
	}
	for _, e := range entries {
		for _, prefix := range compilerPrefixes {
			if strings.HasPrefix(e.Name(), prefix) {
				return path.Join(dir, e.Name()), true
			}
		}
	}
	log.Debug().Str("dir", dir).Msg("no compiler in toolchain directory")
	return "", false
}

// Dir extracts the directory from the `Toolchain Path:` line of a build log
// in any encoding chardet recognizes.
func Dir(content []byte, opts charset.ConvertOpts) (string, bool) {
	m := toolchainPath.FindSubmatch(charset.ToUTF8(content, opts))
	if m == nil {
		return "", false
	}
	dir := strings.TrimSpace(string(m[1]))
	if dir == "" {
		return "", false
	}
	return strings.ReplaceAll(dir, `\`, "/"), true
}
