package compdb

import (
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// stdHeaders marks a directory as one that ships the standard library.
var stdHeaders = []string{"stdio.h", "iostream"}

// AppendArguments adds extra to the end of every command. Repeated calls keep
// appending.
func (c *Converter) AppendArguments(extra ...string) {
	if len(extra) == 0 {
		return
	}
	for i := range c.commands {
		c.commands[i].Arguments = append(c.commands[i].Arguments, extra...)
	}
}

type removeState int

const (
	scanning removeState = iota
	skipNext
)

// RemoveArguments drops every argument equal to one of flags. When the
// argument right after a dropped flag does not start with '-', it is taken as
// the flag's value and dropped as well. Only one value is consumed per flag,
// and attached forms such as `--flag=value` are a single token that has to be
// listed verbatim to be removed.
func (c *Converter) RemoveArguments(flags ...string) {
	if len(flags) == 0 {
		return
	}
	for i := range c.commands {
		c.commands[i].Arguments = removeFlags(c.commands[i].Arguments, flags)
	}
}

func removeFlags(args, flags []string) []string {
	out := make([]string, 0, len(args))
	state := scanning
	for i, arg := range args {
		if state == skipNext {
			state = scanning
			continue
		}
		if !slices.Contains(flags, arg) {
			out = append(out, arg)
			continue
		}
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			state = skipNext
		}
	}
	return out
}

// StripSysrootIncludes keeps an `-I<dir>` argument only when dir directly
// contains a standard library header. Each distinct dir is probed once per
// call; a dir that cannot be listed counts as not containing one.
func (c *Converter) StripSysrootIncludes(fsys afero.Fs) {
	probed := make(map[string]bool)
	for i := range c.commands {
		c.commands[i].Arguments = slices.DeleteFunc(c.commands[i].Arguments, func(arg string) bool {
			dir, ok := strings.CutPrefix(arg, includeFlag)
			if !ok {
				return false
			}
			keep, seen := probed[dir]
			if !seen {
				keep = hasStdHeaders(fsys, dir)
				probed[dir] = keep
			}
			return !keep
		})
	}
	log.Debug().Int("dirs", len(probed)).Msg("probed include directories")
}

func hasStdHeaders(fsys afero.Fs, dir string) bool {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if slices.Contains(stdHeaders, e.Name()) {
			return true
		}
	}
	return false
}
