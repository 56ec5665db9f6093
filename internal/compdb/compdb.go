// Package compdb builds clang compilation databases from Keil µVision
// dependency traces.
//
// Docs about compile_commands.json format: https://clang.llvm.org/docs/JSONCompilationDatabase.html#format
package compdb

import (
	"errors"
	"slices"

	"uvcompdb/internal/uvproj"
)

var (
	// ErrTargetNotFound is returned when no target in the project matches.
	ErrTargetNotFound = uvproj.ErrTargetNotFound
	// ErrMalformedDescriptor is returned when the project lacks a required node.
	ErrMalformedDescriptor = uvproj.ErrMalformedDescriptor
	// ErrIO wraps file and directory access failures.
	ErrIO = uvproj.ErrIO
	// ErrMalformedTrace is returned when a dependency trace record cannot be
	// tokenized.
	ErrMalformedTrace = errors.New("malformed dependency trace")
	// ErrSerialization is returned when the database cannot be encoded.
	ErrSerialization = errors.New("unable to serialize compilation database")
)

// CompileCommand is a single entry in the compile_commands.json file.
type CompileCommand struct {
	Directory string   `json:"directory"`
	File      string   `json:"file"`
	Arguments []string `json:"arguments"`
}

// Converter owns an ordered list of compile commands. Transforms mutate
// every owned command in place.
type Converter struct {
	commands []CompileCommand
}

// New returns an empty converter.
func New() *Converter {
	return &Converter{}
}

// FromTrace parses a dependency trace into a converter whose commands run
// in directory.
func FromTrace(text, directory string) (*Converter, error) {
	cmds, err := ParseTrace(text, directory)
	if err != nil {
		return nil, err
	}
	return &Converter{commands: cmds}, nil
}

// Len returns the number of commands.
func (c *Converter) Len() int {
	return len(c.commands)
}

// Commands returns a copy of the owned commands.
func (c *Converter) Commands() []CompileCommand {
	out := make([]CompileCommand, len(c.commands))
	for i, cmd := range c.commands {
		cmd.Arguments = slices.Clone(cmd.Arguments)
		out[i] = cmd
	}
	return out
}

// Merge appends other's commands after c's own.
func (c *Converter) Merge(other *Converter) {
	if other == nil {
		return
	}
	c.commands = append(c.commands, other.Commands()...)
}

// Concat returns a new converter holding a's commands followed by b's.
func Concat(a, b *Converter) *Converter {
	out := New()
	out.Merge(a)
	out.Merge(b)
	return out
}

// PrependCompiler inserts the compiler executable as the first argument of
// every command.
func (c *Converter) PrependCompiler(cc string) {
	for i := range c.commands {
		args := make([]string, 0, len(c.commands[i].Arguments)+1)
		args = append(args, cc)
		c.commands[i].Arguments = append(args, c.commands[i].Arguments...)
	}
}
