package compdb

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kballard/go-shellquote"
)

// traceRecord matches one `F (<file>)(<hash>)(<args>)` record. The hash is
// captured but never used.
var traceRecord = regexp.MustCompile(`F \((.*?)\)\((.*?)\)\((.*?)\)`)

// includeFlag is the flag whose value Keil records as a separate token.
const includeFlag = "-I"

// ParseTrace extracts one command per record of a µVision .dep file, in
// order of appearance. A trace without records yields no commands. A single
// record with broken quoting fails the whole trace.
func ParseTrace(text, directory string) ([]CompileCommand, error) {
	text = strings.NewReplacer(`\`, "/", "\r", " ", "\n", " ").Replace(text)

	matches := traceRecord.FindAllStringSubmatch(text, -1)
	cmds := make([]CompileCommand, 0, len(matches))
	for _, m := range matches {
		args, err := SplitArguments(m[3])
		if err != nil {
			return nil, fmt.Errorf("%w: record for %s: %w", ErrMalformedTrace, m[1], err)
		}
		cmds = append(cmds, CompileCommand{
			Directory: directory,
			File:      m[1],
			Arguments: args,
		})
	}
	return cmds, nil
}

// SplitArguments tokenizes a recorded argument string with POSIX shell
// quoting and reattaches include paths to their flag.
func SplitArguments(s string) ([]string, error) {
	words, err := shellquote.Split(s)
	if err != nil {
		return nil, err
	}
	return MergeIncludeValues(words), nil
}

// MergeIncludeValues rewrites `-I <path>` token pairs as `-I<path>`. A
// trailing `-I` with nothing after it is dropped.
func MergeIncludeValues(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		if args[i] != includeFlag {
			out = append(out, args[i])
			continue
		}
		if i+1 < len(args) {
			out = append(out, includeFlag+args[i+1])
			i++
		}
	}
	return out
}
