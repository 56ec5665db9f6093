package compdb

import (
	"regexp"
	"strings"
)

// drivePath matches an optional option prefix such as `-I` or `--include-dir`
// followed by a drive letter and `:/`.
var drivePath = regexp.MustCompile(`^((?:-{1,2}(?:[A-Za-z]+-)*[A-Za-z]+)?)([A-Za-z]):/`)

// diskMacros lists macro names in match priority order.
var diskMacros = []string{"DISK", "disk", "D", "d"}

type partKind int

const (
	literal partKind = iota
	// diskUpper is the drive letter in upper case, written $D or $DISK.
	diskUpper
	// diskLower is the drive letter in lower case, written $d or $disk.
	diskLower
)

type templatePart struct {
	kind partKind
	text string
}

// DiskTemplate is a compiled drive replacement template.
type DiskTemplate struct {
	parts []templatePart
}

// CompileDiskTemplate compiles tmpl. `$$` is a literal `$`; `$d`, `$disk`,
// `${d}` and `${disk}` expand to the lower case drive letter and their upper
// case spellings to the upper case letter. An unbraced macro must be followed
// by a non-word character or the end of tmpl.
func CompileDiskTemplate(tmpl string) DiskTemplate {
	var (
		parts []templatePart
		lit   strings.Builder
	)
	flush := func() {
		if lit.Len() > 0 {
			parts = append(parts, templatePart{kind: literal, text: lit.String()})
			lit.Reset()
		}
	}
	for i := 0; i < len(tmpl); {
		if tmpl[i] != '$' {
			lit.WriteByte(tmpl[i])
			i++
			continue
		}
		j := i
		for j < len(tmpl) && tmpl[j] == '$' {
			j++
		}
		run := j - i
		lit.WriteString(strings.Repeat("$", run/2))
		i = j
		if run%2 == 0 {
			continue
		}
		kind, n := parseDiskMacro(tmpl[i:])
		if n == 0 {
			lit.WriteByte('$')
			continue
		}
		flush()
		parts = append(parts, templatePart{kind: kind})
		i += n
	}
	flush()
	return DiskTemplate{parts: parts}
}

// parseDiskMacro reads a macro name right after a `$` and returns its kind
// and length, or a zero length when s does not start with one.
func parseDiskMacro(s string) (partKind, int) {
	for _, name := range diskMacros {
		kind := diskLower
		if strings.Contains(name, "D") {
			kind = diskUpper
		}
		if strings.HasPrefix(s, "{"+name+"}") {
			return kind, len(name) + 2
		}
		if strings.HasPrefix(s, name) && (len(s) == len(name) || !isWordChar(s[len(name)])) {
			return kind, len(name)
		}
	}
	return literal, 0
}

func isWordChar(b byte) bool {
	return b == '_' || 'a' <= b && b <= 'z' || 'A' <= b && b <= 'Z' || '0' <= b && b <= '9'
}

func (t DiskTemplate) expand(upper, lower string) string {
	var sb strings.Builder
	for _, p := range t.parts {
		switch p.kind {
		case diskUpper:
			sb.WriteString(upper)
		case diskLower:
			sb.WriteString(lower)
		default:
			sb.WriteString(p.text)
		}
	}
	return sb.String()
}

// Rewrite replaces the leading drive of s, keeping any option prefix:
// with template `/mnt/$d`, `-IC:/inc` becomes `-I/mnt/c/inc`. Strings without
// a leading drive are returned unchanged.
func (t DiskTemplate) Rewrite(s string) string {
	m := drivePath.FindStringSubmatchIndex(s)
	if m == nil {
		return s
	}
	opt, disk := s[m[2]:m[3]], s[m[4]:m[5]]
	return opt + t.expand(strings.ToUpper(disk), strings.ToLower(disk)) + "/" + s[m[1]:]
}

// ReplaceDisk rewrites drive-letter paths in every file and argument using
// the replacement template tmpl.
func (c *Converter) ReplaceDisk(tmpl string) {
	t := CompileDiskTemplate(tmpl)
	for i := range c.commands {
		cmd := &c.commands[i]
		cmd.File = t.Rewrite(cmd.File)
		for j, arg := range cmd.Arguments {
			cmd.Arguments[j] = t.Rewrite(arg)
		}
	}
}
