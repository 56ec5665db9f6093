// Package uvproj reads the parts of a µVision project (.uvprojx) that locate
// a target's build outputs.
package uvproj

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/net/html/charset"
)

var (
	// ErrTargetNotFound is returned when no target in the project matches.
	ErrTargetNotFound = errors.New("target not found")
	// ErrMalformedDescriptor is returned when the project lacks a required node.
	ErrMalformedDescriptor = errors.New("malformed project descriptor")
	// ErrIO wraps file and directory access failures.
	ErrIO = errors.New("i/o failure")
)

// Target is one resolved build target of a project.
type Target struct {
	Name            string
	OutputDirectory string
	OutputName      string
	// ProjectDir is the directory holding the .uvprojx file.
	ProjectDir string
	// ProjectStem is the .uvprojx file name without its extension.
	ProjectStem string
}

// DepPath returns the dependency trace the IDE writes for this target.
func (t *Target) DepPath() string {
	return path.Join(t.outputDir(), fmt.Sprintf("%s_%s.dep", t.ProjectStem, t.Name))
}

// BuildLogPath returns the build log the IDE writes for this target.
func (t *Target) BuildLogPath() string {
	return path.Join(t.outputDir(), t.OutputName+".build_log.htm")
}

// outputDir resolves OutputDirectory against the project directory. An
// absolute or drive-qualified OutputDirectory is used as is.
func (t *Target) outputDir() string {
	if isAbs(t.OutputDirectory) {
		return t.OutputDirectory
	}
	return path.Join(t.ProjectDir, t.OutputDirectory)
}

func isAbs(p string) bool {
	if path.IsAbs(p) {
		return true
	}
	return len(p) >= 2 && p[1] == ':' && ('a' <= p[0] && p[0] <= 'z' || 'A' <= p[0] && p[0] <= 'Z')
}

// text is an element whose presence is distinguishable from empty content.
type text struct {
	Value string `xml:",chardata"`
}

type commonOption struct {
	OutputDirectory *text `xml:"OutputDirectory"`
	OutputName      *text `xml:"OutputName"`
}

type targetOption struct {
	Common *commonOption `xml:"TargetCommonOption"`
}

type targetNode struct {
	Name   *text         `xml:"TargetName"`
	Option *targetOption `xml:"TargetOption"`
}

type targets struct {
	Target []targetNode `xml:"Target"`
}

type project struct {
	XMLName xml.Name `xml:"Project"`
	Targets *targets `xml:"Targets"`
}

// Resolve reads the project at file and returns the target named target, or
// the first named target when target is empty.
func Resolve(fsys afero.Fs, file, target string) (*Target, error) {
	raw, err := afero.ReadFile(fsys, file)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to read project: %w", ErrIO, err)
	}

	var p project
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.CharsetReader = charset.NewReaderLabel
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedDescriptor, file, err)
	}
	if p.Targets == nil {
		return nil, fmt.Errorf("%w: %s has no Targets element", ErrMalformedDescriptor, file)
	}

	node, err := selectTarget(p.Targets.Target, target)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	if node.Option == nil || node.Option.Common == nil {
		return nil, fmt.Errorf("%w: target %q has no TargetOption/TargetCommonOption", ErrMalformedDescriptor, node.Name.Value)
	}
	outdir, err := required(node.Option.Common.OutputDirectory, "OutputDirectory")
	if err != nil {
		return nil, err
	}
	outname, err := required(node.Option.Common.OutputName, "OutputName")
	if err != nil {
		return nil, err
	}

	slashed := filepath.ToSlash(file)
	return &Target{
		Name:            slash(node.Name.Value),
		OutputDirectory: outdir,
		OutputName:      outname,
		ProjectDir:      path.Dir(slashed),
		ProjectStem:     strings.TrimSuffix(path.Base(slashed), path.Ext(slashed)),
	}, nil
}

func selectTarget(nodes []targetNode, name string) (*targetNode, error) {
	for i := range nodes {
		n := &nodes[i]
		if n.Name == nil {
			continue
		}
		if name == "" || n.Name.Value == name {
			return n, nil
		}
	}
	if name == "" {
		return nil, fmt.Errorf("%w: no named target", ErrTargetNotFound)
	}
	return nil, fmt.Errorf("%w: %q", ErrTargetNotFound, name)
}

func required(t *text, element string) (string, error) {
	if t == nil {
		return "", fmt.Errorf("%w: missing %s", ErrMalformedDescriptor, element)
	}
	if t.Value == "" {
		return "", fmt.Errorf("%w: %s has no text", ErrMalformedDescriptor, element)
	}
	return slash(t.Value), nil
}

// slash converts the Windows separators the IDE writes. It runs on decoded
// text since a raw GBK trail byte may equal a backslash.
func slash(s string) string {
	return strings.ReplaceAll(s, `\`, "/")
}
