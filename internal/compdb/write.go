package compdb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/afero"
)

// WriteTo writes the commands as an indented JSON array followed by a
// newline.
func (c *Converter) WriteTo(w io.Writer) (int64, error) {
	buf, err := c.marshal()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(buf)
	if err != nil {
		return int64(n), fmt.Errorf("%w: %w", ErrIO, err)
	}
	return int64(n), nil
}

func (c *Converter) marshal() ([]byte, error) {
	// Every entry carries an arguments array, even an empty one.
	cmds := make([]CompileCommand, len(c.commands))
	for i, cmd := range c.commands {
		if cmd.Arguments == nil {
			cmd.Arguments = []string{}
		}
		cmds[i] = cmd
	}
	// Encode appends the trailing newline. Arguments such as -DX=<y> stay
	// unescaped.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cmds); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
	}
	return buf.Bytes(), nil
}

// Sink writes the compilation database to path.
func Sink(fsys afero.Fs, path string, c *Converter) error {
	var buf bytes.Buffer
	if _, err := c.WriteTo(&buf); err != nil {
		return err
	}
	if err := afero.WriteFile(fsys, path, buf.Bytes(), 0o664); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}
