package compdb

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConverter(args ...[]string) *Converter {
	c := New()
	for i, a := range args {
		c.commands = append(c.commands, CompileCommand{
			Directory: "/proj",
			File:      string(rune('a'+i)) + ".c",
			Arguments: slices.Clone(a),
		})
	}
	return c
}

func arguments(c *Converter) [][]string {
	var out [][]string
	for _, cmd := range c.Commands() {
		out = append(out, cmd.Arguments)
	}
	return out
}

func TestAppendArguments(t *testing.T) {
	c := newConverter([]string{"-c", "a.c"}, []string{"-c", "b.c"})
	c.AppendArguments("--target=arm-arm-none-eabi", "-mcpu=cortex-m3")
	c.RemoveArguments("-c")
	c.AppendArguments("-w")

	want := [][]string{
		{"--target=arm-arm-none-eabi", "-mcpu=cortex-m3", "-w"},
		{"--target=arm-arm-none-eabi", "-mcpu=cortex-m3", "-w"},
	}
	// -c swallowed a.c and b.c as its value.
	if diff := cmp.Diff(want, arguments(c)); diff != "" {
		t.Errorf("arguments; diff -want +got:\n%s", diff)
	}
}

func TestAppendArguments_Repeated(t *testing.T) {
	c := newConverter([]string{"-c"})
	c.AppendArguments("-w")
	c.AppendArguments("-w")
	assert.Equal(t, [][]string{{"-c", "-w", "-w"}}, arguments(c))
}

func TestRemoveArguments(t *testing.T) {
	for _, tc := range []struct {
		name  string
		args  []string
		flags []string
		want  []string
	}{
		{
			name:  "flag with value",
			args:  []string{"--cpu", "Cortex-M3", "-c", "a.c"},
			flags: []string{"--cpu"},
			want:  []string{"-c", "a.c"},
		},
		{
			name:  "flag followed by flag",
			args:  []string{"--c99", "-c", "a.c"},
			flags: []string{"--c99"},
			want:  []string{"-c", "a.c"},
		},
		{
			name:  "last argument",
			args:  []string{"-c", "--split_sections"},
			flags: []string{"--split_sections"},
			want:  []string{"-c"},
		},
		{
			name:  "attached value is not matched",
			args:  []string{"--cpu=Cortex-M3", "-c"},
			flags: []string{"--cpu"},
			want:  []string{"--cpu=Cortex-M3", "-c"},
		},
		{
			name:  "only one value is consumed",
			args:  []string{"--apcs", "interwork", "ropi", "-c"},
			flags: []string{"--apcs"},
			want:  []string{"ropi", "-c"},
		},
		{
			name:  "value that is also a flag to remove",
			args:  []string{"--li", "--li", "x", "-c"},
			flags: []string{"--li"},
			want:  []string{"-c"},
		},
		{
			name:  "several flags",
			args:  []string{"--cpu", "Cortex-M3", "-g", "-O0", "--apcs=interwork", "-c"},
			flags: []string{"--cpu", "-O0", "--apcs=interwork"},
			want:  []string{"-g", "-c"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := newConverter(tc.args)
			c.RemoveArguments(tc.flags...)
			assert.Equal(t, [][]string{tc.want}, arguments(c))
		})
	}
}

func TestRemoveArguments_Idempotent(t *testing.T) {
	c := newConverter(
		[]string{"--cpu", "Cortex-M3", "-g", "--omf_browse", "./Objects/a.crf", "-c", "a.c"},
		[]string{"-c", "b.c", "--cpu", "Cortex-M3"},
	)
	flags := []string{"--cpu", "--omf_browse"}
	c.RemoveArguments(flags...)
	once := arguments(c)
	c.RemoveArguments(flags...)
	assert.Equal(t, once, arguments(c))
	assert.Equal(t, [][]string{{"-g", "-c", "a.c"}, {"-c", "b.c"}}, once)
}

// countingFs counts how often each path is opened.
type countingFs struct {
	afero.Fs
	opens map[string]int
}

func (c *countingFs) Open(name string) (afero.File, error) {
	c.opens[name]++
	return c.Fs.Open(name)
}

func TestStripSysrootIncludes(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/keil/ARM/ARMCC/include/stdio.h", nil, 0o644))
	require.NoError(t, afero.WriteFile(mem, "/keil/ARM/ARMCLANG/include/libcxx/iostream", nil, 0o644))
	require.NoError(t, afero.WriteFile(mem, "/proj/Inc/main.h", nil, 0o644))
	fsys := &countingFs{Fs: mem, opens: map[string]int{}}

	var cmds [][]string
	for i := 0; i < 10; i++ {
		cmds = append(cmds, []string{
			"-c",
			"-I/keil/ARM/ARMCC/include",
			"-I/proj/Inc",
			"-I/keil/ARM/ARMCLANG/include/libcxx",
			"-I/missing",
			"-DSTM32F103xB",
		})
	}
	c := newConverter(cmds...)
	c.StripSysrootIncludes(fsys)

	for _, args := range arguments(c) {
		assert.Equal(t, []string{
			"-c",
			"-I/keil/ARM/ARMCC/include",
			"-I/keil/ARM/ARMCLANG/include/libcxx",
			"-DSTM32F103xB",
		}, args)
	}
	for _, dir := range []string{"/keil/ARM/ARMCC/include", "/proj/Inc", "/keil/ARM/ARMCLANG/include/libcxx", "/missing"} {
		assert.Equal(t, 1, fsys.opens[dir], dir)
	}
}

func TestStripSysrootIncludes_CachePerCall(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/sdk/stdio.h", nil, 0o644))
	fsys := &countingFs{Fs: mem, opens: map[string]int{}}

	c := newConverter([]string{"-I/sdk"})
	c.StripSysrootIncludes(fsys)
	c.StripSysrootIncludes(fsys)
	assert.Equal(t, 2, fsys.opens["/sdk"])
	assert.Equal(t, [][]string{{"-I/sdk"}}, arguments(c))
}
