package compdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiskTemplateRewrite(t *testing.T) {
	for _, tc := range []struct {
		tmpl string
		in   string
		want string
	}{
		{tmpl: "/mnt/$d", in: "C:/inc", want: "/mnt/c/inc"},
		{tmpl: "/mnt/$d", in: "c:/inc", want: "/mnt/c/inc"},
		{tmpl: "${DISK}", in: "-IC:/inc", want: "-IC/inc"},
		{tmpl: "/$D", in: "D:/Keil_v5/ARM", want: "/D/Keil_v5/ARM"},
		{tmpl: "/mnt/${disk}", in: "--include-dir=E:/x", want: "--include-dir=E:/x"},
		{tmpl: "/mnt/$disk", in: "-isystemE:/x", want: "-isystem/mnt/e/x"},
		{tmpl: "/mnt/$d", in: "--sys-includeE:/x", want: "--sys-include/mnt/e/x"},
		{tmpl: "/cygdrive/${d}x", in: "C:/a", want: "/cygdrive/cx/a"},
		{tmpl: "/$d-$D", in: "-IF:/inc", want: "-I/f-F/inc"},
		{tmpl: "/$$d", in: "C:/a", want: "/$d/a"},
		{tmpl: "/$$$d", in: "C:/a", want: "/$c/a"},
		{tmpl: "/$dx", in: "C:/a", want: "/$dx/a"},
		{tmpl: "/fixed", in: "C:/a", want: "/fixed/a"},
		{tmpl: "", in: "C:/a", want: "/a"},
		{tmpl: "/mnt/$d", in: "./Inc", want: "./Inc"},
		{tmpl: "/mnt/$d", in: "src/C:/a", want: "src/C:/a"},
		{tmpl: "/mnt/$d", in: "C:/a/D:/b", want: "/mnt/c/a/D:/b"},
		{tmpl: "/mnt/$d", in: "C:\\a", want: "C:\\a"},
	} {
		got := CompileDiskTemplate(tc.tmpl).Rewrite(tc.in)
		assert.Equal(t, tc.want, got, "template %q on %q", tc.tmpl, tc.in)
	}
}

func TestCompileDiskTemplate(t *testing.T) {
	tmpl := CompileDiskTemplate("a$$b$D${d}$$$DISK c")
	assert.Equal(t, []templatePart{
		{kind: literal, text: "a$b"},
		{kind: diskUpper},
		{kind: diskLower},
		{kind: literal, text: "$"},
		{kind: diskUpper},
		{kind: literal, text: " c"},
	}, tmpl.parts)
}

func TestReplaceDisk(t *testing.T) {
	c := New()
	c.commands = []CompileCommand{{
		Directory: "C:/proj",
		File:      "C:/proj/src/main.c",
		Arguments: []string{"C:/Keil_v5/ARM/ARMCC/Bin/armcc.exe", "-c", "-IC:/Keil_v5/ARM/ARMCC/include", "-I./Inc"},
	}}
	c.ReplaceDisk("/mnt/$d")

	got := c.Commands()[0]
	assert.Equal(t, "C:/proj", got.Directory)
	assert.Equal(t, "/mnt/c/proj/src/main.c", got.File)
	assert.Equal(t, []string{"/mnt/c/Keil_v5/ARM/ARMCC/Bin/armcc.exe", "-c", "-I/mnt/c/Keil_v5/ARM/ARMCC/include", "-I./Inc"}, got.Arguments)
}
