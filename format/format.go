// Package format normalizes the layout of rune documents. Formatting is
// purely structural: block headers move to column 0, steps to their
// canonical indent, fault lists two spaces past their step, and runs of
// blank lines collapse. Content is never reordered or rewritten.
package format

import (
	"fmt"
	"os"
	"strings"
)

// Options controls formatting behavior.
type Options struct {
	// MaxBlankLines is the longest run of blank lines kept between blocks.
	MaxBlankLines int
}

// DefaultOptions returns the standard formatting options.
func DefaultOptions() Options {
	return Options{MaxBlankLines: 2}
}

// Document formats a rune document and returns the normalized text.
// Formatting is idempotent: Document(Document(s)) == Document(s).
func Document(text string) string {
	return DocumentWith(text, DefaultOptions())
}

// DocumentWith formats a rune document with explicit options.
func DocumentWith(text string, opts Options) string {
	if opts.MaxBlankLines <= 0 {
		opts.MaxBlankLines = DefaultOptions().MaxBlankLines
	}

	f := formatter{opts: opts}
	for _, line := range strings.Split(text, "\n") {
		f.line(line)
	}

	// Drop trailing blanks, end with exactly one newline.
	for len(f.out) > 0 && f.out[len(f.out)-1] == "" {
		f.out = f.out[:len(f.out)-1]
	}
	if len(f.out) == 0 {
		return ""
	}
	return strings.Join(f.out, "\n") + "\n"
}

// File formats the document at path in place and reports whether it
// changed. With checkOnly the file is left untouched and changed means
// it would have been rewritten.
func File(path string, checkOnly bool) (changed bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}

	formatted := Document(string(data))
	if string(data) == formatted {
		return false, nil
	}
	if checkOnly {
		return true, nil
	}
	if err := os.WriteFile(path, []byte(formatted), 0644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}

type formatter struct {
	opts Options
	out  []string

	inBlock bool
	blanks  int
}

func (f *formatter) line(raw string) {
	trimmed := strings.TrimSpace(raw)

	if trimmed == "" {
		f.blanks++
		if f.blanks <= f.opts.MaxBlankLines {
			f.out = append(f.out, "")
		}
		f.inBlock = false
		return
	}
	f.blanks = 0

	switch {
	case hasTag(trimmed, "[REQ]", "[DTO]", "[TYP]"):
		f.out = append(f.out, trimmed)
		f.inBlock = true
	case hasTag(trimmed, "[PLY]", "[RET]", "[CTR]"):
		f.emit(4, trimmed)
	case hasTag(trimmed, "[CSE]"):
		f.emit(8, trimmed)
	case isStep(trimmed):
		if f.inPoly() {
			f.emit(8, trimmed)
		} else {
			f.emit(4, trimmed)
		}
	case isFaultList(trimmed):
		if f.inPoly() {
			f.emit(10, trimmed)
		} else {
			f.emit(6, trimmed)
		}
	case f.inBlock && (strings.HasPrefix(trimmed, "//") || !strings.Contains(trimmed, ":")):
		// Description prose or a comment inside a block.
		f.emit(4, trimmed)
	default:
		// Unrecognized shape: keep the author's indentation.
		f.out = append(f.out, strings.TrimRight(raw, " \t"))
	}
}

func (f *formatter) emit(indent int, text string) {
	f.out = append(f.out, strings.Repeat(" ", indent)+text)
}

// inPoly reports whether the most recent structural line opens a [PLY]
// block that no subsequent header has closed.
func (f *formatter) inPoly() bool {
	for i := len(f.out) - 1; i >= 0; i-- {
		t := strings.TrimSpace(f.out[i])
		switch {
		case hasTag(t, "[REQ]", "[DTO]", "[TYP]", "[RET]", "[CTR]"):
			return false
		case hasTag(t, "[PLY]"):
			return true
		}
	}
	return false
}

func hasTag(s string, tags ...string) bool {
	for _, tag := range tags {
		if strings.HasPrefix(s, tag) {
			return true
		}
	}
	return false
}

// isStep recognizes a call, boundary, or constructor step line.
func isStep(s string) bool {
	for prefix := range boundaryPrefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return (strings.Contains(s, ".") || strings.Contains(s, "::")) &&
		strings.Contains(s, "(") && strings.Contains(s, ")")
}

var boundaryPrefixes = map[string]struct{}{
	"db:": {}, "fs:": {}, "mq:": {}, "ex:": {}, "os:": {}, "lg:": {},
}

// isFaultList recognizes a line of space-separated fault names. Every
// name must contain a hyphen so bare identifiers are not swallowed.
func isFaultList(s string) bool {
	names := strings.Fields(s)
	if len(names) == 0 {
		return false
	}
	for _, name := range names {
		if !strings.Contains(name, "-") {
			return false
		}
		if name[0] < 'a' || name[0] > 'z' {
			return false
		}
		for _, r := range name {
			if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
				return false
			}
		}
	}
	return true
}
