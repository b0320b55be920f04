// Package syntax parses and serializes the expectation-table text format.
package syntax

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/verdictlab/verdict/internal/node"
)

// Parse reads expectation-table text into a section tree.
//
// The format is line-oriented: `[name]` headers open sections nested by
// 2-space indentation, `key: value` stores a single unconditional value,
// and a bare `key:` opens an indented list of `if <condition>: value`
// entries with an optional bare trailing default. `#` starts a comment.
//
// Malformed input is a fatal error carrying the source name and line; a
// corrupt table is never partially recovered.
func Parse(r io.Reader, name string) (*node.Node, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []line
	lineno := 0
	for scanner.Scan() {
		lineno++
		text := stripComment(scanner.Text())
		if strings.TrimSpace(text) == "" {
			continue
		}
		indent, err := countIndent(text)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %v", name, lineno, err)
		}
		lines = append(lines, line{no: lineno, depth: indent / 2, text: strings.TrimSpace(text)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	p := &parser{name: name, lines: lines}
	return p.parse()
}

type line struct {
	no    int
	depth int
	text  string
}

type parser struct {
	name  string
	lines []line
	pos   int
}

func (p *parser) errorf(l line, format string, args ...any) error {
	return fmt.Errorf("%s:%d: %s", p.name, l.no, fmt.Sprintf(format, args...))
}

func (p *parser) parse() (*node.Node, error) {
	root := node.New("")
	// stack[d] holds the open section at depth d-1; stack[0] is the root.
	stack := []*node.Node{root}

	for p.pos < len(p.lines) {
		l := p.lines[p.pos]

		switch {
		case strings.HasPrefix(l.text, "["):
			if !strings.HasSuffix(l.text, "]") {
				return nil, p.errorf(l, "malformed section header %q", l.text)
			}
			sectionName := strings.TrimSpace(l.text[1 : len(l.text)-1])
			if sectionName == "" {
				return nil, p.errorf(l, "empty section name")
			}
			if l.depth+1 > len(stack) {
				return nil, p.errorf(l, "section %q indented too deep", sectionName)
			}
			stack = stack[:l.depth+1]
			section := node.New(sectionName)
			stack[l.depth].AppendChild(section)
			stack = append(stack, section)
			p.pos++

		default:
			if l.depth >= len(stack) {
				return nil, p.errorf(l, "attribute indented too deep")
			}
			target := stack[l.depth]
			stack = stack[:l.depth+1]
			if err := p.parseAttribute(target, l); err != nil {
				return nil, err
			}
		}
	}
	return root, nil
}

func (p *parser) parseAttribute(target *node.Node, l line) error {
	key, rest, ok := strings.Cut(l.text, ":")
	if !ok {
		return p.errorf(l, "expected 'key: value' or section header")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return p.errorf(l, "empty attribute key")
	}
	if target.HasKey(key) {
		return p.errorf(l, "duplicate attribute %q", key)
	}
	rest = strings.TrimSpace(rest)
	p.pos++

	if rest != "" {
		target.Set(key, rest, nil)
		return nil
	}

	// Indented conditional list.
	entries := 0
	sawDefault := false
	for p.pos < len(p.lines) {
		el := p.lines[p.pos]
		if el.depth != l.depth+1 || strings.HasPrefix(el.text, "[") {
			break
		}
		if sawDefault {
			return p.errorf(el, "entries after the unconditional default are unreachable")
		}
		if cond, cut := strings.CutPrefix(el.text, "if "); cut {
			condText, value, ok := cutUnquoted(cond, ':')
			if !ok {
				return p.errorf(el, "expected 'if <condition>: value'")
			}
			e, err := ParseCondition(strings.TrimSpace(condText))
			if err != nil {
				return p.errorf(el, "bad condition: %v", err)
			}
			target.Set(key, strings.TrimSpace(value), e)
		} else {
			target.Set(key, el.text, nil)
			sawDefault = true
		}
		entries++
		p.pos++
	}
	if entries == 0 {
		return p.errorf(l, "attribute %q has no value", key)
	}
	return nil
}

// cutUnquoted splits s at the first occurrence of sep outside quoted
// strings.
func cutUnquoted(s string, sep byte) (before, after string, found bool) {
	inString := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if inString {
				i++
			}
		case '"':
			inString = !inString
		case sep:
			if !inString {
				return s[:i], s[i+1:], true
			}
		}
	}
	return s, "", false
}

// stripComment removes a trailing # comment, respecting quoted strings.
func stripComment(s string) string {
	inString := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if inString {
				i++
			}
		case '"':
			inString = !inString
		case '#':
			if !inString {
				return s[:i]
			}
		}
	}
	return s
}

func countIndent(s string) (int, error) {
	n := 0
	for n < len(s) && s[n] == ' ' {
		n++
	}
	if n < len(s) && s[n] == '\t' {
		return 0, fmt.Errorf("tab indentation is not supported")
	}
	if n%2 != 0 {
		return 0, fmt.Errorf("indentation must be a multiple of two spaces")
	}
	return n, nil
}
