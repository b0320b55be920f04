package syntax

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/verdictlab/verdict/internal/expr"
	"github.com/verdictlab/verdict/internal/node"
)

// Serialize writes a section tree back to expectation-table text.
//
// Output is deterministic: sections and attribute keys appear in stored
// order, conditional entries in stored order, 2-space indentation per
// nesting level. Section names are NFC-normalized so equivalent subtest
// names always produce byte-identical files.
func Serialize(w io.Writer, root *node.Node) error {
	bw := bufio.NewWriter(w)
	for i, section := range root.Children() {
		if i > 0 {
			fmt.Fprintln(bw)
		}
		if err := writeSection(bw, section, 0); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeSection(w *bufio.Writer, n *node.Node, depth int) error {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%s[%s]\n", indent, norm.NFC.String(n.Name()))

	for _, key := range n.Keys() {
		if err := writeAttribute(w, n, key, depth+1); err != nil {
			return err
		}
	}
	for _, child := range n.Children() {
		if err := writeSection(w, child, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func writeAttribute(w *bufio.Writer, n *node.Node, key string, depth int) error {
	values := n.Values(key)
	if len(values) == 0 {
		// Emptied keys are removed by the engine; one surviving here is a
		// caller bug worth surfacing rather than writing a dangling key.
		return fmt.Errorf("attribute %q has no values", key)
	}
	indent := strings.Repeat("  ", depth)

	if len(values) == 1 && values[0].Condition == nil {
		fmt.Fprintf(w, "%s%s: %s\n", indent, key, values[0].Value)
		return nil
	}

	fmt.Fprintf(w, "%s%s:\n", indent, key)
	for _, cv := range values {
		if cv.Condition != nil {
			fmt.Fprintf(w, "%s  if %s: %s\n", indent, expr.Format(cv.Condition), cv.Value)
		} else {
			fmt.Fprintf(w, "%s  %s\n", indent, cv.Value)
		}
	}
	return nil
}
