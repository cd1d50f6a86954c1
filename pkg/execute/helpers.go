// pkg/execute/helpers.go

package execute

import (
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// CommandLine renders command and args as a copy-pasteable shell line for logs.
func CommandLine(command string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	for _, word := range append([]string{command}, args...) {
		parts = append(parts, quote(word))
	}
	return strings.Join(parts, " ")
}

func quote(word string) string {
	if word == "" {
		return "''"
	}
	q, err := syntax.Quote(word, syntax.LangBash)
	if err != nil {
		// Quote only fails on words bash cannot represent, e.g. NUL bytes.
		return strings.ReplaceAll(word, "\x00", `\0`)
	}
	return q
}
