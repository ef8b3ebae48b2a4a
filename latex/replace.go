package latex

import "strings"

type substitution struct {
	find, replace string
}

// substitutions is deliberately small: only these runes are rewritten.
// Other LaTeX specials (%, $, _, #, braces, backslash) pass through.
var substitutions = []substitution{
	{"&", `\&`},
	{"ē", `\~{e}`},
	{"ā", `\~{a}`},
	{"ū", `\~{u}`},
	{"ę", `\c{e}`},
	{"ō", `\~{o}`},
}

// Substitute applies the substitution table to s and translates every "\n"
// to lineSeparator. The newline pass runs last.
func Substitute(s, lineSeparator string) string {
	for _, sub := range substitutions {
		s = strings.ReplaceAll(s, sub.find, sub.replace)
	}
	if lineSeparator == "\n" {
		return s
	}
	return strings.ReplaceAll(s, "\n", lineSeparator)
}
