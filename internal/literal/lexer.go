// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package literal

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokSpace tokenKind = iota
	tokString
	tokNumber
	tokIdent
	tokVar
	tokPunct
	tokBool  // && and ||
	tokNot   // !
	tokIn    // in
	tokNotIn // not in
)

type token struct {
	kind tokenKind
	text string
}

// varPrefix marks $name references in the rewritten source.
const varPrefix = "__v_"

var keywords = map[string]token{
	"True":  {kind: tokIdent, text: "true"},
	"False": {kind: tokIdent, text: "false"},
	"None":  {kind: tokIdent, text: "null"},
	"and":   {kind: tokBool, text: "&&"},
	"or":    {kind: tokBool, text: "||"},
	"not":   {kind: tokNot, text: "!"},
	"in":    {kind: tokIn, text: "in"},
	"is":    {kind: tokPunct, text: "=="},
}

// lex splits an expression into tokens, decoding string literals and mapping
// keywords onto their HCL operators. Referenced $names are collected in vars.
func lex(src string, vars map[string]struct{}) ([]token, error) {
	var toks []token
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			j := i
			for j < len(src) && strings.IndexByte(" \t\n\r", src[j]) >= 0 {
				j++
			}
			toks = append(toks, token{kind: tokSpace, text: " "})
			i = j
		case c == '\'' || c == '"':
			s, n, err := lexString(src[i:])
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokString, text: quoteHCL(s)})
			i += n
		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1]) && !endsOperand(toks)):
			text, n, err := lexNumber(src[i:])
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokNumber, text: text})
			i += n
		case c == '$' && i+1 < len(src) && isIdentStart(rune(src[i+1])):
			name, n := lexIdent(src[i+1:])
			vars[name] = struct{}{}
			toks = append(toks, token{kind: tokVar, text: "(" + varPrefix + name + ")"})
			i += 1 + n
		default:
			r, size := utf8.DecodeRuneInString(src[i:])
			if !isIdentStart(r) {
				toks = append(toks, token{kind: tokPunct, text: src[i : i+size]})
				i += size
				continue
			}
			word, n := lexIdent(src[i:])
			i += n
			kw, ok := keywords[word]
			if !ok {
				toks = append(toks, token{kind: tokIdent, text: word})
				continue
			}
			next, m := peekWord(src[i:])
			switch {
			case word == "not" && next == "in":
				kw = token{kind: tokNotIn, text: "not in"}
				i += m
			case word == "is" && next == "not":
				kw = token{kind: tokPunct, text: "!="}
				i += m
			}
			if kw.kind == tokPunct {
				toks = append(toks, token{kind: tokSpace, text: " "}, kw, token{kind: tokSpace, text: " "})
				continue
			}
			toks = append(toks, kw)
		}
	}
	return toks, nil
}

// endsOperand reports whether the last significant token closes an operand,
// in which case a following '.' is attribute access, not a number.
func endsOperand(toks []token) bool {
	for i := len(toks) - 1; i >= 0; i-- {
		t := toks[i]
		switch t.kind {
		case tokSpace:
			continue
		case tokIdent, tokVar, tokNumber, tokString:
			return true
		case tokPunct:
			return t.text == ")" || t.text == "]" || t.text == "}"
		default:
			return false
		}
	}
	return false
}

func peekWord(src string) (string, int) {
	i := 0
	for i < len(src) && (src[i] == ' ' || src[i] == '\t') {
		i++
	}
	r, _ := utf8.DecodeRuneInString(src[i:])
	if i == 0 || !isIdentStart(r) {
		return "", 0
	}
	word, n := lexIdent(src[i:])
	return word, i + n
}

func lexIdent(src string) (string, int) {
	n := 0
	for n < len(src) {
		r, size := utf8.DecodeRuneInString(src[n:])
		if !isIdentStart(r) && !unicode.IsDigit(r) {
			break
		}
		n += size
	}
	return src[:n], n
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// lexNumber reads a numeric literal and returns it in a form HCL accepts:
// underscores removed, based integers rewritten in decimal, a leading '.'
// prefixed with zero.
func lexNumber(src string) (string, int, error) {
	n := 0
	for n < len(src) {
		c := src[n]
		if isDigit(c) || c == '_' || c == '.' || (c|0x20 >= 'a' && c|0x20 <= 'z') {
			n++
			continue
		}
		if (c == '+' || c == '-') && n > 0 && src[n-1]|0x20 == 'e' && !strings.ContainsAny(src[:n], "xX") {
			n++
			continue
		}
		break
	}
	raw := strings.ReplaceAll(src[:n], "_", "")
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "0x") || strings.HasPrefix(lower, "0b") || strings.HasPrefix(lower, "0o") {
		v, err := strconv.ParseInt(lower, 0, 64)
		if err != nil {
			return "", 0, fmt.Errorf("invalid number %q", src[:n])
		}
		return strconv.FormatInt(v, 10), n, nil
	}
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		return "", 0, fmt.Errorf("invalid number %q", src[:n])
	}
	if strings.HasPrefix(raw, ".") {
		raw = "0" + raw
	}
	return raw, n, nil
}

// lexString decodes a quoted string starting at src[0] and returns its value
// and the number of bytes consumed.
func lexString(src string) (string, int, error) {
	quote := src[0]
	var b strings.Builder
	for i := 1; i < len(src); i++ {
		c := src[i]
		switch {
		case c == quote:
			return b.String(), i + 1, nil
		case c == '\\' && i+1 < len(src):
			i++
			switch e := src[i]; e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\', '\'', '"':
				b.WriteByte(e)
			case 'x', 'u':
				width := 2
				if e == 'u' {
					width = 4
				}
				if i+width < len(src) {
					if v, err := strconv.ParseUint(src[i+1:i+1+width], 16, 32); err == nil {
						b.WriteRune(rune(v))
						i += width
						continue
					}
				}
				b.WriteByte('\\')
				b.WriteByte(e)
			default:
				b.WriteByte('\\')
				b.WriteByte(e)
			}
		default:
			b.WriteByte(c)
		}
	}
	return "", 0, fmt.Errorf("unterminated string literal")
}

// quoteHCL renders s as an HCL quoted string with template sequences escaped.
func quoteHCL(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '$', '%':
			b.WriteByte(c)
			if i+1 < len(s) && s[i+1] == '{' {
				b.WriteByte(c)
			}
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
