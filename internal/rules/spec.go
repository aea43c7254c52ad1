// internal/rules/spec.go
package rules

import (
	"fmt"
	"strings"
)

/*
 * Rule specification surface.
 *
 * A field's rules arrive either as one pipe-delimited string
 * ("required|min:3|in:a,b") or as an ordered list mixing rule strings and
 * pre-built Rule objects. Spec is the tagged union for both; it is
 * normalized into tokens before any rule-specific logic runs.
 *
 * Token grammar: name[:param[,param...]]. regex and not_regex keep the whole
 * remainder after the first ":" as one parameter so patterns may contain
 * commas. Patterns containing "|" must use the List form.
 */

const (
	ruleSeparator  = "|"
	paramSeparator = ","
	nameSeparator  = ":"
)

// rawParamRules never split or cast their parameter.
var rawParamRules = map[string]bool{
	"regex":     true,
	"not_regex": true,
	"expr":      true,
}

// Spec is one field's rule specification.
type Spec struct {
	pipe  string
	items []any
	list  bool
}

// Pipe builds a Spec from a pipe-delimited rule string.
func Pipe(rules string) Spec {
	return Spec{pipe: rules}
}

// List builds a Spec from rule strings and Rule objects, in order.
func List(items ...any) Spec {
	return Spec{items: items, list: true}
}

// Pipes converts a field -> pipe string map.
func Pipes(specs map[string]string) map[string]Spec {
	out := make(map[string]Spec, len(specs))
	for field, s := range specs {
		out[field] = Pipe(s)
	}
	return out
}

// IsList reports whether the spec was built with List.
func (s Spec) IsList() bool { return s.list }

// String renders the spec for diagnostics.
func (s Spec) String() string {
	if !s.list {
		return s.pipe
	}
	parts := make([]string, len(s.items))
	for i, item := range s.items {
		if r, ok := item.(Rule); ok {
			parts[i] = ruleName(r)
		} else {
			parts[i] = fmt.Sprint(item)
		}
	}
	return strings.Join(parts, ruleSeparator)
}

// token is one normalized rule reference.
type token struct {
	name   string
	params []string
	rule   Rule // set for inline rule objects
}

// tokens normalizes the spec into ordered tokens.
func (s Spec) tokens() ([]token, error) {
	var out []token
	if !s.list {
		for _, raw := range strings.Split(s.pipe, ruleSeparator) {
			if tok, ok := parseToken(raw); ok {
				out = append(out, tok)
			}
		}
	} else {
		for i, item := range s.items {
			switch v := item.(type) {
			case Rule:
				if v == nil {
					return nil, fmt.Errorf("%w: item %d is a nil rule", ErrMalformedSpec, i)
				}
				out = append(out, token{rule: v})
			case string:
				if tok, ok := parseToken(v); ok {
					out = append(out, tok)
				}
			default:
				return nil, fmt.Errorf("%w: item %d has type %T", ErrMalformedSpec, i, item)
			}
		}
	}
	if len(out) == 0 {
		return nil, ErrEmptySpec
	}
	return out, nil
}

// parseToken splits "name:p1,p2". ok is false for blank tokens.
func parseToken(raw string) (token, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return token{}, false
	}
	name, rest, hasParams := strings.Cut(raw, nameSeparator)
	tok := token{name: strings.TrimSpace(name)}
	if !hasParams {
		return tok, true
	}
	if rawParamRules[tok.name] {
		tok.params = []string{rest}
		return tok, true
	}
	parts := strings.Split(rest, paramSeparator)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	tok.params = parts
	return tok, true
}
