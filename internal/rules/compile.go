// internal/rules/compile.go
package rules

import (
	"errors"
	"fmt"
)

/*
 * Schema compilation.
 *
 * Compiles field -> Spec into a Schema of cost-partitioned Nodes.
 *
 * Compilation workflow:
 *   1. Validate the field key as a path (depth, wildcard limits)
 *   2. Normalize the spec into tokens
 *   3. Cast parameters and instantiate each named rule via the registry
 *   4. File each rule into the node's cost tier; a field typed integer or
 *      numeric makes its size rules measure numeric strings by value
 *   5. After every field is compiled, stable-sort every node by cost
 *
 * Any error aborts the whole compilation; a schema is never partially built.
 * Dotted keys stay opaque flat keys: nesting is resolved on the data side
 * by the flattener, not by building a tree here.
 */

// Compile builds a Schema from per-field specs. A nil registry means the
// built-in rules.
func Compile(specs map[string]Spec, reg *Registry) (*Schema, error) {
	if reg == nil {
		reg = DefaultRegistry()
	}
	schema := newSchema(len(specs))

	for _, field := range sortedKeys(specs) {
		path, err := ParsePath(field)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field, err)
		}

		node, err := compileField(field, specs[field], reg)
		if err != nil {
			return nil, err
		}
		schema.add(field, path, node)
	}

	// Sort only once every field is compiled.
	for _, node := range schema.nodes {
		node.SortRules()
	}

	return schema, nil
}

// MustCompile is like Compile but panics on error. Intended for static schemas.
func MustCompile(specs map[string]Spec, reg *Registry) *Schema {
	schema, err := Compile(specs, reg)
	if err != nil {
		panic(err)
	}
	return schema
}

// compileField turns one spec into an unsorted node.
func compileField(field string, spec Spec, reg *Registry) (*Node, error) {
	tokens, err := spec.tokens()
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", field, err)
	}

	built := make([]Rule, 0, len(tokens))
	numeric := false
	for _, tok := range tokens {
		rule, err := buildRule(field, tok, reg)
		if err != nil {
			return nil, err
		}
		if nt, ok := rule.(numericTyped); ok && nt.numericType() {
			numeric = true
		}
		built = append(built, rule)
	}

	node := NewNode()
	for _, rule := range built {
		if sm, ok := rule.(sizeMeasured); ok && numeric {
			rule = sm.measuringNumbers()
		}
		node.AddRule(rule)
	}
	return node, nil
}

// buildRule resolves a token into a Rule.
func buildRule(field string, tok token, reg *Registry) (Rule, error) {
	if tok.rule != nil {
		return tok.rule, nil
	}

	var params []any
	if rawParamRules[tok.name] {
		params = make([]any, len(tok.params))
		for i, p := range tok.params {
			params[i] = p
		}
	} else {
		params = castParams(tok.params)
	}

	rule, found, err := reg.build(tok.name, params)
	if !found {
		return nil, &UnknownRuleError{Field: field, Rule: tok.name}
	}
	if err != nil {
		if !errors.Is(err, ErrInvalidParameters) {
			err = fmt.Errorf("%w: %v", ErrInvalidParameters, err)
		}
		return nil, &InvalidRuleParametersError{Field: field, Rule: tok.name, Err: err}
	}
	if rule == nil {
		return nil, &InvalidRuleParametersError{Field: field, Rule: tok.name, Err: fmt.Errorf("%w: factory returned no rule", ErrInvalidParameters)}
	}
	return rule, nil
}
