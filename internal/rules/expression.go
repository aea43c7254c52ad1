// internal/rules/expression.go
package rules

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

/*
 * Inline expression rules.
 *
 * An expression rule is a custom predicate object compiled once with
 * expr-lang/expr and evaluated against an environment of:
 *
 *   value   the field's value
 *   field   the field key
 *   record  the whole record
 *
 * In pipe specs the rule is written expr:<expression>; the whole remainder
 * after the colon is the expression, so commas and spaces survive, but "|"
 * still splits the spec and expressions using it need the List form.
 *
 * The program is compiled at construction time so syntax errors surface
 * before the schema is built. Runtime errors (type mismatches on odd input)
 * count as a failed check, never as a validation error.
 */

type expressionRule struct {
	source  string
	program *vm.Program
	message string
}

// NewExpression compiles a boolean expression into a medium-cost rule.
// message may contain one %s for the display name.
func NewExpression(source, message string) (Rule, error) {
	program, err := expr.Compile(source, expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("%w: expression %q: %v", ErrInvalidParameters, source, err)
	}
	return &expressionRule{source: source, program: program, message: message}, nil
}

func registerExpressions(r *Registry) {
	r.mustRegister("expr", func(params []any) (Rule, error) {
		if err := wantParams(params, 1); err != nil {
			return nil, err
		}
		source, err := stringParam(params, 0)
		if err != nil {
			return nil, err
		}
		return NewExpression(source, "")
	})
}

func (r *expressionRule) Cost() int    { return CostExpr }
func (r *expressionRule) Name() string { return "expression" }

func (r *expressionRule) Passes(value any, field string, record map[string]any) bool {
	out, err := expr.Run(r.program, map[string]any{
		"value":  value,
		"field":  field,
		"record": record,
	})
	if err != nil {
		return false
	}
	ok, _ := out.(bool)
	return ok
}

func (r *expressionRule) Message(field string) string {
	if r.message == "" {
		return fmt.Sprintf("The %s is invalid.", field)
	}
	return fmt.Sprintf(r.message, field)
}
