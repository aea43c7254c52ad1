// internal/rules/builtin_test.go
package rules

import (
	"testing"
	"time"
)

// evalSpec compiles spec for field "f" and reports whether every inline rule
// passes.
func evalSpec(t *testing.T, spec string, value any, record map[string]any) bool {
	t.Helper()
	schema, err := Compile(map[string]Spec{"f": Pipe(spec)}, nil)
	if err != nil {
		t.Fatalf("Compile(%q) error = %v", spec, err)
	}
	node, _ := schema.Node("f")
	for _, tier := range []Tier{TierCheap, TierMedium, TierExpensive} {
		for _, r := range node.RulesByTier(tier) {
			if !r.Passes(value, "f", record) {
				return false
			}
		}
	}
	return true
}

func TestBuiltinRules(t *testing.T) {
	tests := []struct {
		name   string
		spec   string
		value  any
		record map[string]any
		want   bool
	}{
		{"required_present", "required", "x", nil, true},
		{"required_nil", "required", nil, nil, false},
		{"required_blank", "required", "  ", nil, false},
		{"required_empty_list", "required", []any{}, nil, false},
		{"required_zero", "required", 0, nil, true},
		{"bail_noop", "bail", nil, nil, true},

		{"string_true", "string", "a", nil, true},
		{"string_false", "string", 1, nil, false},
		{"integer_float_whole", "integer", 21.0, nil, true},
		{"integer_float_frac", "integer", 21.5, nil, false},
		{"integer_string", "integer", "42", nil, true},
		{"integer_word", "integer", "forty", nil, false},
		{"numeric_string", "numeric", "4.5", nil, true},
		{"numeric_bool", "numeric", true, nil, false},
		{"boolean_bool", "boolean", false, nil, true},
		{"boolean_one", "boolean", "1", nil, true},
		{"boolean_yes", "boolean", "yes", nil, false},
		{"array_true", "array", []any{1}, nil, true},
		{"array_false", "array", "a", nil, false},

		{"min_number", "min:18", 21.0, nil, true},
		{"min_number_fail", "min:18", 15, nil, false},
		{"min_string_runes", "min:3", "héé", nil, true},
		{"max_string", "max:3", "abcd", nil, false},
		{"max_list", "max:2", []any{1, 2}, nil, true},
		{"size_exact", "size:4", "abcd", nil, true},
		{"between_in", "between:1,10", 10, nil, true},
		{"between_out", "between:1,10", 11, nil, false},
		{"min_bool_has_no_size", "min:0", true, nil, false},
		{"integer_min_numeric_string", "integer|min:18", "21", nil, true},
		{"integer_min_numeric_string_fail", "integer|min:18", "15", nil, false},
		{"numeric_between_string", "numeric|between:1,10", " 9.5 ", nil, true},
		{"numeric_max_string_fail", "numeric|max:10", "11", nil, false},
		{"numeric_min_text_counts_runes", "numeric|min:3", "abcd", nil, false},
		{"untyped_min_numeric_string_counts_runes", "min:18", "21", nil, false},
		{"string_max_numeric_string_counts_runes", "string|max:3", "1234", nil, false},

		{"in_member", "in:red,green", "red", nil, true},
		{"in_cast_member", "in:1,2,3", "2", nil, true},
		{"in_missing", "in:red,green", "blue", nil, false},
		{"in_collection", "in:a", []any{"a"}, nil, false},
		{"not_in_member", "not_in:admin,root", "root", nil, false},
		{"not_in_other", "not_in:admin,root", "jo", nil, true},
		{"starts_with", "starts_with:http,ftp", "ftp://x", nil, true},
		{"ends_with_fail", "ends_with:.com", "x.org", nil, false},

		{"same_match", "same:other", "a", map[string]any{"other": "a"}, true},
		{"same_mismatch", "same:other", "a", map[string]any{"other": "b"}, false},
		{"different", "different:other", "a", map[string]any{"other": "b"}, true},
		{"confirmed_ok", "confirmed", "pw", map[string]any{"f_confirmation": "pw"}, true},
		{"confirmed_missing", "confirmed", "pw", map[string]any{}, false},
		{"gt_literal", "gt:5", 6, nil, true},
		{"gt_literal_fail", "gt:5", 5, nil, false},
		{"gte_field", "gte:low", 5, map[string]any{"low": 5.0}, true},
		{"lt_field_missing", "lt:high", 5, map[string]any{}, false},
		{"lte_literal", "lte:5", "5", nil, true},

		{"email_ok", "email", "a@x.com", nil, true},
		{"email_bad", "email", "nope", nil, false},
		{"email_non_string", "email", 5, nil, false},
		{"url_ok", "url", "https://example.com/a", nil, true},
		{"uuid_ok", "uuid", "0190d3c5-7b2a-7cde-8f00-0123456789ab", nil, true},
		{"ipv4_ok", "ipv4", "10.0.0.1", nil, true},
		{"ipv6_rejects_v4", "ipv6", "10.0.0.1", nil, false},
		{"alpha_num", "alpha_num", "abc123", nil, true},
		{"lowercase_fail", "lowercase", "Abc", nil, false},
		{"hex_ok", "hex", "0xff", nil, true},
		{"json_ok", "json", `{"a":1}`, nil, true},
		{"json_bad", "json", `{a:1}`, nil, false},

		{"alpha_dash_ok", "alpha_dash", "a-b_c1", nil, true},
		{"alpha_dash_space", "alpha_dash", "a b", nil, false},
		{"regex_ok", "regex:^[a-z]+$", "abc", nil, true},
		{"regex_case_flag", "regex:/^[a-z]+$/i", "ABC", nil, true},
		{"regex_number_as_text", "regex:^[0-9]+$", 42, nil, true},
		{"not_regex", "not_regex:^admin", "admin1", nil, false},
		{"expr_pipe", "expr:value in [1, 2, 3]", 2, nil, true},
		{"expr_pipe_fail", "expr:value in [1, 2, 3]", 5, nil, false},
		{"expr_pipe_record", "expr:value > record.floor", 7, map[string]any{"floor": 5}, true},

		{"date_rfc3339", "date", "2024-05-01T10:00:00Z", nil, true},
		{"date_only", "date", "2024-05-01", nil, true},
		{"date_time_value", "date", time.Now(), nil, true},
		{"date_bad", "date", "01/05/2024", nil, false},

		{"lookup_passes_inline", "unique:users", "a@x.com", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evalSpec(t, tt.spec, tt.value, tt.record); got != tt.want {
				t.Errorf("%s on %#v = %v, want %v", tt.spec, tt.value, got, tt.want)
			}
		})
	}
}

func TestBuiltinMessages(t *testing.T) {
	tests := []struct {
		spec string
		want string
	}{
		{"required", "The Age field is required."},
		{"min:18", "The Age must be at least 18."},
		{"between:1,2.5", "The Age must be between 1 and 2.5."},
		{"in:a,b", "The selected Age is invalid."},
		{"starts_with:a,b", "The Age must start with one of the following: a, b."},
		{"gt:other", "The Age must be greater than other."},
		{"email", "The Age must be a valid email address."},
		{"unique:users", "The Age has already been taken."},
		{"exists:users", "The selected Age is invalid."},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			schema := MustCompile(map[string]Spec{"age": Pipe(tt.spec)}, nil)
			node, _ := schema.Node("age")
			var r Rule
			for _, tier := range []Tier{TierCheap, TierMedium, TierExpensive} {
				if rules := node.RulesByTier(tier); len(rules) > 0 {
					r = rules[0]
					break
				}
			}
			if got := r.Message("Age"); got != tt.want {
				t.Errorf("Message() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLookupRule_Lookup(t *testing.T) {
	tests := []struct {
		spec  string
		field string
		want  Lookup
	}{
		{"unique:users", "user.email", Lookup{Kind: KindUnique, Table: "users", Column: "email"}},
		{"unique:users,mail", "email", Lookup{Kind: KindUnique, Table: "users", Column: "mail"}},
		{"unique:users,email,5", "email", Lookup{Kind: KindUnique, Table: "users", Column: "email", Ignore: &Ignore{Column: "id", Value: 5}}},
		{"unique:users,email,7,uid", "email", Lookup{Kind: KindUnique, Table: "users", Column: "email", Ignore: &Ignore{Column: "uid", Value: 7}}},
		{"unique:users,email,NULL", "email", Lookup{Kind: KindUnique, Table: "users", Column: "email"}},
		{"exists:roles", "roles.0", Lookup{Kind: KindExists, Table: "roles", Column: "roles"}},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			schema := MustCompile(map[string]Spec{"f": Pipe(tt.spec)}, nil)
			node, _ := schema.Node("f")
			lr, ok := node.RulesByTier(TierExpensive)[0].(LookupRule)
			if !ok {
				t.Fatalf("rule is not a LookupRule")
			}
			got := lr.Lookup(tt.field)
			if got.Kind != tt.want.Kind || got.Table != tt.want.Table || got.Column != tt.want.Column {
				t.Errorf("Lookup() = %+v, want %+v", got, tt.want)
			}
			if (got.Ignore == nil) != (tt.want.Ignore == nil) {
				t.Fatalf("Ignore = %+v, want %+v", got.Ignore, tt.want.Ignore)
			}
			if got.Ignore != nil && (got.Ignore.Column != tt.want.Ignore.Column || got.Ignore.Value != tt.want.Ignore.Value) {
				t.Errorf("Ignore = %+v, want %+v", got.Ignore, tt.want.Ignore)
			}
		})
	}
}

func TestExpressionRule(t *testing.T) {
	r, err := NewExpression(`value > record.floor`, "The %s is below the floor.")
	if err != nil {
		t.Fatalf("NewExpression() error = %v", err)
	}
	if TierOf(r.Cost()) != TierMedium {
		t.Errorf("tier = %v, want medium", TierOf(r.Cost()))
	}
	if !r.Passes(10, "n", map[string]any{"floor": 5}) {
		t.Errorf("Passes(10 > 5) = false")
	}
	if r.Passes(1, "n", map[string]any{"floor": 5}) {
		t.Errorf("Passes(1 > 5) = true")
	}
	if r.Passes("x", "n", map[string]any{"floor": 5}) {
		t.Errorf("Passes on mismatched types = true, want false")
	}
	if got := r.Message("N"); got != "The N is below the floor." {
		t.Errorf("Message() = %q", got)
	}

	if _, err := NewExpression(`value >`, ""); err == nil {
		t.Errorf("NewExpression(syntax error) error = nil")
	}
}
