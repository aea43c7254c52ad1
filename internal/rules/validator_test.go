// internal/rules/validator_test.go
package rules

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/solatis/checkpoint/internal/types"
)

func mustValidate(t *testing.T, v *Validator, record map[string]any) *Result {
	t.Helper()
	result, err := v.Validate(context.Background(), record)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	return result
}

func TestValidate_ScenarioRequiredIntegerMin(t *testing.T) {
	v := NewValidator(MustCompile(Pipes(map[string]string{"age": "required|integer|min:18"}), nil))

	result := mustValidate(t, v, map[string]any{})
	if result.Passes() || !strings.Contains(result.First("age"), "required") {
		t.Errorf("{} -> passes=%v first=%q, want required failure", result.Passes(), result.First("age"))
	}

	result = mustValidate(t, v, map[string]any{"age": 15})
	if result.Passes() || !strings.Contains(result.First("age"), "at least 18") {
		t.Errorf("{age:15} -> passes=%v first=%q, want minimum failure", result.Passes(), result.First("age"))
	}

	result = mustValidate(t, v, map[string]any{"age": 21})
	if !result.Passes() {
		t.Fatalf("{age:21} failed: %v", result.Errors())
	}
	if !reflect.DeepEqual(result.Validated(), map[string]any{"age": 21}) {
		t.Errorf("Validated() = %v, want {age:21}", result.Validated())
	}
}

func TestValidate_ScenarioUniqueEmail(t *testing.T) {
	p := usersProvider()
	v := NewValidator(MustCompile(Pipes(map[string]string{"email": "required|email|unique:users,email"}), nil), WithProvider(p))

	result := mustValidate(t, v, map[string]any{"email": "a@x.com"})
	if result.Passes() || result.First("email") != "The Email has already been taken." {
		t.Errorf("taken email -> %v", result.Errors())
	}
	if _, ok := result.Validated()["email"]; ok {
		t.Errorf("field failing in batch phase still validated")
	}

	result = mustValidate(t, v, map[string]any{"email": "c@x.com"})
	if !result.Passes() {
		t.Errorf("free email failed: %v", result.Errors())
	}
}

func TestValidate_ScenarioNested(t *testing.T) {
	v := NewValidator(MustCompile(Pipes(map[string]string{"user.name": "required"}), nil), WithNested(true))

	result := mustValidate(t, v, map[string]any{"user": map[string]any{"name": "Jo"}})
	if !result.Passes() {
		t.Fatalf("nested record failed: %v", result.Errors())
	}
	if got := result.Validated()["user.name"]; got != "Jo" {
		t.Errorf("Validated()[user.name] = %v, want Jo", got)
	}

	result = mustValidate(t, v, map[string]any{"user": map[string]any{}})
	if !strings.Contains(result.First("user.name"), "required") {
		t.Errorf("empty user -> %v, want required on user.name", result.Errors())
	}
}

func TestValidate_NonNestedKeepsDottedKeysFlat(t *testing.T) {
	v := NewValidator(MustCompile(Pipes(map[string]string{"user.name": "required"}), nil))

	if result := mustValidate(t, v, map[string]any{"user": map[string]any{"name": "Jo"}}); result.Passes() {
		t.Errorf("non-nested validator resolved a nested path")
	}
	if result := mustValidate(t, v, map[string]any{"user.name": "Jo"}); !result.Passes() {
		t.Errorf("flat dotted key failed: %v", result.Errors())
	}
}

func TestValidate_WildcardExpansion(t *testing.T) {
	v := NewValidator(MustCompile(Pipes(map[string]string{"items.*.price": "required|numeric|min:1"}), nil), WithNested(true))

	result := mustValidate(t, v, map[string]any{
		"items": []any{
			map[string]any{"price": 5},
			map[string]any{"price": 0},
			map[string]any{},
		},
	})

	want := map[string]bool{"items.1.price": true, "items.2.price": true}
	errs := result.Errors()
	if len(errs) != len(want) {
		t.Fatalf("Errors() = %v, want failures on %v", errs, want)
	}
	for field := range want {
		if !result.Has(field) {
			t.Errorf("missing error on %s", field)
		}
	}
	if got := result.Validated(); !reflect.DeepEqual(got, map[string]any{"items.0.price": 5}) {
		t.Errorf("Validated() = %v", got)
	}
	if _, literal := errs["items.*.price"]; literal {
		t.Errorf("wildcard key matched literally")
	}
	if !strings.Contains(result.First("items.2.price"), "Items 2 Price") {
		t.Errorf("First(items.2.price) = %q, want humanized display", result.First("items.2.price"))
	}
}

func TestValidate_OverlappingPatternsVisitKeyOnce(t *testing.T) {
	v := NewValidator(MustCompile(Pipes(map[string]string{
		"items.*.price": "numeric",
		"items.0.price": "required",
	}), nil), WithNested(true))

	result := mustValidate(t, v, map[string]any{"items": []any{map[string]any{"price": "abc"}}})
	if _, ok := result.Validated()["items.0.price"]; ok {
		t.Errorf("items.0.price both failed and validated: %v / %v", result.Errors(), result.Validated())
	}
	if got := result.FieldErrors("items.0.price"); len(got) != 1 || !strings.Contains(got[0], "number") {
		t.Errorf("FieldErrors(items.0.price) = %v, want one numeric failure", got)
	}

	result = mustValidate(t, v, map[string]any{"items": []any{map[string]any{}}})
	if got := result.FieldErrors("items.0.price"); len(got) != 1 || !strings.Contains(got[0], "required") {
		t.Errorf("FieldErrors(items.0.price) = %v, want merged required rule", got)
	}

	result = mustValidate(t, v, map[string]any{"items": []any{map[string]any{"price": 5}, map[string]any{"price": "x"}}})
	if !reflect.DeepEqual(result.Validated(), map[string]any{"items.0.price": 5}) {
		t.Errorf("Validated() = %v, want only items.0.price", result.Validated())
	}
	if !result.Has("items.1.price") || result.ErrorCount() != 1 {
		t.Errorf("Errors() = %v, want one failure on items.1.price", result.Errors())
	}
}

func TestValidate_NumericStringInput(t *testing.T) {
	v := NewValidator(MustCompile(Pipes(map[string]string{"age": "required|integer|min:18"}), nil))

	result := mustValidate(t, v, map[string]any{"age": "21"})
	if !result.Passes() {
		t.Errorf(`{age:"21"} failed: %v`, result.Errors())
	}
	result = mustValidate(t, v, map[string]any{"age": "15"})
	if !strings.Contains(result.First("age"), "at least 18") {
		t.Errorf(`{age:"15"} first = %q, want minimum failure`, result.First("age"))
	}
}

func TestValidate_OptionalEmptySkipped(t *testing.T) {
	v := NewValidator(MustCompile(Pipes(map[string]string{
		"nick": "string|min:3",
		"tags": "array|min:1",
	}), nil))

	for _, value := range []any{nil, "", "  ", []any{}, map[string]any{}} {
		result := mustValidate(t, v, map[string]any{"nick": value, "tags": value})
		if result.Fails() || len(result.Validated()) != 0 {
			t.Errorf("empty %#v -> errors %v validated %v, want neither", value, result.Errors(), result.Validated())
		}
	}
}

func TestValidate_ExtraKeysIgnored(t *testing.T) {
	v := NewValidator(MustCompile(Pipes(map[string]string{"a": "required"}), nil))
	result := mustValidate(t, v, map[string]any{"a": 1, "b": 2})
	if !result.Passes() || !reflect.DeepEqual(result.Validated(), map[string]any{"a": 1}) {
		t.Errorf("result = %v / %v", result.Errors(), result.Validated())
	}
}

func TestValidate_FailFast(t *testing.T) {
	schema := MustCompile(Pipes(map[string]string{"code": "string|min:5|alpha"}), nil)

	on := mustValidate(t, NewValidator(schema), map[string]any{"code": "1"})
	if got := len(on.FieldErrors("code")); got != 1 {
		t.Errorf("fail-fast errors = %d, want 1", got)
	}

	off := mustValidate(t, NewValidator(schema, WithFailFast(false)), map[string]any{"code": "1"})
	if got := len(off.FieldErrors("code")); got != 2 {
		t.Errorf("no fail-fast errors = %d, want 2 (%v)", got, off.FieldErrors("code"))
	}
	if off.First("code") != on.First("code") {
		t.Errorf("first error differs: %q vs %q", off.First("code"), on.First("code"))
	}
}

func TestValidate_MediumSkippedAfterCheapFailure(t *testing.T) {
	var mediumRan bool
	medium := Func(70, "medium", func(any, string, map[string]any) bool { mediumRan = true; return true }, nil)
	schema := MustCompile(map[string]Spec{"f": List("integer", medium)}, nil)

	mustValidate(t, NewValidator(schema, WithFailFast(false)), map[string]any{"f": "x"})
	if mediumRan {
		t.Errorf("medium tier ran after cheap tier failed")
	}
}

func TestValidate_StopOnFirstError(t *testing.T) {
	schema := MustCompile(Pipes(map[string]string{
		"a": "required",
		"b": "required",
		"c": "required",
	}), nil)

	all := mustValidate(t, NewValidator(schema), map[string]any{})
	if len(all.Errors()) != 3 {
		t.Errorf("errors = %v, want 3 fields", all.Errors())
	}

	stopped := mustValidate(t, NewValidator(schema, WithStopOnFirstError(true)), map[string]any{"a": 1})
	errs := stopped.Errors()
	if len(errs) != 1 || stopped.First("b") != all.First("b") {
		t.Errorf("stopped errors = %v, want only b with unchanged message", errs)
	}
	if !reflect.DeepEqual(stopped.Validated(), map[string]any{"a": 1}) {
		t.Errorf("Validated() = %v, want only a", stopped.Validated())
	}
}

func TestValidate_StopOnFirstErrorSkipsBatch(t *testing.T) {
	p := usersProvider()
	schema := MustCompile(Pipes(map[string]string{
		"email": "unique:users",
		"name":  "required",
	}), nil)

	mustValidate(t, NewValidator(schema, WithProvider(p), WithStopOnFirstError(true)), map[string]any{"email": "a@x.com"})
	if p.totalCalls() != 0 {
		t.Errorf("batch ran after abort: %d calls", p.totalCalls())
	}
}

func TestValidate_StopOnFirstErrorInBatch(t *testing.T) {
	p := usersProvider()
	schema := MustCompile(Pipes(map[string]string{
		"email":  "unique:users",
		"handle": "unique:users,name",
	}), nil)

	result := mustValidate(t, NewValidator(schema, WithProvider(p), WithStopOnFirstError(true)),
		map[string]any{"email": "a@x.com", "handle": "bob"})
	if len(result.Errors()) != 1 || !result.Has("email") {
		t.Errorf("Errors() = %v, want only email", result.Errors())
	}
	if len(result.Validated()) != 0 {
		t.Errorf("Validated() = %v, want empty", result.Validated())
	}
}

func TestValidate_BatchFailFastOneMessage(t *testing.T) {
	p := usersProvider()
	schema := MustCompile(Pipes(map[string]string{"email": "unique:users|exists:roles,name"}), nil)

	result := mustValidate(t, NewValidator(schema, WithProvider(p)), map[string]any{"email": "a@x.com"})
	if got := len(result.FieldErrors("email")); got != 1 {
		t.Errorf("fail-fast batch errors = %d, want 1", got)
	}

	result = mustValidate(t, NewValidator(schema, WithProvider(p), WithFailFast(false)), map[string]any{"email": "a@x.com"})
	if got := len(result.FieldErrors("email")); got != 2 {
		t.Errorf("batch errors = %d, want 2", got)
	}
}

func TestValidate_OneProviderCallPerKindAndTable(t *testing.T) {
	p := usersProvider()
	schema := MustCompile(Pipes(map[string]string{
		"email":   "unique:users",
		"name":    "unique:users",
		"manager": "exists:users,email",
		"role":    "exists:roles,name",
	}), nil)

	result := mustValidate(t, NewValidator(schema, WithProvider(p)), map[string]any{
		"email": "z@x.com", "name": "zed", "manager": "a@x.com", "role": "admin",
	})
	if !result.Passes() {
		t.Errorf("Errors() = %v", result.Errors())
	}
	if p.totalCalls() != 3 {
		t.Errorf("provider calls = %d, want 3", p.totalCalls())
	}
}

func TestValidate_MissingProvider(t *testing.T) {
	schema := MustCompile(Pipes(map[string]string{"email": "required|unique:users"}), nil)

	core, logs := observer.New(zap.WarnLevel)
	result := mustValidate(t, NewValidator(schema, WithLogger(zap.New(core))), map[string]any{"email": "a@x.com"})
	if !result.Passes() {
		t.Errorf("lookup without provider failed: %v", result.Errors())
	}
	if logs.FilterMessageSnippet("lookup provider not configured").Len() != 1 {
		t.Errorf("missing provider warning not logged")
	}

	_, err := NewValidator(schema, WithStrictLookups(true)).Validate(context.Background(), map[string]any{"email": "a@x.com"})
	if !errors.Is(err, ErrProviderMissing) {
		t.Errorf("strict Validate() error = %v, want ErrProviderMissing", err)
	}
}

func TestValidate_ProviderErrorIsFatal(t *testing.T) {
	p := usersProvider()
	p.err = errors.New("db down")
	schema := MustCompile(Pipes(map[string]string{"email": "unique:users"}), nil)

	result, err := NewValidator(schema, WithProvider(p)).Validate(context.Background(), map[string]any{"email": "a@x.com"})
	if !errors.Is(err, ErrLookupFailed) || result != nil {
		t.Errorf("Validate() = %v, %v; want nil, ErrLookupFailed", result, err)
	}
}

func TestValidate_ThrowOnFailure(t *testing.T) {
	schema := MustCompile(Pipes(map[string]string{"age": "required|integer"}), nil)
	v := NewValidator(schema, WithThrowOnFailure(true))

	result, err := v.Validate(context.Background(), map[string]any{"age": "x"})
	var verr *ValidationError
	if !errors.As(err, &verr) || !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("Validate() error = %v, want *ValidationError", err)
	}
	if verr.ErrorCount() != 1 || verr.First("age") != result.First("age") {
		t.Errorf("ValidationError = %v", verr.Errors())
	}

	if _, err := v.Validate(context.Background(), map[string]any{"age": 3}); err != nil {
		t.Errorf("passing record error = %v", err)
	}
}

func TestValidate_Aliases(t *testing.T) {
	aliases := NewAliases(map[string]string{"dob": "date of birth", "items.*.sku": "item SKU"})
	schema := MustCompile(Pipes(map[string]string{"dob": "required", "items.*.sku": "required"}), nil)
	v := NewValidator(schema, WithAliases(aliases), WithNested(true))

	result := mustValidate(t, v, map[string]any{"items": []any{map[string]any{}}})
	if got := result.First("dob"); got != "The date of birth field is required." {
		t.Errorf("First(dob) = %q", got)
	}
	if got := result.First("items.0.sku"); got != "The item SKU field is required." {
		t.Errorf("First(items.0.sku) = %q", got)
	}

	aliases.Clear()
	result = mustValidate(t, v, map[string]any{})
	if got := result.First("dob"); got != "The Dob field is required." {
		t.Errorf("after Clear, First(dob) = %q", got)
	}
}

func TestValidate_BailIsNoop(t *testing.T) {
	with := MustCompile(Pipes(map[string]string{"f": "bail|string|min:5"}), nil)
	without := MustCompile(Pipes(map[string]string{"f": "string|min:5"}), nil)

	for _, value := range []any{1, "ab", "abcdef"} {
		a := mustValidate(t, NewValidator(with), map[string]any{"f": value})
		b := mustValidate(t, NewValidator(without), map[string]any{"f": value})
		if !reflect.DeepEqual(a.Errors(), b.Errors()) {
			t.Errorf("bail changed result for %#v: %v vs %v", value, a.Errors(), b.Errors())
		}
	}
}

func TestValidate_ExecutionOrderFollowsCost(t *testing.T) {
	var order []string
	track := func(name string, cost int) Rule {
		return Func(cost, name, func(any, string, map[string]any) bool {
			order = append(order, name)
			return true
		}, nil)
	}
	schema := MustCompile(map[string]Spec{
		"f": List(track("expensive", 120), track("medium", 60), track("cheap-b", 20), track("cheap-a", 10)),
	}, nil)

	mustValidate(t, NewValidator(schema), map[string]any{"f": 1})
	want := []string{"cheap-a", "cheap-b", "medium", "expensive"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestValidate_RunID(t *testing.T) {
	v := NewValidator(MustCompile(Pipes(map[string]string{"a": "required"}), nil))
	r1 := mustValidate(t, v, nil)
	r2 := mustValidate(t, v, nil)
	if r1.RunID() == r2.RunID() {
		t.Errorf("run ids repeat: %s", r1.RunID())
	}
	if _, err := types.ParseRunID(string(r1.RunID())); err != nil {
		t.Errorf("ParseRunID() error = %v", err)
	}
}

func TestValidate_NestedInputTooDeep(t *testing.T) {
	deep := map[string]any{"x": 1}
	for i := 0; i < types.MaxPathDepth+1; i++ {
		deep = map[string]any{"n": deep}
	}
	v := NewValidator(MustCompile(Pipes(map[string]string{"a": "required"}), nil), WithNested(true))
	if _, err := v.Validate(context.Background(), deep); !errors.Is(err, types.ErrPathTooDeep) {
		t.Errorf("Validate() error = %v, want ErrPathTooDeep", err)
	}
}

var propertySpecs = map[string]string{
	"age":   "required|integer|between:18,99",
	"email": "email|unique:users",
	"role":  "in:admin,user,guest",
	"nick":  "string|min:2|max:8|alpha_dash",
}

func genRecord() gopter.Gen {
	const absent = "<absent>"
	values := gen.OneConstOf(absent, "", 17, 18, 50, 120, "a@x.com", "b@x.com", "c@x.com", "admin", "root", "jo", "x y", true)
	return gopter.CombineGens(values, values, values, values).Map(func(vs []any) map[string]any {
		record := map[string]any{}
		for i, key := range []string{"age", "email", "role", "nick"} {
			if vs[i] != absent {
				record[key] = vs[i]
			}
		}
		return record
	})
}

// Property: a field is validated iff it has no errors, never both.
func TestValidate_PropertyErrorsXorValidated(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("errors and validated are disjoint", prop.ForAll(
		func(record map[string]any, failFast, stop bool) bool {
			schema := MustCompile(Pipes(propertySpecs), nil)
			v := NewValidator(schema, WithProvider(usersProvider()), WithFailFast(failFast), WithStopOnFirstError(stop))
			result, err := v.Validate(context.Background(), record)
			if err != nil {
				return false
			}
			validated := result.Validated()
			for field := range result.Errors() {
				if _, ok := validated[field]; ok {
					return false
				}
			}
			if failFast {
				for _, msgs := range result.Errors() {
					if len(msgs) > 1 {
						return false
					}
				}
			}
			if stop && len(result.Errors()) > 1 {
				return false
			}
			return true
		},
		genRecord(),
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// Property: compiling the same specs twice validates identically.
func TestValidate_PropertyCompileDeterminism(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("recompiled schemas agree", prop.ForAll(
		func(record map[string]any) bool {
			p := usersProvider()
			a := NewValidator(MustCompile(Pipes(propertySpecs), nil), WithProvider(p), WithFailFast(false))
			b := NewValidator(MustCompile(Pipes(propertySpecs), nil), WithProvider(p), WithFailFast(false))
			ra, errA := a.Validate(context.Background(), record)
			rb, errB := b.Validate(context.Background(), record)
			if errA != nil || errB != nil {
				return false
			}
			return reflect.DeepEqual(ra.Errors(), rb.Errors()) && reflect.DeepEqual(ra.Validated(), rb.Validated())
		},
		genRecord(),
	))

	properties.TestingRun(t)
}
