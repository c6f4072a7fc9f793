package conduit

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	json "github.com/goccy/go-json"
)

// RuleKind tags the check a Rule performs. Kinds are evaluated in declaration
// order regardless of the order rules were listed for a field.
type RuleKind int

const (
	RuleRequired RuleKind = iota
	RuleType
	RuleEnum
	RuleMinLength
	RuleMaxLength
	RulePattern
	RuleCustom
)

// Rule is a single constraint on a field. Only the members relevant to Kind
// are read.
type Rule struct {
	Kind     RuleKind
	TypeName string
	Values   []any
	Length   int
	Pattern  *regexp.Regexp
	Check    func(value any) error
}

// Required fails when the field is absent or null.
func Required() Rule { return Rule{Kind: RuleRequired} }

// OfType requires the value's primitive type name to be typeName: one of
// "string", "number", "boolean", "object" or "function".
func OfType(typeName string) Rule { return Rule{Kind: RuleType, TypeName: typeName} }

// OneOf requires the value to equal one of values. Numbers compare by value
// regardless of their Go type.
func OneOf(values ...any) Rule { return Rule{Kind: RuleEnum, Values: values} }

// MinLength bounds the length of the value's string form from below. Values
// of n <= 0 disable the check.
func MinLength(n int) Rule { return Rule{Kind: RuleMinLength, Length: n} }

// MaxLength bounds the length of the value's string form from above. Values
// of n <= 0 disable the check.
func MaxLength(n int) Rule { return Rule{Kind: RuleMaxLength, Length: n} }

// Matches requires the value's string form to match re.
func Matches(re *regexp.Regexp) Rule { return Rule{Kind: RulePattern, Pattern: re} }

// Custom runs fn on the value; a non-nil error becomes the violation text.
func Custom(fn func(value any) error) Rule { return Rule{Kind: RuleCustom, Check: fn} }

// Field binds rules to a field name.
type Field struct {
	Name  string
	Rules []Rule
}

// F is shorthand for building a Field.
func F(name string, rules ...Rule) Field {
	return Field{Name: name, Rules: rules}
}

// Section is an ordered set of field rules; violations are reported in the
// same order.
type Section []Field

// Schema describes the expected shape of a request. Any section may be nil.
type Schema struct {
	Headers Section
	Params  Section
	Data    Section
}

// ValidateRequest returns the validation stage for schema. A nil schema
// passes every config through untouched.
func ValidateRequest(schema *Schema) Interceptor {
	return func(ctx context.Context, cfg *RequestConfig) (*RequestConfig, error) {
		if err := schema.Validate(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
}

// Validate walks every section once and returns a single error listing all
// violations, or nil.
func (s *Schema) Validate(cfg *RequestConfig) error {
	if s == nil || cfg == nil {
		return nil
	}

	var violations []string

	if s.Headers != nil {
		violations = s.Headers.check("headers", func(name string) (any, bool) {
			return lookupHeader(cfg.Headers, name)
		}, violations)
	}

	if s.Params != nil {
		violations = s.Params.check("params", func(name string) (any, bool) {
			v, ok := cfg.Params.Get(name)
			return v, ok
		}, violations)
	}

	if s.Data != nil {
		fields := bodyFields(cfg.Body)
		violations = s.Data.check("data", func(name string) (any, bool) {
			v, ok := fields[name]
			return v, ok
		}, violations)
	}

	if len(violations) > 0 {
		return newValidationError(violations)
	}
	return nil
}

func (sec Section) check(prefix string, lookup func(string) (any, bool), violations []string) []string {
	for _, field := range sec {
		path := prefix + "." + field.Name
		value, ok := lookup(field.Name)
		present := ok && !isNil(value)

		rules := orderedRules(field.Rules)
		if !present {
			if hasRequired(rules) {
				violations = append(violations, path+" is required")
			}
			continue
		}

		for _, rule := range rules {
			if msg := evaluate(rule, path, value); msg != "" {
				violations = append(violations, msg)
			}
		}
	}
	return violations
}

// evaluate returns the violation text for rule against a present value, or "".
func evaluate(rule Rule, path string, value any) string {
	switch rule.Kind {
	case RuleRequired:
		return ""
	case RuleType:
		if rule.TypeName != "" && typeName(value) != rule.TypeName {
			return fmt.Sprintf("%s must be of type %s", path, rule.TypeName)
		}
	case RuleEnum:
		if rule.Values == nil {
			return ""
		}
		for _, allowed := range rule.Values {
			if looseEqual(allowed, value) {
				return ""
			}
		}
		parts := make([]string, len(rule.Values))
		for i, v := range rule.Values {
			parts[i] = stringForm(v)
		}
		return fmt.Sprintf("%s must be one of [%s]", path, strings.Join(parts, ", "))
	case RuleMinLength:
		if rule.Length > 0 && utf8.RuneCountInString(stringForm(value)) < rule.Length {
			return fmt.Sprintf("%s must be at least %d characters long", path, rule.Length)
		}
	case RuleMaxLength:
		if rule.Length > 0 && utf8.RuneCountInString(stringForm(value)) > rule.Length {
			return fmt.Sprintf("%s must be no more than %d characters long", path, rule.Length)
		}
	case RulePattern:
		if rule.Pattern != nil && !rule.Pattern.MatchString(stringForm(value)) {
			return fmt.Sprintf("%s does not match the required pattern", path)
		}
	case RuleCustom:
		if rule.Check == nil {
			return ""
		}
		if err := rule.Check(value); err != nil {
			return fmt.Sprintf("%s: %s", path, err.Error())
		}
	}
	return ""
}

func orderedRules(rules []Rule) []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

func hasRequired(rules []Rule) bool {
	for _, r := range rules {
		if r.Kind == RuleRequired {
			return true
		}
	}
	return false
}

func lookupHeader(headers map[string]string, name string) (string, bool) {
	if v, ok := headers[name]; ok {
		return v, true
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// bodyFields exposes the top-level members of a JSON-serializable body. Bodies
// that do not encode to a JSON object have no fields.
func bodyFields(body any) map[string]any {
	switch b := body.(type) {
	case nil:
		return nil
	case map[string]any:
		return b
	case map[string]string:
		out := make(map[string]any, len(b))
		for k, v := range b {
			out[k] = v
		}
		return out
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	return fields
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func typeName(v any) string {
	if _, ok := v.(json.Number); ok {
		return "number"
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Func:
		return "function"
	default:
		return "object"
	}
}

func looseEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func stringForm(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
