package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// Issue kinds
const (
	IssueMissing        = "missing"
	IssueStringType     = "string_type"
	IssueStringTooShort = "string_too_short"
	IssueStringTooLong  = "string_too_long"
	IssueExtraForbidden = "extra_forbidden"
	IssueJSONInvalid    = "json_invalid"
	IssueDictType       = "dict_type"
	IssueIntParsing     = "int_parsing"
	IssueGreaterEqual   = "greater_than_equal"
)

// BodyParam is the name the request body is reported under in issue
// locations.
const BodyParam = "data"

// Issue describes one schema violation
type Issue struct {
	Type string                 `json:"type"`
	Loc  []interface{}          `json:"loc"`
	Msg  string                 `json:"msg"`
	Ctx  map[string]interface{} `json:"ctx,omitempty"`
}

// Issues is a list of schema violations. It implements error so it can be
// returned alongside ordinary errors.
type Issues []Issue

func (is Issues) Error() string {
	parts := make([]string, 0, len(is))
	for _, issue := range is {
		parts = append(parts, fmt.Sprintf("%v: %s", issue.Loc, issue.Msg))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Field declares one string property of a request body
type Field struct {
	Name string
	// Optional fields may be absent. Null is treated as absent.
	Optional  bool
	MinLength int
	// MaxLength of zero means unbounded
	MaxLength int
}

// Schema is an ordered set of string fields. Unknown properties are
// rejected.
type Schema struct {
	Name   string
	Fields []Field
}

// Values holds the decoded fields that were present in the body
type Values map[string]string

// Get returns the value of name and whether it was supplied
func (v Values) Get(name string) (string, bool) {
	val, ok := v[name]
	return val, ok
}

// Ptr returns a pointer to the value of name, or nil when absent
func (v Values) Ptr(name string) *string {
	val, ok := v[name]
	if !ok {
		return nil
	}
	return &val
}

// Decode parses body against the schema. An empty body is an empty object.
// Issues for declared fields come first in declaration order, followed by
// unknown properties in lexical order.
func (s *Schema) Decode(body []byte) (Values, Issues) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		body = []byte("{}")
	}

	var raw interface{}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil || dec.More() {
		msg := "JSON decode error"
		if err != nil {
			msg = fmt.Sprintf("JSON decode error: %v", err)
		}
		return nil, Issues{{
			Type: IssueJSONInvalid,
			Loc:  []interface{}{"body"},
			Msg:  msg,
		}}
	}

	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, Issues{{
			Type: IssueDictType,
			Loc:  []interface{}{"body", BodyParam},
			Msg:  "Input should be a valid dictionary",
		}}
	}

	values := make(Values, len(s.Fields))
	var issues Issues
	declared := make(map[string]struct{}, len(s.Fields))

	for _, field := range s.Fields {
		declared[field.Name] = struct{}{}
		loc := []interface{}{"body", BodyParam, field.Name}

		v, present := obj[field.Name]
		if !present || (v == nil && field.Optional) {
			if !field.Optional {
				issues = append(issues, Issue{Type: IssueMissing, Loc: loc, Msg: "Field required"})
			}
			continue
		}

		str, isString := v.(string)
		if !isString {
			issues = append(issues, Issue{Type: IssueStringType, Loc: loc, Msg: "Input should be a valid string"})
			continue
		}

		length := utf8.RuneCountInString(str)
		if field.MinLength > 0 && length < field.MinLength {
			issues = append(issues, Issue{
				Type: IssueStringTooShort,
				Loc:  loc,
				Msg:  fmt.Sprintf("String should have at least %d %s", field.MinLength, plural(field.MinLength, "character")),
				Ctx:  map[string]interface{}{"min_length": field.MinLength},
			})
			continue
		}
		if field.MaxLength > 0 && length > field.MaxLength {
			issues = append(issues, Issue{
				Type: IssueStringTooLong,
				Loc:  loc,
				Msg:  fmt.Sprintf("String should have at most %d %s", field.MaxLength, plural(field.MaxLength, "character")),
				Ctx:  map[string]interface{}{"max_length": field.MaxLength},
			})
			continue
		}

		values[field.Name] = str
	}

	var extras []string
	for name := range obj {
		if _, ok := declared[name]; !ok {
			extras = append(extras, name)
		}
	}
	sort.Strings(extras)
	for _, name := range extras {
		issues = append(issues, Issue{
			Type: IssueExtraForbidden,
			Loc:  []interface{}{"body", BodyParam, name},
			Msg:  "Extra inputs are not permitted",
		})
	}

	if len(issues) > 0 {
		return nil, issues
	}
	return values, nil
}

// QueryIntIssue reports a query parameter that is not a non-negative
// integer
func QueryIntIssue(name, raw string) Issue {
	loc := []interface{}{"query", name}
	if raw != "" && raw[0] == '-' && isDigits(raw[1:]) {
		return Issue{
			Type: IssueGreaterEqual,
			Loc:  loc,
			Msg:  "Input should be greater than or equal to 0",
			Ctx:  map[string]interface{}{"ge": 0},
		}
	}
	return Issue{
		Type: IssueIntParsing,
		Loc:  loc,
		Msg:  "Input should be a valid integer, unable to parse string as an integer",
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
