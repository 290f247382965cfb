// Package validation decodes JSON request bodies against declared schemas
// and reports violations as a list of issues.
//
// # Overview
//
// Each schema is an ordered list of string fields with optional length
// bounds. Unknown properties are forbidden. Issues carry a type, a location
// of the form ["body", "data", <field>], a message and, for length checks, a
// ctx object:
//
//	{"type": "string_too_short", "loc": ["body", "data", "password"],
//	 "msg": "String should have at least 5 characters", "ctx": {"min_length": 5}}
//
// # Usage Example
//
//	values, issues := validation.SignupSchema.Decode(body)
//	if issues != nil {
//		httputil.WriteValidationIssues(w, issues)
//		return
//	}
//	username, _ := values.Get("username")
//
// # Rules
//
//   - Declared fields are reported in declaration order
//   - Extra properties follow in lexical order
//   - An empty body is treated as {}
//   - For optional fields, null means the field was not supplied
//   - Lengths are counted in Unicode code points
package validation
