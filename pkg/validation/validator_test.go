package validation

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issuesJSON(t *testing.T, issues Issues) string {
	t.Helper()
	b, err := json.Marshal(issues)
	require.NoError(t, err)
	return string(b)
}

func TestSignupSchema_Valid(t *testing.T) {
	values, issues := SignupSchema.Decode([]byte(`{
		"username": "test",
		"password": "password",
		"first_name": "testFirst",
		"last_name": "testLast"
	}`))
	require.Nil(t, issues)

	username, ok := values.Get("username")
	assert.True(t, ok)
	assert.Equal(t, "test", username)
	assert.Equal(t, "testLast", *values.Ptr("last_name"))
	assert.Nil(t, values.Ptr("nickname"))
}

func TestSignupSchema_MissingField(t *testing.T) {
	_, issues := SignupSchema.Decode([]byte(`{"username":"test","password":"password","first_name":"testFirst"}`))

	assert.JSONEq(t, `[{"type":"missing","loc":["body","data","last_name"],"msg":"Field required"}]`, issuesJSON(t, issues))
}

func TestSignupSchema_ExtraField(t *testing.T) {
	_, issues := SignupSchema.Decode([]byte(`{
		"username": "test",
		"password": "password",
		"first_name": "testFirst",
		"last_name": "testLast",
		"extra_field": "extra_value"
	}`))

	assert.JSONEq(t, `[{"type":"extra_forbidden","loc":["body","data","extra_field"],"msg":"Extra inputs are not permitted"}]`, issuesJSON(t, issues))
}

func TestSignupSchema_MinimumLengths(t *testing.T) {
	_, issues := SignupSchema.Decode([]byte(`{"username":"","first_name":"","last_name":"","password":""}`))

	assert.JSONEq(t, `[
		{"type":"string_too_short","loc":["body","data","username"],"msg":"String should have at least 2 characters","ctx":{"min_length":2}},
		{"type":"string_too_short","loc":["body","data","first_name"],"msg":"String should have at least 2 characters","ctx":{"min_length":2}},
		{"type":"string_too_short","loc":["body","data","last_name"],"msg":"String should have at least 2 characters","ctx":{"min_length":2}},
		{"type":"string_too_short","loc":["body","data","password"],"msg":"String should have at least 5 characters","ctx":{"min_length":5}}
	]`, issuesJSON(t, issues))
}

func TestSignupSchema_MaxLength(t *testing.T) {
	long := strings.Repeat("a", 151)
	_, issues := SignupSchema.Decode([]byte(`{"username":"` + long + `","first_name":"ab","last_name":"cd","password":"password"}`))

	require.Len(t, issues, 1)
	assert.Equal(t, IssueStringTooLong, issues[0].Type)
	assert.Equal(t, "String should have at most 150 characters", issues[0].Msg)
	assert.Equal(t, map[string]interface{}{"max_length": 150}, issues[0].Ctx)
}

func TestSchema_CountsCodePoints(t *testing.T) {
	schema := &Schema{Fields: []Field{{Name: "name", MinLength: 2}}}

	_, issues := schema.Decode([]byte(`{"name":"é"}`))
	require.Len(t, issues, 1)
	assert.Equal(t, IssueStringTooShort, issues[0].Type)

	values, issues := schema.Decode([]byte(`{"name":"éé"}`))
	require.Nil(t, issues)
	assert.Equal(t, "éé", values["name"])
}

func TestSchema_IssueOrdering(t *testing.T) {
	_, issues := SignupSchema.Decode([]byte(`{"zeta":1,"password":7,"alpha":true}`))

	var types, names []string
	for _, issue := range issues {
		types = append(types, issue.Type)
		names = append(names, issue.Loc[2].(string))
	}
	assert.Equal(t, []string{"username", "first_name", "last_name", "password", "alpha", "zeta"}, names)
	assert.Equal(t, []string{IssueMissing, IssueMissing, IssueMissing, IssueStringType, IssueExtraForbidden, IssueExtraForbidden}, types)
}

func TestSchema_BodyShapes(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantType string
	}{
		{"invalid json", `{"username":`, IssueJSONInvalid},
		{"trailing data", `{} {}`, IssueJSONInvalid},
		{"array", `["username"]`, IssueDictType},
		{"string", `"username"`, IssueDictType},
		{"null", `null`, IssueDictType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, issues := LoginSchema.Decode([]byte(tt.body))
			require.Len(t, issues, 1)
			assert.Equal(t, tt.wantType, issues[0].Type)
		})
	}
}

func TestSchema_EmptyBodyIsEmptyObject(t *testing.T) {
	_, issues := StoryCreateSchema.Decode(nil)
	require.Len(t, issues, 3)
	for _, issue := range issues {
		assert.Equal(t, IssueMissing, issue.Type)
	}

	values, issues := UserPatchSchema.Decode([]byte("  "))
	require.Nil(t, issues)
	assert.Empty(t, values)
}

func TestUserPatchSchema(t *testing.T) {
	t.Run("null means absent", func(t *testing.T) {
		values, issues := UserPatchSchema.Decode([]byte(`{"first_name":"newFirst","last_name":null}`))
		require.Nil(t, issues)
		assert.Equal(t, "newFirst", *values.Ptr("first_name"))
		assert.Nil(t, values.Ptr("last_name"))
		assert.Nil(t, values.Ptr("password"))
	})

	t.Run("empty password is applied", func(t *testing.T) {
		values, issues := UserPatchSchema.Decode([]byte(`{"password":""}`))
		require.Nil(t, issues)
		pw := values.Ptr("password")
		require.NotNil(t, pw)
		assert.Equal(t, "", *pw)
	})

	t.Run("non string rejected", func(t *testing.T) {
		_, issues := UserPatchSchema.Decode([]byte(`{"first_name":42}`))
		assert.JSONEq(t, `[{"type":"string_type","loc":["body","data","first_name"],"msg":"Input should be a valid string"}]`, issuesJSON(t, issues))
	})

	t.Run("extra rejected", func(t *testing.T) {
		_, issues := UserPatchSchema.Decode([]byte(`{"password":"new_password","first_name":"newFirst","last_name":"newLast","extra_field":"extra_value"}`))
		assert.JSONEq(t, `[{"type":"extra_forbidden","loc":["body","data","extra_field"],"msg":"Extra inputs are not permitted"}]`, issuesJSON(t, issues))
	})
}

func TestLoginSchema_RequiredNull(t *testing.T) {
	_, issues := LoginSchema.Decode([]byte(`{"username":null,"password":""}`))
	require.Len(t, issues, 1)
	assert.Equal(t, IssueStringType, issues[0].Type)
}

func TestIssues_Error(t *testing.T) {
	_, issues := LoginSchema.Decode([]byte(`{}`))
	var err error = issues
	assert.Contains(t, err.Error(), "Field required")
	assert.True(t, strings.HasPrefix(err.Error(), "validation failed: "))
}

func TestValidUsername(t *testing.T) {
	for _, ok := range []string{"test", "user-name", "user_name", "User123", "ab"} {
		assert.True(t, ValidUsername(ok), ok)
	}
	for _, bad := range []string{"test:username", "", "with space", "dot.name", "ünï"} {
		assert.False(t, ValidUsername(bad), bad)
	}
}

func TestQueryIntIssue(t *testing.T) {
	issue := QueryIntIssue("limit", "-5")
	assert.Equal(t, IssueGreaterEqual, issue.Type)
	assert.Equal(t, []interface{}{"query", "limit"}, issue.Loc)

	issue = QueryIntIssue("offset", "ten")
	assert.Equal(t, IssueIntParsing, issue.Type)
	assert.Equal(t, []interface{}{"query", "offset"}, issue.Loc)
}
