package notation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTypeExprNames(t *testing.T) {
	expr := ParseTypeExpr("ProfileDto", Span{})
	require.NotNil(t, expr)
	assert.Equal(t, TypeName, expr.Kind)
	assert.Equal(t, "ProfileDto", expr.Name)

	assert.Nil(t, ParseTypeExpr("   ", Span{}))
}

func TestParseTypeExprGenerics(t *testing.T) {
	expr := ParseTypeExpr("Record<string, UserDto>", Span{})
	require.Equal(t, TypeGeneric, expr.Kind)
	assert.Equal(t, "Record", expr.Name)
	require.Len(t, expr.Args, 2)
	assert.Equal(t, "string", expr.Args[0].Name)
	assert.Equal(t, "UserDto", expr.Args[1].Name)
	assert.Equal(t, "Record<string, UserDto>", expr.String())
}

func TestParseTypeExprNestedGenerics(t *testing.T) {
	expr := ParseTypeExpr("Map<string, Array<UserDto>>", Span{})
	require.Equal(t, TypeGeneric, expr.Kind)
	require.Len(t, expr.Args, 2)
	assert.Equal(t, TypeGeneric, expr.Args[1].Kind)
	assert.Equal(t, "Array", expr.Args[1].Name)
}

func TestParseTypeExprArraySuffix(t *testing.T) {
	expr := ParseTypeExpr("UrlDto[]", Span{})
	require.Equal(t, TypeArray, expr.Kind)
	assert.Equal(t, "UrlDto", expr.Elem.Name)
	assert.Equal(t, "UrlDto[]", expr.String())
}

func TestParseTypeExprTuple(t *testing.T) {
	expr := ParseTypeExpr("[id, name]", Span{})
	require.Equal(t, TypeTuple, expr.Kind)
	require.Len(t, expr.Args, 2)
	assert.Equal(t, "[id, name]", expr.String())
}

func TestParseTypeExprEnum(t *testing.T) {
	expr := ParseTypeExpr(`"draft" | "published" | "archived"`, Span{})
	require.Equal(t, TypeEnum, expr.Kind)
	assert.Equal(t, []string{"draft", "published", "archived"}, expr.Literals)
	assert.Equal(t, `"draft" | "published" | "archived"`, expr.String())
}

func TestParseTypeExprUnion(t *testing.T) {
	expr := ParseTypeExpr(`UserDto | "anonymous"`, Span{})
	require.Equal(t, TypeUnion, expr.Kind)
	require.Len(t, expr.Args, 2)
	assert.Equal(t, TypeName, expr.Args[0].Kind)
	assert.Equal(t, TypeEnum, expr.Args[1].Kind)
}

func TestPrimitivesAndArity(t *testing.T) {
	for _, name := range []string{"string", "number", "boolean", "void", "Uint8Array", "Class", "Primitive"} {
		assert.True(t, IsPrimitive(name), name)
	}
	assert.False(t, IsPrimitive("UserDto"))

	n, ok := GenericArity("Record")
	assert.True(t, ok)
	assert.Equal(t, 2, n)
	_, ok = GenericArity("Banana")
	assert.False(t, ok)
}

func TestContractSuffix(t *testing.T) {
	assert.True(t, HasContractSuffix("UserDto"))
	assert.False(t, HasContractSuffix("Dto"))
	assert.False(t, HasContractSuffix("id"))
}

func TestSpanContains(t *testing.T) {
	span := LineSpan(3, 4, 10)
	assert.True(t, span.Contains(Position{Line: 3, Column: 4}))
	assert.True(t, span.Contains(Position{Line: 3, Column: 10}), "end is inclusive for cursor hits")
	assert.False(t, span.Contains(Position{Line: 3, Column: 11}))
	assert.False(t, span.Contains(Position{Line: 2, Column: 5}))
}

func TestSortDiagnosticsIsDeterministic(t *testing.T) {
	diags := []Diagnostic{
		Warnf(LineSpan(5, 0, 3), "later warning"),
		Errorf(LineSpan(2, 4, 8), "b message"),
		Errorf(LineSpan(2, 4, 8), "a message"),
		Warnf(LineSpan(2, 4, 8), "a message"),
	}
	SortDiagnostics(diags)

	assert.Equal(t, "a message", diags[0].Message)
	assert.Equal(t, SeverityError, diags[0].Severity)
	assert.Equal(t, "b message", diags[1].Message)
	assert.Equal(t, SeverityWarning, diags[2].Severity)
	assert.Equal(t, "later warning", diags[3].Message)
}
