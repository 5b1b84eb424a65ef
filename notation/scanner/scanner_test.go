package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classify(t *testing.T, raw string, ctx Context) Line {
	t.Helper()
	line, err := Classify(raw, 0, ctx)
	require.NoError(t, err)
	return line
}

func TestClassifyBlankAndComment(t *testing.T) {
	assert.Equal(t, KindBlank, classify(t, "", Context{}).Kind)
	assert.Equal(t, KindBlank, classify(t, "    ", Context{}).Kind)
	assert.Equal(t, KindComment, classify(t, "// top note", Context{}).Kind)
	assert.Equal(t, KindComment, classify(t, "    // step note", Context{}).Kind)
}

func TestClassifyStructural(t *testing.T) {
	cases := []string{
		"[REQ] user.create(UserDto): ProfileDto",
		"    [PLY] router.route(request): ResponseDto",
		"        [CSE] cached",
		"    [RET] profile",
		"[DTO] UserDto: name, email",
		"[TYP] url: string",
		"    db: repo.save(profile): ProfileDto",
		"    mapper.toProfile(user): profile",
	}
	for _, raw := range cases {
		line := classify(t, raw, Context{StepIndent: 0})
		assert.Equal(t, KindStructural, line.Kind, "line %q", raw)
	}
}

func TestClassifyFaultList(t *testing.T) {
	ctx := Context{StepIndent: 4}

	line := classify(t, "      connection refused", ctx)
	assert.Equal(t, KindFaultList, line.Kind)
	assert.Equal(t, 6, line.Indent)
	assert.Equal(t, "connection refused", line.Text)

	line = classify(t, "      retry-limit exceeded 3", ctx)
	assert.Equal(t, KindFaultList, line.Kind)
}

func TestFaultListNeedsAStep(t *testing.T) {
	// Same shape, but nothing to attach to.
	_, err := Classify("      connection refused", 0, Context{})
	assert.Error(t, err)
}

func TestFaultListMustSitPastTheStep(t *testing.T) {
	// At the step's own indent this is not a fault line; with no other
	// shape available classification fails.
	_, err := Classify("    connection refused", 0, Context{StepIndent: 4})
	assert.Error(t, err)
}

func TestFaultListRejectsUppercaseAndDigitsOnly(t *testing.T) {
	_, err := Classify("      Connection Refused", 0, Context{StepIndent: 4})
	assert.Error(t, err)
	_, err = Classify("      404", 0, Context{StepIndent: 4})
	assert.Error(t, err)
}

func TestClassifyDescription(t *testing.T) {
	ctx := Context{Expect: ExpectContractDescription}
	line := classify(t, "    the user as stored, without credentials", ctx)
	assert.Equal(t, KindDescription, line.Kind)
}

func TestDescriptionOnlyWhenExpected(t *testing.T) {
	_, err := Classify("    the user as stored", 0, Context{})
	assert.Error(t, err)
}

func TestDescriptionRejectsCodeShapes(t *testing.T) {
	ctx := Context{Expect: ExpectTypeDescription}
	for _, raw := range []string{
		"    db: repo.save(user): UserDto", // boundary prefix
		"    return(user)",                 // return call
		"    mapper.convert(user): dto",    // dotted call
	} {
		line, err := Classify(raw, 0, ctx)
		if err == nil {
			assert.NotEqual(t, KindDescription, line.Kind, "line %q", raw)
		}
	}
}

func TestDescriptionIndentIsExact(t *testing.T) {
	ctx := Context{Expect: ExpectTypeDescription}
	_, err := Classify("      too deep for a description", 0, ctx)
	assert.Error(t, err)
}

func TestClassifyRejectsTabs(t *testing.T) {
	_, err := Classify("\tmapper.convert(user): dto", 0, Context{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tab")
}

func TestIndentAndTextExtraction(t *testing.T) {
	line := classify(t, "    mapper.toProfile(user): profile  ", Context{})
	assert.Equal(t, 4, line.Indent)
	assert.Equal(t, "mapper.toProfile(user): profile", line.Text)
}
