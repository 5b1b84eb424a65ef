package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theTechGoose/rune/notation"
)

func errorMessages(diags []notation.Diagnostic) []string {
	var msgs []string
	for _, d := range diags {
		if d.Severity == notation.SeverityError {
			msgs = append(msgs, d.Message)
		}
	}
	return msgs
}

func TestParseRequirement(t *testing.T) {
	doc, diags := Parse(`[REQ] user.create(UserDto): ProfileDto
    mapper.toProfile(user): profile
    db: repo.save(profile): ProfileDto
      connection-refused
    [RET] ProfileDto
`)
	assert.Empty(t, errorMessages(diags))
	require.Len(t, doc.Requirements, 1)

	req := doc.Requirements[0]
	assert.Equal(t, "user", req.Noun)
	assert.Equal(t, "create", req.Verb)
	require.NotNil(t, req.Input)
	assert.Equal(t, "UserDto", req.Input.Name)
	assert.Equal(t, "ProfileDto", req.Output.String())
	require.Len(t, req.Steps, 3)

	assert.Equal(t, notation.StepCall, req.Steps[0].Kind)
	assert.Equal(t, "mapper", req.Steps[0].Noun)
	assert.Equal(t, "toProfile", req.Steps[0].Verb)
	assert.False(t, req.Steps[0].Static)

	boundary := req.Steps[1]
	assert.Equal(t, notation.StepBoundary, boundary.Kind)
	assert.Equal(t, "db", boundary.Boundary)
	require.Len(t, boundary.Faults, 1)
	assert.Equal(t, "connection-refused", boundary.Faults[0].Name)

	assert.Equal(t, notation.StepReturn, req.Steps[2].Kind)
	assert.Equal(t, "ProfileDto", req.Steps[2].Value)
}

func TestParseStaticCallAndInlineInput(t *testing.T) {
	doc, diags := Parse(`[REQ] account.link({providerName, externalId}): id
    Account::derive({providerName, externalId}): id
    [RET] id
`)
	assert.Empty(t, errorMessages(diags))
	require.Len(t, doc.Requirements, 1)

	req := doc.Requirements[0]
	require.NotNil(t, req.Input)
	assert.Empty(t, req.Input.Name)
	assert.Equal(t, []string{"providerName", "externalId"}, req.Input.Inline)

	step := req.Steps[0]
	assert.True(t, step.Static)
	assert.Equal(t, "Account", step.Noun)
	require.Len(t, step.Params, 1)
	assert.Equal(t, []string{"providerName", "externalId"}, step.Params[0].Inline)
}

func TestParseContractAndTypeDefinitions(t *testing.T) {
	doc, diags := Parse(`[DTO] UserDto: name, url(s), nickname?
    the user as submitted by the client

[TYP] id: string
    opaque identity token
`)
	assert.Empty(t, errorMessages(diags))

	require.Len(t, doc.Contracts, 1)
	dto := doc.Contracts[0]
	assert.Equal(t, "UserDto", dto.Name)
	assert.Equal(t, "the user as submitted by the client", dto.Description)
	require.Len(t, dto.Properties, 3)
	assert.Equal(t, "name", dto.Properties[0].Ref)
	assert.True(t, dto.Properties[1].Array)
	assert.Equal(t, "url", dto.Properties[1].Ref)
	assert.True(t, dto.Properties[2].Optional)
	assert.Equal(t, "nickname", dto.Properties[2].Ref)

	require.Len(t, doc.Types, 1)
	assert.Equal(t, "id", doc.Types[0].Name)
	assert.Equal(t, "string", doc.Types[0].Underlying.String())
	assert.Equal(t, "opaque identity token", doc.Types[0].Description)
}

func TestContractMissingDescription(t *testing.T) {
	_, diags := Parse("[DTO] UserDto: name, email\n")
	msgs := errorMessages(diags)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "missing its description")
}

func TestParsePolymorphicBlock(t *testing.T) {
	doc, diags := Parse(`[REQ] provider.fetch(QueryDto): ResultDto
    [PLY] provider.get(query): ResultDto
        [CSE] cached
        cache.lookup(query): ResultDto
        [CSE] remote
        ex: api.call(query): ResultDto
          timeout
    [RET] ResultDto
`)
	assert.Empty(t, errorMessages(diags))
	require.Len(t, doc.Requirements, 1)

	req := doc.Requirements[0]
	require.Len(t, req.Steps, 2)
	poly := req.Steps[0]
	assert.Equal(t, notation.StepPoly, poly.Kind)
	require.Len(t, poly.Cases, 2)

	assert.Equal(t, "cached", poly.Cases[0].Name)
	require.Len(t, poly.Cases[0].Steps, 1)
	assert.Equal(t, "cache", poly.Cases[0].Steps[0].Noun)

	assert.Equal(t, "remote", poly.Cases[1].Name)
	require.Len(t, poly.Cases[1].Steps, 1)
	remote := poly.Cases[1].Steps[0]
	assert.Equal(t, notation.StepBoundary, remote.Kind)
	assert.Equal(t, "ex", remote.Boundary)
	require.Len(t, remote.Faults, 1)

	// The block closed implicitly: [RET] landed back on the requirement.
	assert.Equal(t, notation.StepReturn, req.Steps[1].Kind)
}

func TestCaseOutsidePolymorphicBlock(t *testing.T) {
	_, diags := Parse(`[REQ] user.create(UserDto): ProfileDto
        [CSE] stray
`)
	msgs := errorMessages(diags)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "[CSE] outside")
}

func TestFaultWithNoPrecedingStep(t *testing.T) {
	_, diags := Parse(`[REQ] user.create(UserDto): ProfileDto
      connection-refused
`)
	msgs := errorMessages(diags)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "fault list with no preceding step")
}

func TestDuplicateFaultOnStep(t *testing.T) {
	_, diags := Parse(`[REQ] user.create(UserDto): ProfileDto
    db: repo.save(user): ProfileDto
      connection-refused connection-refused
`)
	msgs := errorMessages(diags)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "duplicate fault")

	for _, d := range diags {
		if d.Severity == notation.SeverityError {
			require.NotNil(t, d.Related, "duplicate cites the first occurrence")
		}
	}
}

func TestSignatureWithoutParameterListIsAnError(t *testing.T) {
	// A balanced line missing its (params) must fail on its own line, not
	// open a continuation that swallows the following step.
	doc, diags := Parse(`[REQ] user.update(UserDto): ProfileDto
    user.save: void
    Account::derive(name): ProfileDto
    [RET] ProfileDto
`)
	msgs := errorMessages(diags)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "missing parameter list")

	require.Len(t, doc.Requirements, 1)
	req := doc.Requirements[0]
	require.Len(t, req.Steps, 2)
	assert.Equal(t, "Account", req.Steps[0].Noun)
	assert.Equal(t, "derive", req.Steps[0].Verb)
	assert.Equal(t, notation.StepReturn, req.Steps[1].Kind)
}

func TestMultilineSignature(t *testing.T) {
	doc, diags := Parse(`[REQ] report.build(RequestDto): ReportDto
    builder.assemble(
    request,
    options: Record<string, string>
    ): ReportDto
    [RET] ReportDto
`)
	assert.Empty(t, errorMessages(diags))
	require.Len(t, doc.Requirements, 1)

	req := doc.Requirements[0]
	require.Len(t, req.Steps, 2)
	step := req.Steps[0]
	assert.Equal(t, "builder", step.Noun)
	require.Len(t, step.Params, 2)
	assert.Equal(t, "request", step.Params[0].Name)
	assert.Equal(t, "options", step.Params[1].Name)
	assert.Equal(t, "Record<string, string>", step.Params[1].Type.String())
	assert.Equal(t, 1, step.Span.Start.Line)
	assert.Equal(t, 4, step.Span.End.Line)
}

func TestMultilineSignatureIndentMismatch(t *testing.T) {
	_, diags := Parse(`[REQ] report.build(RequestDto): ReportDto
    builder.assemble(
      request
    ): ReportDto
`)
	msgs := errorMessages(diags)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "inconsistent indentation")
}

func TestTagAtWrongIndent(t *testing.T) {
	_, diags := Parse("    [REQ] user.create(UserDto): ProfileDto\n")
	msgs := errorMessages(diags)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "column 0")
}

func TestStepOutsideRequirement(t *testing.T) {
	_, diags := Parse("    mapper.toProfile(user): profile\n")
	msgs := errorMessages(diags)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "outside a requirement block")
}

func TestResyncSkipsBrokenSubtree(t *testing.T) {
	doc, diags := Parse(`[REQ] user.create(UserDto): ProfileDto
    ???garbage???
        nested.under(garbage): X
    mapper.toProfile(user): profile
    [RET] profile
`)
	msgs := errorMessages(diags)
	require.Len(t, msgs, 1, "only the uninterpretable line is reported")

	require.Len(t, doc.Requirements, 1)
	require.Len(t, doc.Requirements[0].Steps, 2, "subtree under the bad line is discarded")
	assert.Equal(t, "mapper", doc.Requirements[0].Steps[0].Noun)
}

func TestDoubleBlankBetweenRequirements(t *testing.T) {
	_, diags := Parse(`[REQ] user.create(UserDto): ProfileDto
    [RET] ProfileDto

[REQ] user.delete(UserDto): void
    [RET] void
`)
	var warnings []string
	for _, d := range diags {
		if d.Severity == notation.SeverityWarning {
			warnings = append(warnings, d.Message)
		}
	}
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "double blank line")
}

func TestCommentsAreIgnored(t *testing.T) {
	doc, diags := Parse(`// pipeline for account linking
[REQ] user.create(UserDto): ProfileDto
    mapper.toProfile(user): profile // inline note
    [RET] profile
`)
	assert.Empty(t, errorMessages(diags))
	require.Len(t, doc.Requirements, 1)
	require.Len(t, doc.Requirements[0].Steps, 2)
	assert.Equal(t, "profile", doc.Requirements[0].Steps[0].Return.String())
}

func TestConstructorStep(t *testing.T) {
	doc, diags := Parse(`[REQ] vault.open(KeyDto): Storage
    [CTR] Storage
    [RET] Storage
`)
	assert.Empty(t, errorMessages(diags))
	req := doc.Requirements[0]
	require.Len(t, req.Steps, 2)
	assert.Equal(t, notation.StepConstructor, req.Steps[0].Kind)
	assert.Equal(t, "Storage", req.Steps[0].Value)
}
