package tmpl

// Code classifies parse and render errors.
type Code int

const (
	CodeUnknown Code = iota

	// Parse errors.
	CodeUnterminatedSection
	CodeUnterminatedExpression
	CodeUnterminatedStringLiteral
	CodeUnterminatedComment
	CodeUnterminatedCdata
	CodeNoSectionHelperFound
	CodeSectionEndDoesNotMatchStart
	CodeSectionStartNotFound
	CodeSectionBlockEndDoesNotMatchStart
	CodeMandatorySectionParamsMissing
	CodeInvalidParamDeclaration
	CodeInvalidExpression
	CodeInvalidVirtualMethod
	CodeInvalidBracketExpression
	CodeInvalidNamespace
	CodeInvalidSectionParams
	CodeDuplicateParameter
	CodeEmptyExpression

	// Render errors.
	CodeNamespaceResolverNotFound
	CodePropertyNotFound
	CodeIterationError
	CodeIncomparableValues
	CodeTemplateNotFound
	CodeRenderTimeout
	CodeResolverFailure
)

// String returns the conventional upper snake case name of the code.
func (c Code) String() string {
	switch c {
	case CodeUnterminatedSection:
		return "UNTERMINATED_SECTION"
	case CodeUnterminatedExpression:
		return "UNTERMINATED_EXPRESSION"
	case CodeUnterminatedStringLiteral:
		return "UNTERMINATED_STRING_LITERAL"
	case CodeUnterminatedComment:
		return "UNTERMINATED_COMMENT"
	case CodeUnterminatedCdata:
		return "UNTERMINATED_CDATA"
	case CodeNoSectionHelperFound:
		return "NO_SECTION_HELPER_FOUND"
	case CodeSectionEndDoesNotMatchStart:
		return "SECTION_END_DOES_NOT_MATCH_START"
	case CodeSectionStartNotFound:
		return "SECTION_START_NOT_FOUND"
	case CodeSectionBlockEndDoesNotMatchStart:
		return "SECTION_BLOCK_END_DOES_NOT_MATCH_START"
	case CodeMandatorySectionParamsMissing:
		return "MANDATORY_SECTION_PARAMS_MISSING"
	case CodeInvalidParamDeclaration:
		return "INVALID_PARAM_DECLARATION"
	case CodeInvalidExpression:
		return "INVALID_EXPRESSION"
	case CodeInvalidVirtualMethod:
		return "INVALID_VIRTUAL_METHOD"
	case CodeInvalidBracketExpression:
		return "INVALID_BRACKET_EXPRESSION"
	case CodeInvalidNamespace:
		return "INVALID_NAMESPACE"
	case CodeInvalidSectionParams:
		return "INVALID_SECTION_PARAMS"
	case CodeDuplicateParameter:
		return "DUPLICATE_PARAMETER"
	case CodeEmptyExpression:
		return "EMPTY_EXPRESSION"
	case CodeNamespaceResolverNotFound:
		return "NAMESPACE_RESOLVER_NOT_FOUND"
	case CodePropertyNotFound:
		return "PROPERTY_NOT_FOUND"
	case CodeIterationError:
		return "ITERATION_ERROR"
	case CodeIncomparableValues:
		return "INCOMPARABLE_VALUES"
	case CodeTemplateNotFound:
		return "TEMPLATE_NOT_FOUND"
	case CodeRenderTimeout:
		return "RENDER_TIMEOUT"
	case CodeResolverFailure:
		return "RESOLVER_FAILURE"
	default:
		return "UNKNOWN"
	}
}

// IsParseError reports whether c is raised while parsing a template.
func (c Code) IsParseError() bool {
	return c >= CodeUnterminatedSection && c <= CodeEmptyExpression
}
