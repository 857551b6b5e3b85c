// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package pyast

// Kind is a closed tag over the Python grammar node types the analyzer
// dispatches on.
//
// Description:
//
//	Resolution strategies switch exhaustively on Kind instead of comparing
//	raw grammar strings at every call site. Node types the analyzer has no
//	behavior for map to KindOther; the nil node maps to KindNil.
type Kind int

const (
	// KindNil is the zero Node.
	KindNil Kind = iota

	// KindModule is the top-level module node.
	KindModule

	// KindIdentifier is a bare name.
	KindIdentifier

	// KindAttribute is a dotted access (receiver.attr).
	KindAttribute

	// KindCall is a call expression.
	KindCall

	// KindAssignment is an assignment statement, annotated or not.
	KindAssignment

	// KindAugmentedAssignment is an in-place assignment (x += 1).
	KindAugmentedAssignment

	// KindTypedParameter is a parameter with an annotation.
	KindTypedParameter

	// KindTypedDefaultParameter is an annotated parameter with a default.
	KindTypedDefaultParameter

	// KindDefaultParameter is an unannotated parameter with a default.
	KindDefaultParameter

	// KindFunctionDef is a (possibly async) function or method definition.
	KindFunctionDef

	// KindClassDef is a class definition.
	KindClassDef

	// KindDecoratedDef wraps a definition with its decorators.
	KindDecoratedDef

	// KindBooleanOperator is an `and`/`or` chain.
	KindBooleanOperator

	// KindBinaryOperator is an arithmetic/bitwise binary expression.
	KindBinaryOperator

	// KindComparisonOperator is a comparison chain (always bool).
	KindComparisonOperator

	// KindNotOperator is a unary `not` (always bool).
	KindNotOperator

	// KindSubscript is a subscripted expression (generics in annotations).
	KindSubscript

	// KindString is a string literal (including f-strings).
	KindString

	// KindInteger is an integer literal.
	KindInteger

	// KindFloat is a float literal.
	KindFloat

	// KindTrue and KindFalse are the boolean literals.
	KindTrue
	KindFalse

	// KindNone is the None literal.
	KindNone

	// KindList, KindDict, KindSet, KindTuple are container displays,
	// comprehensions included.
	KindList
	KindDict
	KindSet
	KindTuple

	// KindImport is a plain `import a.b` statement.
	KindImport

	// KindImportFrom is a `from a import b` statement.
	KindImportFrom

	// KindExpressionStatement wraps a bare expression or assignment.
	KindExpressionStatement

	// KindBlock is an indented suite.
	KindBlock

	// KindArgumentList is a call's argument list.
	KindArgumentList

	// KindKeywordArgument is a `name=value` call argument.
	KindKeywordArgument

	// KindReturn is a return statement.
	KindReturn

	// KindParenthesized is a parenthesized expression.
	KindParenthesized

	// KindConditional is a ternary expression.
	KindConditional

	// KindType is the wrapper the grammar puts around every annotation:
	// the `type` field of typed parameters and assignments, and the
	// return_type field of function definitions.
	KindType

	// KindOther is any node type the analyzer has no behavior for.
	KindOther
)

// String returns the tag name for logging.
func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindModule:
		return "module"
	case KindIdentifier:
		return "identifier"
	case KindAttribute:
		return "attribute"
	case KindCall:
		return "call"
	case KindAssignment:
		return "assignment"
	case KindAugmentedAssignment:
		return "augmented_assignment"
	case KindTypedParameter:
		return "typed_parameter"
	case KindTypedDefaultParameter:
		return "typed_default_parameter"
	case KindDefaultParameter:
		return "default_parameter"
	case KindFunctionDef:
		return "function_definition"
	case KindClassDef:
		return "class_definition"
	case KindDecoratedDef:
		return "decorated_definition"
	case KindBooleanOperator:
		return "boolean_operator"
	case KindBinaryOperator:
		return "binary_operator"
	case KindComparisonOperator:
		return "comparison_operator"
	case KindNotOperator:
		return "not_operator"
	case KindSubscript:
		return "subscript"
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindTrue:
		return "true"
	case KindFalse:
		return "false"
	case KindNone:
		return "none"
	case KindList:
		return "list"
	case KindDict:
		return "dictionary"
	case KindSet:
		return "set"
	case KindTuple:
		return "tuple"
	case KindImport:
		return "import_statement"
	case KindImportFrom:
		return "import_from_statement"
	case KindExpressionStatement:
		return "expression_statement"
	case KindBlock:
		return "block"
	case KindArgumentList:
		return "argument_list"
	case KindKeywordArgument:
		return "keyword_argument"
	case KindReturn:
		return "return_statement"
	case KindParenthesized:
		return "parenthesized_expression"
	case KindConditional:
		return "conditional_expression"
	case KindType:
		return "type"
	default:
		return "other"
	}
}

// kindOf maps a tree-sitter-python node type string to its Kind tag.
//
// Reference: https://github.com/tree-sitter/tree-sitter-python/blob/master/src/grammar.json
func kindOf(nodeType string) Kind {
	switch nodeType {
	case "module":
		return KindModule
	case "identifier":
		return KindIdentifier
	case "attribute":
		return KindAttribute
	case "call":
		return KindCall
	case "assignment":
		return KindAssignment
	case "augmented_assignment":
		return KindAugmentedAssignment
	case "typed_parameter":
		return KindTypedParameter
	case "typed_default_parameter":
		return KindTypedDefaultParameter
	case "default_parameter":
		return KindDefaultParameter
	case "function_definition":
		return KindFunctionDef
	case "class_definition":
		return KindClassDef
	case "decorated_definition":
		return KindDecoratedDef
	case "boolean_operator":
		return KindBooleanOperator
	case "binary_operator":
		return KindBinaryOperator
	case "comparison_operator":
		return KindComparisonOperator
	case "not_operator":
		return KindNotOperator
	case "subscript":
		return KindSubscript
	case "string", "concatenated_string":
		return KindString
	case "integer":
		return KindInteger
	case "float":
		return KindFloat
	case "true":
		return KindTrue
	case "false":
		return KindFalse
	case "none":
		return KindNone
	case "list", "list_comprehension":
		return KindList
	case "dictionary", "dictionary_comprehension":
		return KindDict
	case "set", "set_comprehension":
		return KindSet
	case "tuple", "expression_list":
		return KindTuple
	case "import_statement":
		return KindImport
	case "import_from_statement":
		return KindImportFrom
	case "expression_statement":
		return KindExpressionStatement
	case "block":
		return KindBlock
	case "argument_list":
		return KindArgumentList
	case "keyword_argument":
		return KindKeywordArgument
	case "return_statement":
		return KindReturn
	case "parenthesized_expression":
		return KindParenthesized
	case "conditional_expression":
		return KindConditional
	case "type":
		return KindType
	default:
		return KindOther
	}
}
