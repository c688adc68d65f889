package language

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

func ParseQuery(source string) (*QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func ParseSchema(name, source string) (*SchemaDocument, error) {
	doc, err := parser.ParseSchema(&ast.Source{Name: name, Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseSelectionSet parses a bare selection-set source such as the argument of
// a federation @requires(fields: "...") directive.
func ParseSelectionSet(source string) (SelectionSet, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: "{" + source + "}"})
	if err != nil {
		return nil, err
	}
	if len(doc.Operations) != 1 {
		return nil, fmt.Errorf("expected a single selection set, got %d operations", len(doc.Operations))
	}
	return doc.Operations[0].SelectionSet, nil
}
