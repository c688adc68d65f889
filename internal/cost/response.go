package cost

import (
	json "github.com/goccy/go-json"
	language "github.com/hanpama/costgraph/internal/language"
	"go.uber.org/zap"
)

// Response is the JSON value tree of a received GraphQL response.
type Response struct {
	Data map[string]any `json:"data"`
}

// ResponseFromJSON decodes a raw GraphQL response body.
func ResponseFromJSON(body []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Actual walks the response in lock-step with the query and returns the cost
// actually incurred: list fields charge once per returned element rather
// than per estimate. Unresolvable fields are logged and skipped; actual cost
// is advisory and degrades to a partial result instead of aborting.
func (c *Calculator) Actual(doc *language.QueryDocument, response *Response) (float64, error) {
	visitor := &responseCostVisitor{
		schema: c.supergraph,
		doc:    doc,
		logger: c.logger,
	}
	visitor.visit(response)
	return visitor.cost, nil
}

type responseCostVisitor struct {
	schema *Schema
	doc    *language.QueryDocument
	logger *zap.Logger
	cost   float64
}

func (v *responseCostVisitor) visit(response *Response) {
	if response.Data == nil {
		return
	}
	for _, op := range v.doc.Operations {
		rootType := v.schema.RootOperationType(op.Operation)
		if rootType == "" {
			v.logger.Warn("schema does not support this root operation type; response cost will be a partial result",
				zap.String("operation", string(op.Operation)))
			continue
		}
		v.visitSelections(op.SelectionSet, rootType, response.Data)
	}
}

func (v *responseCostVisitor) visitSelections(selectionSet language.SelectionSet, parentType string, fields map[string]any) {
	for _, selection := range selectionSet {
		switch sel := selection.(type) {
		case *language.Field:
			key := sel.Alias
			if key == "" {
				key = sel.Name
			}
			if value, ok := fields[key]; ok {
				v.visitField(sel, parentType, value)
			}
		case *language.FragmentSpread:
			fragment := v.doc.Fragments.ForName(sel.Name)
			if fragment == nil {
				v.logger.Warn("response references an undefined fragment; response cost will be a partial result",
					zap.String("fragment", sel.Name))
				continue
			}
			fragmentType := fragment.TypeCondition
			if fragmentType == "" {
				fragmentType = parentType
			}
			v.visitSelections(fragment.SelectionSet, fragmentType, fields)
		case *language.InlineFragment:
			fragmentType := sel.TypeCondition
			if fragmentType == "" {
				fragmentType = parentType
			}
			v.visitSelections(sel.SelectionSet, fragmentType, fields)
		}
	}
}

func (v *responseCostVisitor) visitField(field *language.Field, parentType string, value any) {
	v.visitValue(field, parentType, value)

	definition, err := v.schema.TypeField(parentType, field.Name)
	if err != nil {
		if len(field.Arguments) > 0 {
			v.logger.Warn("failed to resolve field definition for argument scoring; response cost will be a partial result",
				zap.String("type", parentType),
				zap.String("field", field.Name))
		}
		return
	}
	for _, argument := range field.Arguments {
		argDef := definition.GetArgument(argument.Name)
		if argDef == nil {
			v.logger.Warn("failed to resolve argument definition; response cost will be a partial result",
				zap.String("field", field.Name),
				zap.String("argument", argument.Name))
			continue
		}
		if score, err := scoreArgument(argument.Value, argDef, v.schema); err == nil {
			v.cost += score
		}
	}
}

// visitValue charges one field value: scalars charge their annotated weight
// (default free), arrays charge per element, objects charge their weight
// (default 1) plus their children.
func (v *responseCostVisitor) visitValue(field *language.Field, parentType string, value any) {
	costDir := v.schema.FieldCost(parentType, field.Name)

	switch val := value.(type) {
	case []any:
		for _, item := range val {
			v.visitValue(field, parentType, item)
		}
	case map[string]any:
		v.cost += costDir.weightOr(1.0)
		definition, err := v.schema.TypeField(parentType, field.Name)
		if err != nil {
			v.logger.Warn("failed to resolve field definition; response cost will be a partial result",
				zap.String("type", parentType),
				zap.String("field", field.Name))
			return
		}
		v.visitSelections(field.SelectionSet, definition.Type.GetNamedType(), val)
	default:
		// Null, bool, number, or string leaf.
		v.cost += costDir.weightOr(0.0)
	}
}
