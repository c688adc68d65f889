package cost

import (
	language "github.com/hanpama/costgraph/internal/language"
	schema "github.com/hanpama/costgraph/internal/schema"
)

// scoreArgument prices a literal argument value against its declared type,
// independent of the enclosing field.
func scoreArgument(value *language.Value, def *schema.InputValue, s *Schema) (float64, error) {
	costDir, err := s.ArgumentCost(def)
	if err != nil {
		return 0, err
	}
	ty := s.TypeDef(def.Type.GetNamedType())
	if ty == nil {
		return 0, mismatchf(
			"argument %s was found in the query, but its type (%s) was not found in the schema",
			def.Name, def.Type.GetNamedType())
	}

	switch ty.Kind {
	case schema.TypeKindInterface, schema.TypeKindObject, schema.TypeKindUnion:
		// Output types cannot legally appear in input position; a schema
		// that puts one there is unscoreable.
		return 0, mismatchf(
			"argument %s has type %s, but objects, interfaces, and unions are disallowed in this position",
			def.Name, def.Type.GetNamedType())
	}

	switch {
	case value.Kind == language.ObjectValue && ty.Kind == schema.TypeKindInputObject:
		cost := costDir.weightOr(1.0)
		for _, field := range value.Children {
			fieldDef := ty.GetInputField(field.Name)
			if fieldDef == nil {
				return 0, mismatchf(
					"input field %s of argument %s was found in the query, but is missing from input type %s",
					field.Name, def.Name, ty.Name)
			}
			inner, err := scoreArgument(field.Value, fieldDef, s)
			if err != nil {
				return 0, err
			}
			cost += inner
		}
		return cost, nil
	case value.Kind == language.ListValue:
		// The list wrapper does not change the per-element type.
		cost := costDir.weightOr(0.0)
		for _, item := range value.Children {
			inner, err := scoreArgument(item.Value, def, s)
			if err != nil {
				return 0, err
			}
			cost += inner
		}
		return cost, nil
	case value.Kind == language.NullValue:
		return 0.0, nil
	default:
		return costDir.weightOr(0.0), nil
	}
}
