package cost

import (
	"strings"

	language "github.com/hanpama/costgraph/internal/language"
	schema "github.com/hanpama/costgraph/internal/schema"
)

// fieldCoordinate addresses a field definition by parent type and field name.
type fieldCoordinate struct {
	Type  string
	Field string
}

// Schema wraps a directive-preserving schema with the precomputed views the
// scorers need: per-field cost, list-size, and requires annotations, resolved
// through the schema's directive name aliases. A Schema is immutable after
// construction and safe to share across concurrent scoring passes.
type Schema struct {
	base           *schema.Schema
	directiveNames map[string]string
	fieldCosts     map[fieldCoordinate]*CostDirective
	fieldListSizes map[fieldCoordinate]*ListSizeDirective
	fieldRequires  map[fieldCoordinate]language.SelectionSet
}

// NewSchema builds the cost view of the given schema. Malformed cost
// annotations are rejected here rather than at scoring time.
func NewSchema(base *schema.Schema) (*Schema, error) {
	s := &Schema{
		base:           base,
		directiveNames: directiveNameMap(base),
		fieldCosts:     map[fieldCoordinate]*CostDirective{},
		fieldListSizes: map[fieldCoordinate]*ListSizeDirective{},
		fieldRequires:  map[fieldCoordinate]language.SelectionSet{},
	}
	for _, t := range base.Types {
		if t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface {
			continue
		}
		for _, f := range t.Fields {
			coord := fieldCoordinate{Type: t.Name, Field: f.Name}
			costDir, err := s.costDirectiveFor(f.Directives, f.Type.GetNamedType())
			if err != nil {
				return nil, err
			}
			if costDir != nil {
				s.fieldCosts[coord] = costDir
			}
			if d := f.Directives.ForName(s.localName(listSizeDirectiveName)); d != nil {
				listDir, err := parseListSizeDirective(d)
				if err != nil {
					return nil, err
				}
				s.fieldListSizes[coord] = listDir
			}
			if d := f.Directives.ForName(s.localName(requiresDirectiveName)); d != nil {
				sel, err := parseRequiresDirective(d)
				if err != nil {
					return nil, err
				}
				s.fieldRequires[coord] = sel
			}
		}
	}
	return s, nil
}

// localName resolves a canonical directive name through @link renames.
func (s *Schema) localName(canonical string) string {
	if local, ok := s.directiveNames[canonical]; ok {
		return local
	}
	return canonical
}

// costDirectiveFor resolves @cost on a definition's own directives, falling
// back to the directive on its named type: the annotation may be attached at
// either position.
func (s *Schema) costDirectiveFor(own language.DirectiveList, typeName string) (*CostDirective, error) {
	name := s.localName(costDirectiveName)
	d := own.ForName(name)
	if d == nil {
		if t, ok := s.base.Types[typeName]; ok {
			d = t.Directives.ForName(name)
		}
	}
	if d == nil {
		return nil, nil
	}
	return parseCostDirective(d)
}

// TypeField resolves a field definition on the full schema view. The lookup
// must not go through a client-facing (directive-stripped) schema.
func (s *Schema) TypeField(parentType, fieldName string) (*schema.Field, error) {
	t, ok := s.base.Types[parentType]
	if !ok {
		return nil, mismatchf("type %s was referenced in the query but is missing from the schema", parentType)
	}
	f := t.GetField(fieldName)
	if f == nil {
		f = s.base.MetaField(t, fieldName)
	}
	if f == nil {
		return nil, mismatchf("field %s.%s was found in the query but is missing from the schema", parentType, fieldName)
	}
	return f, nil
}

// TypeDef returns the named type's definition, or nil.
func (s *Schema) TypeDef(name string) *schema.Type { return s.base.Types[name] }

// RootOperationType returns the root type name for the operation kind, or "".
func (s *Schema) RootOperationType(op language.Operation) string {
	return s.base.RootOperationType(op)
}

// FieldCost returns the resolved cost directive for a field, or nil.
func (s *Schema) FieldCost(parentType, fieldName string) *CostDirective {
	return s.fieldCosts[fieldCoordinate{Type: parentType, Field: fieldName}]
}

// FieldListSize returns the list-size directive declared on a field, or nil.
func (s *Schema) FieldListSize(parentType, fieldName string) *ListSizeDirective {
	return s.fieldListSizes[fieldCoordinate{Type: parentType, Field: fieldName}]
}

// FieldRequires returns the selection set a federated field requires, or nil.
func (s *Schema) FieldRequires(parentType, fieldName string) language.SelectionSet {
	return s.fieldRequires[fieldCoordinate{Type: parentType, Field: fieldName}]
}

// ArgumentCost resolves the cost directive attached to an argument or input
// field definition, falling back to its named type's directive.
func (s *Schema) ArgumentCost(def *schema.InputValue) (*CostDirective, error) {
	return s.costDirectiveFor(def.Directives, def.Type.GetNamedType())
}

func parseRequiresDirective(d *language.Directive) (language.SelectionSet, error) {
	arg := d.Arguments.ForName("fields")
	if arg == nil {
		return nil, mismatchf("directive @%s is missing its fields argument", d.Name)
	}
	sel, err := language.ParseSelectionSet(arg.Value.Raw)
	if err != nil {
		return nil, mismatchf("directive @%s has an unparsable selection %q: %v", d.Name, arg.Value.Raw, err)
	}
	return sel, nil
}

// directiveNameMap builds the canonical-to-local directive name map from
// schema-level @link imports. An import entry is either a "@name" string or
// an {name: "@name", as: "@renamed"} object.
func directiveNameMap(base *schema.Schema) map[string]string {
	names := map[string]string{}
	for _, d := range base.AppliedDirectives {
		if d.Name != "link" {
			continue
		}
		imports := d.Arguments.ForName("import")
		if imports == nil || imports.Value == nil {
			continue
		}
		for _, child := range imports.Value.Children {
			switch child.Value.Kind {
			case language.StringValue:
				if name, ok := directiveImportName(child.Value.Raw); ok {
					names[name] = name
				}
			case language.ObjectValue:
				var canonical, local string
				for _, f := range child.Value.Children {
					switch f.Name {
					case "name":
						canonical, _ = directiveImportName(f.Value.Raw)
					case "as":
						local, _ = directiveImportName(f.Value.Raw)
					}
				}
				if canonical != "" {
					if local == "" {
						local = canonical
					}
					names[canonical] = local
				}
			}
		}
	}
	return names
}

func directiveImportName(raw string) (string, bool) {
	if strings.HasPrefix(raw, "@") {
		return raw[1:], true
	}
	return "", false
}
