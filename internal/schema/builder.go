package schema

import (
	"fmt"

	language "github.com/hanpama/costgraph/internal/language"
)

// BuildFromSDL parses an SDL string and returns the corresponding Schema.
// Applied directives on type system definitions are preserved verbatim so
// that schema-declared annotations (cost, listSize, requires, link) remain
// visible to consumers; GraphQL visibility rules never strip them here.
func BuildFromSDL(sdl string) (*Schema, error) {
	doc, err := language.ParseSchema("schema.graphql", sdl)
	if err != nil {
		return nil, err
	}
	return BuildFromDocument(doc)
}

// BuildFromDocument builds a Schema from a parsed SDL document, merging type
// extensions into their base definitions.
func BuildFromDocument(doc *language.SchemaDocument) (*Schema, error) {
	s := &Schema{
		Types:      map[string]*Type{},
		Directives: map[string]*Directive{},
	}
	for _, t := range builtinTypes {
		s.Types[t.Name] = t
	}
	for _, d := range builtinDirectives {
		s.Directives[d.Name] = d
	}

	for _, def := range doc.Definitions {
		t, err := buildDefinition(def)
		if err != nil {
			return nil, err
		}
		s.Types[t.Name] = t
	}
	for _, ext := range doc.Extensions {
		base, ok := s.Types[ext.Name]
		if !ok {
			t, err := buildDefinition(ext)
			if err != nil {
				return nil, err
			}
			s.Types[t.Name] = t
			continue
		}
		if err := mergeExtension(base, ext); err != nil {
			return nil, err
		}
	}
	for _, dd := range doc.Directives {
		s.Directives[dd.Name] = buildDirectiveDefinition(dd)
	}

	for _, sd := range doc.Schema {
		s.Description = sd.Description
		s.AppliedDirectives = append(s.AppliedDirectives, sd.Directives...)
		for _, op := range sd.OperationTypes {
			setRootType(s, string(op.Operation), op.Type)
		}
	}
	for _, sd := range doc.SchemaExtension {
		s.AppliedDirectives = append(s.AppliedDirectives, sd.Directives...)
		for _, op := range sd.OperationTypes {
			setRootType(s, string(op.Operation), op.Type)
		}
	}
	// Default root operation types when no schema definition names them.
	if s.QueryType == "" {
		if _, ok := s.Types["Query"]; ok {
			s.QueryType = "Query"
		}
	}
	if s.MutationType == "" {
		if _, ok := s.Types["Mutation"]; ok {
			s.MutationType = "Mutation"
		}
	}
	if s.SubscriptionType == "" {
		if _, ok := s.Types["Subscription"]; ok {
			s.SubscriptionType = "Subscription"
		}
	}
	return s, nil
}

func setRootType(s *Schema, op string, typeName string) {
	switch op {
	case "query":
		s.QueryType = typeName
	case "mutation":
		s.MutationType = typeName
	case "subscription":
		s.SubscriptionType = typeName
	}
}

func buildDefinition(def *language.Definition) (*Type, error) {
	t := &Type{
		Name:        def.Name,
		Description: def.Description,
		Directives:  def.Directives,
	}
	switch def.Kind {
	case language.Object:
		t.Kind = TypeKindObject
	case language.Interface:
		t.Kind = TypeKindInterface
	case language.Union:
		t.Kind = TypeKindUnion
	case language.Scalar:
		t.Kind = TypeKindScalar
	case language.Enum:
		t.Kind = TypeKindEnum
	case language.InputObject:
		t.Kind = TypeKindInputObject
	default:
		return nil, fmt.Errorf("unsupported type definition kind %q for %s", def.Kind, def.Name)
	}

	t.Interfaces = append(t.Interfaces, def.Interfaces...)
	t.PossibleTypes = append(t.PossibleTypes, def.Types...)
	for _, ev := range def.EnumValues {
		t.EnumValues = append(t.EnumValues, &EnumValue{Name: ev.Name, Description: ev.Description})
	}
	for _, fd := range def.Fields {
		if t.Kind == TypeKindInputObject {
			t.InputFields = append(t.InputFields, buildInputValue(fd.Name, fd.Description, fd.Type, fd.DefaultValue, fd.Directives))
		} else {
			t.Fields = append(t.Fields, buildField(fd))
		}
	}
	return t, nil
}

func mergeExtension(base *Type, ext *language.Definition) error {
	if ext.Kind != language.DefinitionKind("") && kindOf(ext.Kind) != base.Kind {
		return fmt.Errorf("cannot extend %s %s as %s", base.Kind, base.Name, ext.Kind)
	}
	base.Directives = append(base.Directives, ext.Directives...)
	base.Interfaces = append(base.Interfaces, ext.Interfaces...)
	base.PossibleTypes = append(base.PossibleTypes, ext.Types...)
	for _, ev := range ext.EnumValues {
		base.EnumValues = append(base.EnumValues, &EnumValue{Name: ev.Name, Description: ev.Description})
	}
	for _, fd := range ext.Fields {
		if base.Kind == TypeKindInputObject {
			base.InputFields = append(base.InputFields, buildInputValue(fd.Name, fd.Description, fd.Type, fd.DefaultValue, fd.Directives))
		} else {
			base.Fields = append(base.Fields, buildField(fd))
		}
	}
	return nil
}

func kindOf(k language.DefinitionKind) TypeKind {
	switch k {
	case language.Object:
		return TypeKindObject
	case language.Interface:
		return TypeKindInterface
	case language.Union:
		return TypeKindUnion
	case language.Scalar:
		return TypeKindScalar
	case language.Enum:
		return TypeKindEnum
	case language.InputObject:
		return TypeKindInputObject
	}
	return ""
}

func buildField(fd *language.FieldDefinition) *Field {
	f := &Field{
		Name:        fd.Name,
		Description: fd.Description,
		Type:        buildTypeRef(fd.Type),
		Directives:  fd.Directives,
	}
	for _, arg := range fd.Arguments {
		f.Arguments = append(f.Arguments, buildInputValue(arg.Name, arg.Description, arg.Type, arg.DefaultValue, arg.Directives))
	}
	return f
}

func buildInputValue(name, description string, t *language.Type, defaultValue *language.Value, directives language.DirectiveList) *InputValue {
	return &InputValue{
		Name:         name,
		Description:  description,
		Type:         buildTypeRef(t),
		DefaultValue: language.GoValue(defaultValue),
		Directives:   directives,
	}
}

func buildDirectiveDefinition(dd *language.DirectiveDefinition) *Directive {
	d := &Directive{
		Name:         dd.Name,
		Description:  dd.Description,
		IsRepeatable: dd.IsRepeatable,
	}
	for _, loc := range dd.Locations {
		d.Locations = append(d.Locations, string(loc))
	}
	for _, arg := range dd.Arguments {
		d.Arguments = append(d.Arguments, buildInputValue(arg.Name, arg.Description, arg.Type, arg.DefaultValue, arg.Directives))
	}
	return d
}

func buildTypeRef(t *language.Type) *TypeRef {
	if t == nil {
		return nil
	}
	var ref *TypeRef
	if t.Elem != nil {
		ref = ListType(buildTypeRef(t.Elem))
	} else {
		ref = NamedType(t.NamedType)
	}
	if t.NonNull {
		ref = NonNullType(ref)
	}
	return ref
}
