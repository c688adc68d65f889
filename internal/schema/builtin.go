package schema

import language "github.com/hanpama/costgraph/internal/language"

var builtinTypes = append([]*Type{stringType, intType, floatType, booleanType, idType}, introspectionTypes...)

var builtinDirectives = []*Directive{includeDirective, skipDirective, costDirective, listSizeDirective}

var stringType = &Type{
	Name:        "String",
	Kind:        TypeKindScalar,
	Description: "The `String` scalar type represents textual data, represented as UTF-8 character sequences.",
}

var intType = &Type{
	Name:        "Int",
	Kind:        TypeKindScalar,
	Description: "The `Int` scalar type represents non-fractional signed whole numeric values.",
}

var floatType = &Type{
	Name:        "Float",
	Kind:        TypeKindScalar,
	Description: "The `Float` scalar type represents signed double-precision fractional values.",
}

var booleanType = &Type{
	Name:        "Boolean",
	Kind:        TypeKindScalar,
	Description: "The `Boolean` scalar type represents `true` or `false`.",
}

var idType = &Type{
	Name:        "ID",
	Kind:        TypeKindScalar,
	Description: "The `ID` scalar type represents a unique identifier, often used to refetch an object or as a key for caching.",
}

var includeDirective = &Directive{
	Name:        "include",
	Description: "Directs the executor to include this field or fragment only when the `if` argument is true.",
	Arguments: []*InputValue{
		{
			Name:        "if",
			Description: "Included when true.",
			Type:        &TypeRef{Kind: TypeRefKindNonNull, OfType: &TypeRef{Kind: TypeRefKindNamed, Named: "Boolean"}},
		},
	},
	Locations:    []string{"FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
	IsRepeatable: false,
}

var skipDirective = &Directive{
	Name:        "skip",
	Description: "Directs the executor to skip this field or fragment when the `if` argument is true.",
	Arguments: []*InputValue{
		{
			Name:        "if",
			Description: "Skipped when true.",
			Type:        &TypeRef{Kind: TypeRefKindNonNull, OfType: &TypeRef{Kind: TypeRefKindNamed, Named: "Boolean"}},
		},
	},
	Locations:    []string{"FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
	IsRepeatable: false,
}

var costDirective = &Directive{
	Name:        "cost",
	Description: "Assigns a numeric weight to a type, field, or argument for demand-control purposes.",
	Arguments: []*InputValue{
		{
			Name:        "weight",
			Description: "The weight charged per instance.",
			Type:        &TypeRef{Kind: TypeRefKindNonNull, OfType: &TypeRef{Kind: TypeRefKindNamed, Named: "Float"}},
		},
	},
	Locations: []string{
		"ARGUMENT_DEFINITION", "ENUM", "FIELD_DEFINITION",
		"INPUT_FIELD_DEFINITION", "OBJECT", "SCALAR",
	},
	IsRepeatable: false,
}

var listSizeDirective = &Directive{
	Name:        "listSize",
	Description: "Describes how to determine a list field's effective length at cost-estimation time.",
	Arguments: []*InputValue{
		{
			Name:        "assumedSize",
			Description: "The expected list length when no slicing argument applies.",
			Type:        &TypeRef{Kind: TypeRefKindNamed, Named: "Int"},
		},
		{
			Name:        "slicingArguments",
			Description: "Argument names whose value supplies the list length at query time.",
			Type:        &TypeRef{Kind: TypeRefKindList, OfType: &TypeRef{Kind: TypeRefKindNonNull, OfType: &TypeRef{Kind: TypeRefKindNamed, Named: "String"}}},
		},
		{
			Name:        "sizedFields",
			Description: "Child field names whose list length is supplied by this directive.",
			Type:        &TypeRef{Kind: TypeRefKindList, OfType: &TypeRef{Kind: TypeRefKindNonNull, OfType: &TypeRef{Kind: TypeRefKindNamed, Named: "String"}}},
		},
		{
			Name:         "requireOneSlicingArgument",
			Description:  "Whether exactly one slicing argument must be provided.",
			Type:         &TypeRef{Kind: TypeRefKindNamed, Named: "Boolean"},
			DefaultValue: true,
		},
	},
	Locations:    []string{"FIELD_DEFINITION"},
	IsRepeatable: false,
}

// Implicit meta-field definitions per the GraphQL introspection spec. These
// never appear in a schema's own field lists; MetaField resolves them.
var typenameMetaField = &Field{
	Name: "__typename",
	Type: NonNullType(NamedType("String")),
}

var schemaMetaField = &Field{
	Name: "__schema",
	Type: NonNullType(NamedType("__Schema")),
}

var typeMetaField = &Field{
	Name: "__type",
	Type: NamedType("__Type"),
	Arguments: []*InputValue{
		{Name: "name", Type: NonNullType(NamedType("String"))},
	},
}

// MetaField returns the implicit introspection field definition for name on
// the given type, or nil. __typename exists on every composite type;
// __schema and __type exist only on the query root.
func (s *Schema) MetaField(t *Type, name string) *Field {
	switch name {
	case "__typename":
		if t.Kind == TypeKindObject || t.Kind == TypeKindInterface || t.Kind == TypeKindUnion {
			return typenameMetaField
		}
	case "__schema":
		if t.Name == s.QueryType {
			return schemaMetaField
		}
	case "__type":
		if t.Name == s.QueryType {
			return typeMetaField
		}
	}
	return nil
}

const introspectionSDL = `
type __Schema {
  description: String
  types: [__Type!]!
  queryType: __Type!
  mutationType: __Type
  subscriptionType: __Type
  directives: [__Directive!]!
}

type __Type {
  kind: __TypeKind!
  name: String
  description: String
  fields(includeDeprecated: Boolean = false): [__Field!]
  interfaces: [__Type!]
  possibleTypes: [__Type!]
  enumValues(includeDeprecated: Boolean = false): [__EnumValue!]
  inputFields(includeDeprecated: Boolean = false): [__InputValue!]
  ofType: __Type
  specifiedByURL: String
  isOneOf: Boolean
}

type __Field {
  name: String!
  description: String
  args(includeDeprecated: Boolean = false): [__InputValue!]!
  type: __Type!
  isDeprecated: Boolean!
  deprecationReason: String
}

type __InputValue {
  name: String!
  description: String
  type: __Type!
  defaultValue: String
  isDeprecated: Boolean!
  deprecationReason: String
}

type __EnumValue {
  name: String!
  description: String
  isDeprecated: Boolean!
  deprecationReason: String
}

type __Directive {
  name: String!
  description: String
  locations: [__DirectiveLocation!]!
  args(includeDeprecated: Boolean = false): [__InputValue!]!
  isRepeatable: Boolean!
}

enum __TypeKind {
  SCALAR
  OBJECT
  INTERFACE
  UNION
  ENUM
  INPUT_OBJECT
  LIST
  NON_NULL
}

enum __DirectiveLocation {
  QUERY
  MUTATION
  SUBSCRIPTION
  FIELD
  FRAGMENT_DEFINITION
  FRAGMENT_SPREAD
  INLINE_FRAGMENT
  VARIABLE_DEFINITION
  SCHEMA
  SCALAR
  OBJECT
  FIELD_DEFINITION
  ARGUMENT_DEFINITION
  INTERFACE
  UNION
  ENUM
  ENUM_VALUE
  INPUT_OBJECT
  INPUT_FIELD_DEFINITION
}
`

var introspectionTypes = mustBuildTypes(introspectionSDL)

func mustBuildTypes(sdl string) []*Type {
	doc, err := language.ParseSchema("introspection.graphql", sdl)
	if err != nil {
		panic(err)
	}
	types := make([]*Type, 0, len(doc.Definitions))
	for _, def := range doc.Definitions {
		t, err := buildDefinition(def)
		if err != nil {
			panic(err)
		}
		types = append(types, t)
	}
	return types
}
