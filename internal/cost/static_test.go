package cost

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func estimate(t *testing.T, s *Schema, query string, estimateRequires bool) (float64, error) {
	t.Helper()
	calc := NewCalculator(s, nil)
	return calc.Estimated(mustQuery(t, query), estimateRequires)
}

func TestEstimated_ScalarsAreFree(t *testing.T) {
	s := mustSchema(t, basicSDL)
	got, err := estimate(t, s, `{ ping }`, false)
	require.NoError(t, err)
	require.Equal(t, 0.0, got)
}

func TestEstimated_MutationSurcharge(t *testing.T) {
	s := mustSchema(t, basicSDL)
	got, err := estimate(t, s, `mutation { publish }`, false)
	require.NoError(t, err)
	require.Equal(t, 10.0, got)
}

func TestEstimated_SingleObject(t *testing.T) {
	s := mustSchema(t, basicSDL)
	got, err := estimate(t, s, `{ favoriteBook { title } }`, false)
	require.NoError(t, err)
	require.Equal(t, 1.0, got)
}

func TestEstimated_ListUsesDefaultSize(t *testing.T) {
	s := mustSchema(t, basicSDL)
	got, err := estimate(t, s, `{ books { title } }`, false)
	require.NoError(t, err)
	require.Equal(t, 100.0, got)
}

func TestEstimated_NestedListsMultiply(t *testing.T) {
	s := mustSchema(t, basicSDL)
	got, err := estimate(t, s, `{ authors { books { id } } }`, false)
	require.NoError(t, err)
	// 100 authors, each costing 1 plus 100 books costing 1 each.
	require.Equal(t, 10100.0, got)
}

func TestEstimated_DefaultListSizeOverride(t *testing.T) {
	s := mustSchema(t, basicSDL)
	calc := NewCalculator(s, nil, WithDefaultListSize(5))
	got, err := calc.Estimated(mustQuery(t, `{ authors { books { id } } }`), false)
	require.NoError(t, err)
	require.Equal(t, 5.0*(1.0+5.0), got)
}

func TestEstimated_SkipAndIncludeLiterals(t *testing.T) {
	s := mustSchema(t, basicSDL)
	cases := []struct {
		name  string
		query string
		want  float64
	}{
		{"skip true", `{ books @skip(if: true) { title } }`, 0.0},
		{"skip false", `{ books @skip(if: false) { title } }`, 100.0},
		{"include false", `{ books @include(if: false) { title } }`, 0.0},
		{"include true", `{ books @include(if: true) { title } }`, 100.0},
		// Variable conditions never suppress cost.
		{"skip variable", `query ($v: Boolean!) { books @skip(if: $v) { title } }`, 100.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := estimate(t, s, tc.query, false)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestEstimated_ScalarArgumentValuesDoNotMatter(t *testing.T) {
	s := mustSchema(t, basicSDL)
	small, err := estimate(t, s, `{ bestRatedProduct(limit: 1) { name } }`, false)
	require.NoError(t, err)
	large, err := estimate(t, s, `{ bestRatedProduct(limit: 99999) { name } }`, false)
	require.NoError(t, err)
	require.Equal(t, small, large)
}

func TestEstimated_SkipSuppressesArgumentsAndSubtree(t *testing.T) {
	s := mustSchema(t, basicSDL)
	got, err := estimate(t, s, `{ find(filter: {term: "x"}) @skip(if: true) }`, false)
	require.NoError(t, err)
	require.Equal(t, 0.0, got)
}

func TestEstimated_FragmentSpread(t *testing.T) {
	s := mustSchema(t, basicSDL)
	got, err := estimate(t, s, `
		query { ...BookList }
		fragment BookList on Query { books { title } }
	`, false)
	require.NoError(t, err)
	require.Equal(t, 100.0, got)
}

func TestEstimated_InlineFragment(t *testing.T) {
	s := mustSchema(t, basicSDL)
	got, err := estimate(t, s, `{ ... on Query { books { id } } }`, false)
	require.NoError(t, err)
	require.Equal(t, 100.0, got)
}

func TestEstimated_UndefinedFragmentFails(t *testing.T) {
	s := mustSchema(t, basicSDL)
	_, err := estimate(t, s, `{ ...Missing }`, false)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, KindSchemaMismatch, cerr.Kind)
}

func TestEstimated_InputObjectArgument(t *testing.T) {
	s := mustSchema(t, basicSDL)
	// filter: 1 for the object, nested list adds 1 per element object.
	got, err := estimate(t, s, `{ find(filter: {term: "x", nested: [{term: "a"}, {term: "b"}]}) }`, false)
	require.NoError(t, err)
	require.Equal(t, 3.0, got)
}

func TestEstimated_NullArgumentIsFree(t *testing.T) {
	s := mustSchema(t, basicSDL)
	got, err := estimate(t, s, `{ find(filter: null) }`, false)
	require.NoError(t, err)
	require.Equal(t, 0.0, got)
}

func TestEstimated_MultipleOperationsSum(t *testing.T) {
	s := mustSchema(t, basicSDL)
	got, err := estimate(t, s, `
		query A { favoriteBook { title } }
		query B { books { title } }
	`, false)
	require.NoError(t, err)
	require.Equal(t, 101.0, got)
}

func TestEstimated_UnknownFieldFails(t *testing.T) {
	s := mustSchema(t, basicSDL)
	_, err := estimate(t, s, `{ nosuchfield }`, false)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, KindSchemaMismatch, cerr.Kind)
	require.Contains(t, cerr.Message, "nosuchfield")
}

func TestEstimated_UnknownArgumentFails(t *testing.T) {
	s := mustSchema(t, basicSDL)
	_, err := estimate(t, s, `{ bestRatedProduct(bogus: 1) { name } }`, false)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, KindSchemaMismatch, cerr.Kind)
}

func TestEstimated_TypenameMetaField(t *testing.T) {
	s := mustSchema(t, basicSDL)

	// __typename is a free scalar on every composite type.
	got, err := estimate(t, s, `{ books { __typename title } }`, false)
	require.NoError(t, err)
	require.Equal(t, 100.0, got)

	got, err = estimate(t, s, `{ __typename }`, false)
	require.NoError(t, err)
	require.Equal(t, 0.0, got)
}

func TestEstimated_IntrospectionFields(t *testing.T) {
	s := mustSchema(t, basicSDL)

	got, err := estimate(t, s, `{ __schema { queryType { name } } }`, false)
	require.NoError(t, err)
	require.Equal(t, 2.0, got)

	got, err = estimate(t, s, `{ __type(name: "Book") { name } }`, false)
	require.NoError(t, err)
	require.Equal(t, 1.0, got)
}

func TestEstimated_IntrospectionOnlyOnQueryRoot(t *testing.T) {
	s := mustSchema(t, basicSDL)
	_, err := estimate(t, s, `{ books { __schema { description } } }`, false)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, KindSchemaMismatch, cerr.Kind)
}

func TestEstimated_UnsupportedRootTypeFails(t *testing.T) {
	s := mustSchema(t, `type Query { ping: String }`)
	_, err := estimate(t, s, `mutation { anything }`, false)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, KindSchemaMismatch, cerr.Kind)
}

func TestEstimated_CustomFieldWeight(t *testing.T) {
	s := mustSchema(t, annotatedSDL)
	got, err := estimate(t, s, `{ expensiveScalar }`, false)
	require.NoError(t, err)
	require.Equal(t, 5.0, got)
}

func TestEstimated_TypeWeightFallback(t *testing.T) {
	s := mustSchema(t, annotatedSDL)
	got, err := estimate(t, s, `{ weightedObject { name } }`, false)
	require.NoError(t, err)
	require.Equal(t, 3.0, got)
}

func TestEstimated_AssumedListSize(t *testing.T) {
	s := mustSchema(t, annotatedSDL)
	got, err := estimate(t, s, `{ cheapList { name } }`, false)
	require.NoError(t, err)
	require.Equal(t, 15.0, got)
}

func TestEstimated_SlicingArgument(t *testing.T) {
	s := mustSchema(t, annotatedSDL)
	got, err := estimate(t, s, `{ paged(first: 7) { name } }`, false)
	require.NoError(t, err)
	require.Equal(t, 21.0, got)
}

func TestEstimated_SlicingArgumentDefaultValue(t *testing.T) {
	s := mustSchema(t, annotatedSDL)

	// Omitting the argument falls back to the definition default of 10.
	got, err := estimate(t, s, `{ pagedWithDefault { name } }`, false)
	require.NoError(t, err)
	require.Equal(t, 30.0, got)

	// A literal in the query still takes precedence.
	got, err = estimate(t, s, `{ pagedWithDefault(first: 2) { name } }`, false)
	require.NoError(t, err)
	require.Equal(t, 6.0, got)
}

func TestEstimated_SlicingArgumentExactlyOneRequired(t *testing.T) {
	s := mustSchema(t, annotatedSDL)

	_, err := estimate(t, s, `{ paged(first: 7, last: 3) { name } }`, false)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, KindSchemaMismatch, cerr.Kind)

	_, err = estimate(t, s, `{ paged { name } }`, false)
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, KindSchemaMismatch, cerr.Kind)
}

func TestEstimated_MultipleSlicingArgumentsTakeMax(t *testing.T) {
	s := mustSchema(t, annotatedSDL)
	got, err := estimate(t, s, `{ multiPaged(first: 7, last: 9) { name } }`, false)
	require.NoError(t, err)
	require.Equal(t, 27.0, got)
}

func TestEstimated_SizedFields(t *testing.T) {
	s := mustSchema(t, annotatedSDL)
	got, err := estimate(t, s, `{ connection(first: 5) { edges { node { name } } } }`, false)
	require.NoError(t, err)
	// connection 1, plus 5 edges each costing 1 + a weight-3 node.
	require.Equal(t, 21.0, got)
}

func TestEstimated_InputTypeWeight(t *testing.T) {
	s := mustSchema(t, annotatedSDL)
	got, err := estimate(t, s, `{ search(filter: {term: "x"}) }`, false)
	require.NoError(t, err)
	require.Equal(t, 4.0, got)
}

func TestEstimated_ArgumentWeight(t *testing.T) {
	s := mustSchema(t, annotatedSDL)
	got, err := estimate(t, s, `{ byId(id: "1") { name } }`, false)
	require.NoError(t, err)
	require.Equal(t, 5.0, got)
}

const abstractSDL = `
type Query {
  node: Node
  pet: Pet
}

interface Node {
  id: ID
}

type Dog implements Node {
  id: ID
  name: String
}

type Cat implements Node {
  id: ID
  lives: Int
}

union Pet = Dog | Cat
`

func TestEstimated_InterfaceTypedField(t *testing.T) {
	s := mustSchema(t, abstractSDL)
	got, err := estimate(t, s, `{ node { id } }`, false)
	require.NoError(t, err)
	require.Equal(t, 1.0, got)
}

func TestEstimated_UnionTypedField(t *testing.T) {
	s := mustSchema(t, abstractSDL)
	got, err := estimate(t, s, `{ pet { ... on Dog { name } } }`, false)
	require.NoError(t, err)
	require.Equal(t, 1.0, got)
}

func TestEstimated_RenamedDirectives(t *testing.T) {
	s := mustSchema(t, `
		schema @link(url: "https://specs.apollo.dev/cost/v0.1", import: [{name: "@cost", as: "@price"}, "@listSize"]) {
		  query: Query
		}
		type Query {
		  expensive: String @price(weight: 5)
		  items: [Item] @listSize(assumedSize: 3)
		}
		type Item @price(weight: 2) {
		  name: String
		}
	`)

	got, err := estimate(t, s, `{ expensive }`, false)
	require.NoError(t, err)
	require.Equal(t, 5.0, got)

	got, err = estimate(t, s, `{ items { name } }`, false)
	require.NoError(t, err)
	require.Equal(t, 6.0, got)
}

const requiresSDL = `
type Query {
  products: [Product]
}

type Product {
  shippingEstimate: String @requires(fields: "weight dimensions { size }")
  weight: Float
  dimensions: Dimensions
}

type Dimensions {
  size: Int
}
`

func TestEstimated_RequiresDisabled(t *testing.T) {
	s := mustSchema(t, requiresSDL)
	got, err := estimate(t, s, `{ products { shippingEstimate } }`, false)
	require.NoError(t, err)
	require.Equal(t, 100.0, got)
}

func TestEstimated_RequiresCharged(t *testing.T) {
	s := mustSchema(t, requiresSDL)
	got, err := estimate(t, s, `{ products { shippingEstimate } }`, true)
	require.NoError(t, err)
	// Each product additionally charges the required dimensions object.
	require.Equal(t, 200.0, got)
}

func TestNewSchema_MalformedCostWeightRejected(t *testing.T) {
	base := `type Query { a: String @cost(weight: "big") }`
	sch, err := buildBase(t, base)
	require.NoError(t, err)
	_, err = NewSchema(sch)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, KindSchemaMismatch, cerr.Kind)
}
