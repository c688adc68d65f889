package cost

import (
	"testing"

	language "github.com/hanpama/costgraph/internal/language"
	schema "github.com/hanpama/costgraph/internal/schema"
	"github.com/stretchr/testify/require"
)

func mustSchema(t *testing.T, sdl string) *Schema {
	t.Helper()
	base, err := schema.BuildFromSDL(sdl)
	require.NoError(t, err, "failed to build schema")
	s, err := NewSchema(base)
	require.NoError(t, err, "failed to build cost schema")
	return s
}

func buildBase(t *testing.T, sdl string) (*schema.Schema, error) {
	t.Helper()
	return schema.BuildFromSDL(sdl)
}

func mustQuery(t *testing.T, source string) *language.QueryDocument {
	t.Helper()
	doc, err := language.ParseQuery(source)
	require.NoError(t, err, "failed to parse query")
	return doc
}

const basicSDL = `
type Query {
  ping: String
  favoriteBook: Book
  books: [Book]
  authors: [Author]
  bestRatedProduct(limit: Int): Product
  find(filter: Filter): String
}

type Mutation {
  publish: Boolean
}

type Book {
  id: ID
  title: String
}

type Author {
  name: String
  books: [Book]
}

type Product {
  name: String
}

input Filter {
  term: String
  nested: [Filter]
}
`

const annotatedSDL = `
type Query {
  expensiveScalar: String @cost(weight: 5)
  weightedObject: Widget
  cheapList: [Widget] @listSize(assumedSize: 5)
  paged(first: Int, last: Int): [Widget] @listSize(slicingArguments: ["first", "last"])
  pagedWithDefault(first: Int = 10): [Widget] @listSize(slicingArguments: ["first"])
  multiPaged(first: Int, last: Int): [Widget] @listSize(slicingArguments: ["first", "last"], requireOneSlicingArgument: false)
  connection(first: Int): WidgetConnection @listSize(slicingArguments: ["first"], sizedFields: ["edges"])
  search(filter: WeightedFilter): String
  byId(id: ID @cost(weight: 2)): Widget
}

type Widget @cost(weight: 3) {
  name: String
}

type WidgetConnection {
  edges: [WidgetEdge]
  pageInfo: PageInfo
}

type WidgetEdge {
  node: Widget
}

type PageInfo {
  hasNextPage: Boolean
}

input WeightedFilter @cost(weight: 4) {
  term: String
}
`
