package cost

import (
	language "github.com/hanpama/costgraph/internal/language"
	schema "github.com/hanpama/costgraph/internal/schema"
	"go.uber.org/zap"
)

const mutationSurcharge = 10.0

// DefaultListSize is the assumed length of a list field when neither an
// upstream size nor a @listSize directive applies.
const DefaultListSize = 100

// Calculator computes static, plan-based, and actual costs for GraphQL
// operations against a supergraph schema and, for federated plans, the
// per-subgraph schemas the planner fetched against. A Calculator is immutable
// and safe for concurrent use.
type Calculator struct {
	listSize   int
	supergraph *Schema
	subgraphs  map[string]*Schema
	logger     *zap.Logger
}

type Option func(*Calculator)

// WithDefaultListSize overrides the assumed list length used when no
// list-size annotation applies.
func WithDefaultListSize(n int) Option { return func(c *Calculator) { c.listSize = n } }

// WithLogger sets the logger used for advisory warnings and per-field debug
// breakdowns.
func WithLogger(l *zap.Logger) Option { return func(c *Calculator) { c.logger = l } }

// NewCalculator creates a Calculator. subgraphs may be nil when plan-based
// estimation is not needed.
func NewCalculator(supergraph *Schema, subgraphs map[string]*Schema, opts ...Option) *Calculator {
	c := &Calculator{
		listSize:   DefaultListSize,
		supergraph: supergraph,
		subgraphs:  subgraphs,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Estimated returns the static upper-bound cost of every operation in the
// document against the supergraph schema. Summing all operations of a
// multi-operation document is deliberate: execution runs one of them, but the
// estimate stays conservative.
func (c *Calculator) Estimated(doc *language.QueryDocument, estimateRequires bool) (float64, error) {
	return c.EstimatedForSchema(doc, c.supergraph, estimateRequires)
}

// EstimatedForSchema scores a document against an explicit schema. Plan-based
// estimation uses it with the relevant subgraph schema and requirement
// estimation disabled.
func (c *Calculator) EstimatedForSchema(doc *language.QueryDocument, s *Schema, estimateRequires bool) (float64, error) {
	var cost float64
	for _, op := range doc.Operations {
		opCost, err := c.scoreOperation(op, s, doc, estimateRequires)
		if err != nil {
			return 0, err
		}
		cost += opCost
	}
	return cost, nil
}

func (c *Calculator) scoreOperation(
	op *language.OperationDefinition,
	s *Schema,
	doc *language.QueryDocument,
	estimateRequires bool,
) (float64, error) {
	var cost float64
	if op.Operation == language.Mutation {
		cost = mutationSurcharge
	}

	rootType := s.RootOperationType(op.Operation)
	if rootType == "" {
		return 0, mismatchf("cannot cost %s operation because the schema does not support this root type", op.Operation)
	}

	selCost, err := c.scoreSelectionSet(op.SelectionSet, rootType, s, doc, estimateRequires, nil)
	if err != nil {
		return 0, err
	}
	return cost + selCost, nil
}

func (c *Calculator) scoreSelectionSet(
	selectionSet language.SelectionSet,
	parentType string,
	s *Schema,
	doc *language.QueryDocument,
	estimateRequires bool,
	listSize *resolvedListSize,
) (float64, error) {
	var cost float64
	for _, selection := range selectionSet {
		selCost, err := c.scoreSelection(selection, parentType, s, doc, estimateRequires, listSize)
		if err != nil {
			return 0, err
		}
		cost += selCost
	}
	return cost, nil
}

func (c *Calculator) scoreSelection(
	selection language.Selection,
	parentType string,
	s *Schema,
	doc *language.QueryDocument,
	estimateRequires bool,
	listSize *resolvedListSize,
) (float64, error) {
	switch sel := selection.(type) {
	case *language.Field:
		return c.scoreField(sel, parentType, s, doc, estimateRequires, listSize.sizeOf(sel))
	case *language.FragmentSpread:
		return c.scoreFragmentSpread(sel, parentType, s, doc, estimateRequires, listSize)
	case *language.InlineFragment:
		fragmentType := parentType
		if sel.TypeCondition != "" {
			fragmentType = sel.TypeCondition
		}
		return c.scoreSelectionSet(sel.SelectionSet, fragmentType, s, doc, estimateRequires, listSize)
	}
	return 0, nil
}

// scoreField prices one field occurrence. When the field carries @requires,
// the required selection is charged as well even though it may not appear in
// the client query. Two sibling fields requiring the same data double-count
// it; the estimate is an upper bound and does not model planner
// deduplication.
func (c *Calculator) scoreField(
	field *language.Field,
	parentType string,
	s *Schema,
	doc *language.QueryDocument,
	estimateRequires bool,
	sizeFromUpstream *int,
) (float64, error) {
	if skippedByDirectives(field) {
		return 0.0, nil
	}

	definition, err := s.TypeField(parentType, field.Name)
	if err != nil {
		return 0, err
	}
	ty := s.TypeDef(definition.Type.GetNamedType())
	if ty == nil {
		return 0, mismatchf("field %s was found in the query, but its type is missing from the schema", field.Name)
	}

	listSize, err := s.FieldListSize(parentType, field.Name).withField(field, definition)
	if err != nil {
		return 0, err
	}
	var instanceCount int
	switch {
	case !definition.Type.IsList():
		instanceCount = 1
	case sizeFromUpstream != nil:
		// A sized field whose length the parent's @listSize supplies.
		instanceCount = *sizeFromUpstream
	case listSize != nil && listSize.expectedSize != nil:
		instanceCount = *listSize.expectedSize
	default:
		instanceCount = c.listSize
	}

	// Scalars and enums are free unless annotated; composite types charge
	// one per instance. Selections underneath are charged on top.
	var typeCost float64
	if costDir := s.FieldCost(parentType, field.Name); costDir != nil {
		typeCost = costDir.Weight
	} else if ty.Kind == schema.TypeKindInterface || ty.Kind == schema.TypeKindObject || ty.Kind == schema.TypeKindUnion {
		typeCost = 1.0
	}
	selCost, err := c.scoreSelectionSet(field.SelectionSet, definition.Type.GetNamedType(), s, doc, estimateRequires, listSize)
	if err != nil {
		return 0, err
	}
	typeCost += selCost

	var argumentsCost float64
	for _, argument := range field.Arguments {
		argDef := definition.GetArgument(argument.Name)
		if argDef == nil {
			return 0, mismatchf("argument %s of field %s is missing a definition in the schema", argument.Name, field.Name)
		}
		argCost, err := scoreArgument(argument.Value, argDef, s)
		if err != nil {
			return 0, err
		}
		argumentsCost += argCost
	}

	var requirementsCost float64
	if estimateRequires {
		if requirements := s.FieldRequires(parentType, field.Name); requirements != nil {
			requirementsCost, err = c.scoreSelectionSet(requirements, parentType, s, doc, estimateRequires, listSize)
			if err != nil {
				return 0, err
			}
		}
	}

	cost := float64(instanceCount)*typeCost + argumentsCost + requirementsCost
	c.logger.Debug("field cost breakdown",
		zap.String("field", field.Name),
		zap.Int("instance_count", instanceCount),
		zap.Float64("type_cost", typeCost),
		zap.Float64("arguments_cost", argumentsCost),
		zap.Float64("requirements_cost", requirementsCost),
		zap.Float64("cost", cost),
	)
	return cost, nil
}

func (c *Calculator) scoreFragmentSpread(
	spread *language.FragmentSpread,
	parentType string,
	s *Schema,
	doc *language.QueryDocument,
	estimateRequires bool,
	listSize *resolvedListSize,
) (float64, error) {
	fragment := doc.Fragments.ForName(spread.Name)
	if fragment == nil {
		return 0, mismatchf("parsed operation did not have a definition for fragment %s", spread.Name)
	}
	return c.scoreSelectionSet(fragment.SelectionSet, parentType, s, doc, estimateRequires, listSize)
}
