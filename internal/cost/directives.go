package cost

import (
	"strconv"

	language "github.com/hanpama/costgraph/internal/language"
	schema "github.com/hanpama/costgraph/internal/schema"
)

// Canonical names of the schema annotations this package consumes. Schemas
// may rename them on import through @link; resolution goes through the
// directiveNames map built in NewSchema.
const (
	costDirectiveName     = "cost"
	listSizeDirectiveName = "listSize"
	requiresDirectiveName = "requires"
)

// CostDirective is the parsed form of @cost(weight:).
type CostDirective struct {
	Weight float64
}

func parseCostDirective(d *language.Directive) (*CostDirective, error) {
	arg := d.Arguments.ForName("weight")
	if arg == nil {
		return nil, mismatchf("directive @%s is missing its weight argument", d.Name)
	}
	switch arg.Value.Kind {
	case language.IntValue, language.FloatValue:
		w, err := strconv.ParseFloat(arg.Value.Raw, 64)
		if err != nil {
			return nil, mismatchf("directive @%s has non-numeric weight %q", d.Name, arg.Value.Raw)
		}
		return &CostDirective{Weight: w}, nil
	default:
		return nil, mismatchf("directive @%s has non-numeric weight %q", d.Name, arg.Value.Raw)
	}
}

// weightOr returns the directive weight, or fallback when the directive is
// absent.
func (d *CostDirective) weightOr(fallback float64) float64 {
	if d == nil {
		return fallback
	}
	return d.Weight
}

// ListSizeDirective is the parsed form of @listSize as declared in the
// schema, before it is resolved against a concrete query field.
type ListSizeDirective struct {
	AssumedSize               *int
	SlicingArguments          []string
	SizedFields               []string
	RequireOneSlicingArgument bool
}

func parseListSizeDirective(d *language.Directive) (*ListSizeDirective, error) {
	dir := &ListSizeDirective{RequireOneSlicingArgument: true}
	for _, arg := range d.Arguments {
		switch arg.Name {
		case "assumedSize":
			n, err := strconv.Atoi(arg.Value.Raw)
			if err != nil {
				return nil, mismatchf("directive @%s has non-integer assumedSize %q", d.Name, arg.Value.Raw)
			}
			dir.AssumedSize = &n
		case "slicingArguments":
			dir.SlicingArguments = stringListValue(arg.Value)
		case "sizedFields":
			dir.SizedFields = stringListValue(arg.Value)
		case "requireOneSlicingArgument":
			dir.RequireOneSlicingArgument = arg.Value.Raw == "true"
		}
	}
	return dir, nil
}

func stringListValue(v *language.Value) []string {
	if v == nil {
		return nil
	}
	if v.Kind == language.StringValue {
		return []string{v.Raw}
	}
	out := make([]string, 0, len(v.Children))
	for _, c := range v.Children {
		out = append(out, c.Value.Raw)
	}
	return out
}

// resolvedListSize is a ListSizeDirective applied to one query field. It
// carries the expected size for the field itself and, through sizedFields,
// the size it imposes on named child fields.
type resolvedListSize struct {
	expectedSize *int
	sizedFields  map[string]struct{}
}

// withField resolves the directive against a concrete field occurrence. A
// slicing argument's size comes from a literal integer in the query, or from
// the argument definition's default value when the query omits the argument.
func (d *ListSizeDirective) withField(field *language.Field, definition *schema.Field) (*resolvedListSize, error) {
	if d == nil {
		return nil, nil
	}
	r := &resolvedListSize{expectedSize: d.AssumedSize}
	if len(d.SizedFields) > 0 {
		r.sizedFields = make(map[string]struct{}, len(d.SizedFields))
		for _, name := range d.SizedFields {
			r.sizedFields[name] = struct{}{}
		}
	}
	if len(d.SlicingArguments) == 0 {
		return r, nil
	}
	var sizes []int
	for _, name := range d.SlicingArguments {
		if arg := field.Arguments.ForName(name); arg != nil {
			// A non-literal argument (e.g. a variable) does not count
			// as provided.
			if arg.Value != nil && arg.Value.Kind == language.IntValue {
				if n, err := strconv.Atoi(arg.Value.Raw); err == nil {
					sizes = append(sizes, n)
				}
			}
			continue
		}
		if definition != nil {
			if argDef := definition.GetArgument(name); argDef != nil {
				if n, ok := argDef.DefaultValue.(int); ok {
					sizes = append(sizes, n)
				}
			}
		}
	}
	if d.RequireOneSlicingArgument && len(sizes) != 1 {
		return nil, mismatchf("field %s must have exactly one slicing argument, found %d", field.Name, len(sizes))
	}
	// Multiple permitted slicing arguments keep the largest value; this is
	// an upper-bound estimate.
	for _, n := range sizes {
		if r.expectedSize == nil || n > *r.expectedSize {
			size := n
			r.expectedSize = &size
		}
	}
	return r, nil
}

// sizeOf returns the list size this directive imposes on a child field, if
// the child is one of its sized fields.
func (r *resolvedListSize) sizeOf(field *language.Field) *int {
	if r == nil || r.sizedFields == nil {
		return nil
	}
	if _, ok := r.sizedFields[field.Name]; ok {
		return r.expectedSize
	}
	return nil
}

// skippedByDirectives reports whether @skip/@include with literal boolean
// arguments exclude the field. Variable conditions never suppress cost; the
// estimate stays conservative.
func skippedByDirectives(field *language.Field) bool {
	if d := field.Directives.ForName("skip"); d != nil {
		if arg := d.Arguments.ForName("if"); arg != nil &&
			arg.Value.Kind == language.BooleanValue && arg.Value.Raw == "true" {
			return true
		}
	}
	if d := field.Directives.ForName("include"); d != nil {
		if arg := d.Arguments.ForName("if"); arg != nil &&
			arg.Value.Kind == language.BooleanValue && arg.Value.Raw == "false" {
			return true
		}
	}
	return false
}
