// Package plan models the execution plan a federated query planner produces:
// a tree of node variants describing which subgraphs are fetched, in what
// order, and under which runtime conditions. The planner itself is external;
// this package only represents and decodes its output.
package plan

import (
	"errors"

	language "github.com/hanpama/costgraph/internal/language"
)

// Plan is a federated execution plan.
type Plan struct {
	Root Node
}

// Node is one plan node variant.
type Node interface {
	isPlanNode()
}

// Sequence executes its children one after another.
type Sequence struct {
	Nodes []Node
}

// Parallel executes its children concurrently.
type Parallel struct {
	Nodes []Node
}

// Flatten re-roots its inner node at a response path.
type Flatten struct {
	Path []string
	Node Node
}

// Condition selects one branch depending on a boolean variable at runtime.
// Either branch may be nil.
type Condition struct {
	Condition  string
	IfClause   Node
	ElseClause Node
}

// Defer splits execution into a primary part and deferred payloads.
type Defer struct {
	Primary  *Primary
	Deferred []*DeferredNode
}

// Primary is the immediately-delivered part of a Defer node. Node may be nil.
type Primary struct {
	Subselection string
	Node         Node
}

// DeferredNode is one deferred payload. Node may be nil.
type DeferredNode struct {
	Label        string
	QueryPath    []string
	Subselection string
	Node         Node
}

// Fetch retrieves data from a single subgraph.
type Fetch struct {
	ServiceName   string
	OperationName string
	Operation     *SubgraphOperation
}

// Subscription opens a subscription on a subgraph, with an optional plan for
// the rest of each event.
type Subscription struct {
	Primary *Fetch
	Rest    Node
}

func (*Sequence) isPlanNode()     {}
func (*Parallel) isPlanNode()     {}
func (*Flatten) isPlanNode()      {}
func (*Condition) isPlanNode()    {}
func (*Defer) isPlanNode()        {}
func (*Fetch) isPlanNode()        {}
func (*Subscription) isPlanNode() {}

// ErrNotParsed is returned when a subgraph operation is accessed before its
// lazy parse has been initialized.
var ErrNotParsed = errors.New("subgraph operation was not initialized")

// SubgraphOperation is the operation document a Fetch node sends to its
// subgraph. Parsing is lazy and explicit: the raw text is always available,
// but the parsed form exists only after InitParsed, and accessing it earlier
// is a distinct error rather than an implicit re-parse.
type SubgraphOperation struct {
	raw         string
	initialized bool
	parsed      *language.QueryDocument
	parseErr    error
}

// NewSubgraphOperation wraps raw operation text without parsing it.
func NewSubgraphOperation(raw string) *SubgraphOperation {
	return &SubgraphOperation{raw: raw}
}

// Raw returns the operation source text.
func (o *SubgraphOperation) Raw() string { return o.raw }

// InitParsed parses the operation text once and records the outcome.
func (o *SubgraphOperation) InitParsed() error {
	if o.initialized {
		return o.parseErr
	}
	o.parsed, o.parseErr = language.ParseQuery(o.raw)
	o.initialized = true
	return o.parseErr
}

// Parsed returns the parsed document. It returns ErrNotParsed when
// InitParsed has not run, and the recorded parse error when parsing failed.
func (o *SubgraphOperation) Parsed() (*language.QueryDocument, error) {
	if !o.initialized {
		return nil, ErrNotParsed
	}
	if o.parseErr != nil {
		return nil, o.parseErr
	}
	return o.parsed, nil
}

// InitOperations parses the sub-operation of every fetch and subscription
// node in the plan, returning the first parse error.
func (p *Plan) InitOperations() error {
	return initNodeOperations(p.Root)
}

func initNodeOperations(n Node) error {
	switch node := n.(type) {
	case nil:
		return nil
	case *Sequence:
		for _, child := range node.Nodes {
			if err := initNodeOperations(child); err != nil {
				return err
			}
		}
	case *Parallel:
		for _, child := range node.Nodes {
			if err := initNodeOperations(child); err != nil {
				return err
			}
		}
	case *Flatten:
		return initNodeOperations(node.Node)
	case *Condition:
		if err := initNodeOperations(node.IfClause); err != nil {
			return err
		}
		return initNodeOperations(node.ElseClause)
	case *Defer:
		if node.Primary != nil {
			if err := initNodeOperations(node.Primary.Node); err != nil {
				return err
			}
		}
		for _, d := range node.Deferred {
			if err := initNodeOperations(d.Node); err != nil {
				return err
			}
		}
	case *Fetch:
		if node.Operation != nil {
			return node.Operation.InitParsed()
		}
	case *Subscription:
		if node.Primary != nil && node.Primary.Operation != nil {
			if err := node.Primary.Operation.InitParsed(); err != nil {
				return err
			}
		}
		return initNodeOperations(node.Rest)
	}
	return nil
}
