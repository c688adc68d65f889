package cost

import (
	"errors"

	plan "github.com/hanpama/costgraph/internal/plan"
	"go.uber.org/zap"
)

// Planned walks a federated execution plan and returns its estimated cost.
// Requirement estimation is disabled at the fetch leaves: the plan has
// already materialized @requires selections as real fetches, and charging
// them again would double count.
func (c *Calculator) Planned(p *plan.Plan) (float64, error) {
	return c.scorePlanNode(p.Root)
}

func (c *Calculator) scorePlanNode(node plan.Node) (float64, error) {
	switch n := node.(type) {
	case nil:
		return 0.0, nil
	case *plan.Sequence:
		return c.summedScoreOfNodes(n.Nodes)
	case *plan.Parallel:
		// Parallel still sums: cost approximates resource consumption, not
		// latency.
		return c.summedScoreOfNodes(n.Nodes)
	case *plan.Flatten:
		return c.scorePlanNode(n.Node)
	case *plan.Condition:
		return c.maxScoreOfNodes(n.IfClause, n.ElseClause)
	case *plan.Defer:
		return c.summedScoreOfDeferredNodes(n.Primary, n.Deferred)
	case *plan.Fetch:
		return c.estimatedCostOfOperation(n.ServiceName, n.Operation)
	case *plan.Subscription:
		return c.estimatedCostOfOperation(n.Primary.ServiceName, n.Primary.Operation)
	default:
		return 0, mismatchf("cannot cost unknown plan node %T", node)
	}
}

func (c *Calculator) estimatedCostOfOperation(subgraph string, operation *plan.SubgraphOperation) (float64, error) {
	c.logger.Debug("scoring subgraph operation",
		zap.String("subgraph", subgraph),
		zap.String("operation", operation.Raw()),
	)
	s, ok := c.subgraphs[subgraph]
	if !ok {
		return 0, mismatchf("query planner did not provide a schema for service %s", subgraph)
	}
	doc, err := operation.Parsed()
	if err != nil {
		if errors.Is(err, plan.ErrNotParsed) {
			return 0, &Error{Kind: KindSuboperationNotReady, Message: err.Error()}
		}
		return 0, mismatchf("subgraph operation for service %s failed to parse: %v", subgraph, err)
	}
	return c.EstimatedForSchema(doc, s, false)
}

func (c *Calculator) maxScoreOfNodes(left, right plan.Node) (float64, error) {
	leftScore, err := c.scorePlanNode(left)
	if err != nil {
		return 0, err
	}
	rightScore, err := c.scorePlanNode(right)
	if err != nil {
		return 0, err
	}
	if leftScore > rightScore {
		return leftScore, nil
	}
	return rightScore, nil
}

func (c *Calculator) summedScoreOfDeferredNodes(primary *plan.Primary, deferred []*plan.DeferredNode) (float64, error) {
	var score float64
	if primary != nil {
		primaryScore, err := c.scorePlanNode(primary.Node)
		if err != nil {
			return 0, err
		}
		score += primaryScore
	}
	for _, d := range deferred {
		deferredScore, err := c.scorePlanNode(d.Node)
		if err != nil {
			return 0, err
		}
		score += deferredScore
	}
	return score, nil
}

func (c *Calculator) summedScoreOfNodes(nodes []plan.Node) (float64, error) {
	var sum float64
	for _, node := range nodes {
		score, err := c.scorePlanNode(node)
		if err != nil {
			return 0, err
		}
		sum += score
	}
	return sum, nil
}
