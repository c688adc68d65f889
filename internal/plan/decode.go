package plan

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// Decode decodes a planner-produced execution plan from its JSON wire form.
// Each node is an object tagged with a "kind" discriminator. Sub-operations
// are left unparsed; call InitOperations before scoring.
func Decode(data []byte) (*Plan, error) {
	var raw struct {
		Node json.RawMessage `json:"node"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw.Node == nil {
		return nil, fmt.Errorf("plan document has no root node")
	}
	root, err := decodeNode(raw.Node)
	if err != nil {
		return nil, err
	}
	return &Plan{Root: root}, nil
}

type rawNode struct {
	Kind          string            `json:"kind"`
	Nodes         []json.RawMessage `json:"nodes"`
	Node          json.RawMessage   `json:"node"`
	Path          []string          `json:"path"`
	Condition     string            `json:"condition"`
	IfClause      json.RawMessage   `json:"ifClause"`
	ElseClause    json.RawMessage   `json:"elseClause"`
	Primary       json.RawMessage   `json:"primary"`
	Deferred      []json.RawMessage `json:"deferred"`
	Rest          json.RawMessage   `json:"rest"`
	ServiceName   string            `json:"serviceName"`
	OperationName string            `json:"operationName"`
	Operation     string            `json:"operation"`
}

func decodeNode(data []byte) (Node, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var raw rawNode
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	switch raw.Kind {
	case "Sequence":
		nodes, err := decodeNodes(raw.Nodes)
		if err != nil {
			return nil, err
		}
		return &Sequence{Nodes: nodes}, nil
	case "Parallel":
		nodes, err := decodeNodes(raw.Nodes)
		if err != nil {
			return nil, err
		}
		return &Parallel{Nodes: nodes}, nil
	case "Flatten":
		inner, err := decodeNode(raw.Node)
		if err != nil {
			return nil, err
		}
		return &Flatten{Path: raw.Path, Node: inner}, nil
	case "Condition":
		ifClause, err := decodeNode(raw.IfClause)
		if err != nil {
			return nil, err
		}
		elseClause, err := decodeNode(raw.ElseClause)
		if err != nil {
			return nil, err
		}
		return &Condition{Condition: raw.Condition, IfClause: ifClause, ElseClause: elseClause}, nil
	case "Defer":
		return decodeDefer(raw)
	case "Fetch":
		return decodeFetch(data)
	case "Subscription":
		primaryNode, err := decodeNode(raw.Primary)
		if err != nil {
			return nil, err
		}
		primary, ok := primaryNode.(*Fetch)
		if !ok {
			return nil, fmt.Errorf("subscription primary must be a Fetch node, got %T", primaryNode)
		}
		rest, err := decodeNode(raw.Rest)
		if err != nil {
			return nil, err
		}
		return &Subscription{Primary: primary, Rest: rest}, nil
	case "":
		return nil, fmt.Errorf("plan node is missing its kind")
	default:
		return nil, fmt.Errorf("unknown plan node kind %q", raw.Kind)
	}
}

func decodeNodes(raw []json.RawMessage) ([]Node, error) {
	nodes := make([]Node, 0, len(raw))
	for _, r := range raw {
		n, err := decodeNode(r)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func decodeFetch(data []byte) (*Fetch, error) {
	var raw struct {
		ServiceName   string `json:"serviceName"`
		OperationName string `json:"operationName"`
		Operation     string `json:"operation"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw.ServiceName == "" {
		return nil, fmt.Errorf("fetch node is missing its serviceName")
	}
	return &Fetch{
		ServiceName:   raw.ServiceName,
		OperationName: raw.OperationName,
		Operation:     NewSubgraphOperation(raw.Operation),
	}, nil
}

func decodeDefer(raw rawNode) (*Defer, error) {
	d := &Defer{}
	if raw.Primary != nil {
		var rawPrimary struct {
			Subselection string          `json:"subselection"`
			Node         json.RawMessage `json:"node"`
		}
		if err := json.Unmarshal(raw.Primary, &rawPrimary); err != nil {
			return nil, err
		}
		node, err := decodeNode(rawPrimary.Node)
		if err != nil {
			return nil, err
		}
		d.Primary = &Primary{Subselection: rawPrimary.Subselection, Node: node}
	}
	for _, r := range raw.Deferred {
		var rawDeferred struct {
			Label        string          `json:"label"`
			QueryPath    []string        `json:"queryPath"`
			Subselection string          `json:"subselection"`
			Node         json.RawMessage `json:"node"`
		}
		if err := json.Unmarshal(r, &rawDeferred); err != nil {
			return nil, err
		}
		node, err := decodeNode(rawDeferred.Node)
		if err != nil {
			return nil, err
		}
		d.Deferred = append(d.Deferred, &DeferredNode{
			Label:        rawDeferred.Label,
			QueryPath:    rawDeferred.QueryPath,
			Subselection: rawDeferred.Subselection,
			Node:         node,
		})
	}
	return d, nil
}
