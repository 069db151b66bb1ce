// Package condition provides the branching node: it evaluates a predicate
// against the current data and selects which successor edges traversal
// follows.
package condition

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/protocol"
	"github.com/maestrohq/maestro/pkg/template"
)

var (
	ErrPathRequired        = errors.New("condition node requires a 'path'")
	ErrOperatorUnknown     = errors.New("unknown condition operator")
	ErrValuesNotComparable = errors.New("values are not comparable")
)

// Node evaluates one comparison. The data it passes downstream is
// unchanged; only the selected successors differ between branches.
type Node struct {
	id           string
	Path         string
	Operator     string
	Value        any
	TrueTargets  []string
	FalseTargets []string
}

func NewNode(id string, config map[string]any) (*Node, error) {
	path, _ := config["path"].(string)
	if path == "" {
		return nil, ErrPathRequired
	}

	operator, _ := config["operator"].(string)
	if operator == "" {
		operator = "eq"
	}

	switch operator {
	case "eq", "neq", "gt", "gte", "lt", "lte", "contains", "exists":
	default:
		return nil, fmt.Errorf("%w: %q", ErrOperatorUnknown, operator)
	}

	return &Node{
		id:           id,
		Path:         path,
		Operator:     operator,
		Value:        config["value"],
		TrueTargets:  stringSlice(config["true_targets"]),
		FalseTargets: stringSlice(config["false_targets"]),
	}, nil
}

func (n *Node) ID() string {
	return n.id
}

func (n *Node) Type() string {
	return models.NodeTypeCondition
}

func (n *Node) Execute(_ context.Context, scope protocol.ExecutionScope) (protocol.NodeOutcome, error) {
	actual, found := template.Lookup(scope.Current, n.Path)

	result, err := n.evaluate(actual, found)
	if err != nil {
		return protocol.NodeOutcome{}, fmt.Errorf("evaluate condition on %q: %w", n.Path, err)
	}

	scope.Logger.Info("Condition evaluated", "path", n.Path, "operator", n.Operator, "result", result)

	return protocol.NodeOutcome{
		Data:            scope.Current,
		SelectedTargets: n.selectTargets(result),
	}, nil
}

// selectTargets maps the branch result to successor IDs. A missing target
// list means "all successors" on the true branch and "no successors" on
// the false branch, so an unconfigured condition acts as a gate.
func (n *Node) selectTargets(result bool) []string {
	if result {
		return n.TrueTargets
	}

	if n.FalseTargets == nil {
		return []string{}
	}

	return n.FalseTargets
}

func (n *Node) evaluate(actual any, found bool) (bool, error) {
	if n.Operator == "exists" {
		return found, nil
	}

	if !found {
		return false, nil
	}

	switch n.Operator {
	case "eq":
		return looseEqual(actual, n.Value), nil
	case "neq":
		return !looseEqual(actual, n.Value), nil
	case "contains":
		return contains(actual, n.Value), nil
	}

	left, leftOK := asFloat(actual)
	right, rightOK := asFloat(n.Value)

	if !leftOK || !rightOK {
		return false, fmt.Errorf("%w: %v %s %v", ErrValuesNotComparable, actual, n.Operator, n.Value)
	}

	switch n.Operator {
	case "gt":
		return left > right, nil
	case "gte":
		return left >= right, nil
	case "lt":
		return left < right, nil
	case "lte":
		return left <= right, nil
	}

	return false, fmt.Errorf("%w: %q", ErrOperatorUnknown, n.Operator)
}

// looseEqual compares with numeric coercion so 42 and 42.0 match after a
// JSON round trip.
func looseEqual(a, b any) bool {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af == bf
		}
	}

	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func contains(haystack, needle any) bool {
	switch value := haystack.(type) {
	case string:
		return strings.Contains(value, fmt.Sprintf("%v", needle))
	case []any:
		for _, item := range value {
			if looseEqual(item, needle) {
				return true
			}
		}

		return false
	default:
		return false
	}
}

func asFloat(v any) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return value, true
	case float32:
		return float64(value), true
	case int:
		return float64(value), true
	case int64:
		return float64(value), true
	default:
		return 0, false
	}
}

func stringSlice(v any) []string {
	switch values := v.(type) {
	case []string:
		return values
	case []any:
		ids := make([]string, 0, len(values))

		for _, item := range values {
			if id, ok := item.(string); ok {
				ids = append(ids, id)
			}
		}

		return ids
	default:
		return nil
	}
}
