package ml

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Regressor kinds understood by the inference engine.
const (
	RegressorLinear = "linear"
	RegressorForest = "forest"
)

// Regressor is the serialized estimator of an artifact. Linear models use
// Intercept and Coefficients; forests average the leaf values of Trees.
type Regressor struct {
	Kind         string    `json:"kind"`
	Intercept    float64   `json:"intercept,omitempty"`
	Coefficients []float64 `json:"coefficients,omitempty"`
	Trees        []Tree    `json:"trees,omitempty"`
}

// Tree is a binary regression tree stored as a flat node list. Node 0 is
// the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Node splits on Feature <= Threshold. A node with Left < 0 is a leaf that
// yields Value.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// IsLeaf reports whether n terminates a path.
func (n Node) IsLeaf() bool {
	return n.Left < 0
}

// validate checks the regressor against the width of the transformed
// feature vector.
func (r Regressor) validate(width int) error {
	switch r.Kind {
	case RegressorLinear:
		if len(r.Coefficients) != width {
			return fmt.Errorf("linear regressor has %d coefficients, schema produces %d features",
				len(r.Coefficients), width)
		}
	case RegressorForest:
		if len(r.Trees) == 0 {
			return errors.New("forest regressor has no trees")
		}
		for i, t := range r.Trees {
			if err := t.validate(width); err != nil {
				return fmt.Errorf("tree %d: %w", i, err)
			}
		}
	default:
		return fmt.Errorf("unknown regressor kind %q", r.Kind)
	}
	return nil
}

// Children always point forward in the node list, so traversal terminates.
func (t Tree) validate(width int) error {
	if len(t.Nodes) == 0 {
		return errors.New("empty tree")
	}
	for i, n := range t.Nodes {
		if n.IsLeaf() {
			continue
		}
		if n.Feature < 0 || n.Feature >= width {
			return fmt.Errorf("node %d splits on feature %d outside [0,%d)", i, n.Feature, width)
		}
		if n.Left <= i || n.Left >= len(t.Nodes) || n.Right <= i || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d has invalid children %d/%d", i, n.Left, n.Right)
		}
	}
	return nil
}

// Predict evaluates the regressor on a transformed feature vector.
func (r Regressor) Predict(x []float64) (float64, error) {
	switch r.Kind {
	case RegressorLinear:
		if len(x) != len(r.Coefficients) {
			return 0, fmt.Errorf("expected %d features, got %d", len(r.Coefficients), len(x))
		}
		return r.Intercept + floats.Dot(r.Coefficients, x), nil
	case RegressorForest:
		if len(r.Trees) == 0 {
			return 0, errors.New("forest regressor has no trees")
		}
		var sum float64
		for _, t := range r.Trees {
			v, err := t.predict(x)
			if err != nil {
				return 0, err
			}
			sum += v
		}
		return sum / float64(len(r.Trees)), nil
	default:
		return 0, fmt.Errorf("unknown regressor kind %q", r.Kind)
	}
}

func (t Tree) predict(x []float64) (float64, error) {
	i := 0
	for {
		if i < 0 || i >= len(t.Nodes) {
			return 0, fmt.Errorf("tree walked to node %d of %d", i, len(t.Nodes))
		}
		n := t.Nodes[i]
		if n.IsLeaf() {
			return n.Value, nil
		}
		if n.Feature < 0 || n.Feature >= len(x) {
			return 0, fmt.Errorf("split feature %d out of range", n.Feature)
		}
		next := n.Right
		if x[n.Feature] <= n.Threshold {
			next = n.Left
		}
		if next <= i {
			return 0, fmt.Errorf("node %d points backwards to %d", i, next)
		}
		i = next
	}
}
