package artifact

import (
	"context"
	"fmt"
)

// TreeSpec mirrors the node arrays of a fitted decision tree. Node 0 is the root;
// a node is a leaf when its left child is -1. Value holds per-class weights at each node.
type TreeSpec struct {
	ChildrenLeft  []int       `yaml:"children_left"`
	ChildrenRight []int       `yaml:"children_right"`
	Feature       []int       `yaml:"feature"`
	Threshold     []float64   `yaml:"threshold"`
	Value         [][]float64 `yaml:"value"`
}

type tree struct {
	left, right []int
	feature     []int
	threshold   []float64
	leafProba   [][]float64 // normalizzato solo sulle foglie
}

// ForestClassifier averages the leaf distributions of its trees, like a random forest.
// A forest of one tree is a plain decision tree.
type ForestClassifier struct {
	classes []string
	width   int
	trees   []tree
}

func NewForestClassifier(classes []string, specs []TreeSpec, width int) (*ForestClassifier, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: forest has no trees", ErrShape)
	}
	f := &ForestClassifier{classes: append([]string(nil), classes...), width: width}
	for i, s := range specs {
		t, err := buildTree(s, len(classes), width)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		f.trees = append(f.trees, t)
	}
	return f, nil
}

func buildTree(s TreeSpec, nClasses, width int) (tree, error) {
	n := len(s.ChildrenLeft)
	if n == 0 || len(s.ChildrenRight) != n || len(s.Feature) != n || len(s.Threshold) != n || len(s.Value) != n {
		return tree{}, fmt.Errorf("%w: node arrays have different lengths", ErrShape)
	}
	t := tree{
		left:      s.ChildrenLeft,
		right:     s.ChildrenRight,
		feature:   s.Feature,
		threshold: s.Threshold,
		leafProba: make([][]float64, n),
	}
	for i := 0; i < n; i++ {
		l, r := s.ChildrenLeft[i], s.ChildrenRight[i]
		if l == -1 {
			if len(s.Value[i]) != nClasses {
				return tree{}, fmt.Errorf("%w: leaf %d has %d values for %d classes", ErrShape, i, len(s.Value[i]), nClasses)
			}
			t.leafProba[i] = normalize(s.Value[i])
			continue
		}
		// i figli stanno sempre dopo il padre: niente cicli
		if l <= i || l >= n || r <= i || r >= n {
			return tree{}, fmt.Errorf("%w: node %d has children %d/%d out of range", ErrShape, i, l, r)
		}
		if f := s.Feature[i]; f < 0 || f >= width {
			return tree{}, fmt.Errorf("%w: node %d splits on feature %d of %d", ErrShape, i, f, width)
		}
	}
	return t, nil
}

func (t tree) leaf(row []float64) []float64 {
	node := 0
	for t.left[node] != -1 {
		if row[t.feature[node]] <= t.threshold[node] {
			node = t.left[node]
		} else {
			node = t.right[node]
		}
	}
	return t.leafProba[node]
}

func (f *ForestClassifier) Classes() []string {
	return append([]string(nil), f.classes...)
}

func (f *ForestClassifier) PredictProba(_ context.Context, x [][]float64) ([][]float64, error) {
	if err := checkWidth(x, f.width); err != nil {
		return nil, err
	}
	out := make([][]float64, len(x))
	for i, row := range x {
		acc := make([]float64, len(f.classes))
		for _, t := range f.trees {
			for k, p := range t.leaf(row) {
				acc[k] += p
			}
		}
		for k := range acc {
			acc[k] /= float64(len(f.trees))
		}
		out[i] = acc
	}
	return out, nil
}
