package forecast

import (
	"math"
	"sort"
)

// treeNode is a regression tree node; leaves have left == nil.
type treeNode struct {
	feature   int
	threshold float64
	value     float64
	left      *treeNode
	right     *treeNode
}

func (n *treeNode) predict(x []float64) float64 {
	for n.left != nil {
		if x[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

// gbrt is a gradient-boosted ensemble of regression trees under squared
// error. Splits are searched exhaustively so fitting is deterministic.
type gbrt struct {
	init         float64
	learningRate float64
	trees        []*treeNode
}

type gbrtParams struct {
	trees        int
	learningRate float64
	maxDepth     int
}

func fitGBRT(x [][]float64, y []float64, p gbrtParams) *gbrt {
	m := &gbrt{learningRate: p.learningRate}
	if len(y) == 0 {
		return m
	}
	for _, v := range y {
		m.init += v
	}
	m.init /= float64(len(y))

	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = m.init
	}
	resid := make([]float64, len(y))
	idx := make([]int, len(y))
	for t := 0; t < p.trees; t++ {
		for i := range y {
			resid[i] = y[i] - pred[i]
			idx[i] = i
		}
		tree := buildTree(x, resid, idx, 0, p.maxDepth)
		for i := range pred {
			pred[i] += m.learningRate * tree.predict(x[i])
		}
		m.trees = append(m.trees, tree)
	}
	return m
}

func (m *gbrt) predict(x []float64) float64 {
	out := m.init
	for _, t := range m.trees {
		out += m.learningRate * t.predict(x)
	}
	return out
}

func buildTree(x [][]float64, y []float64, idx []int, depth, maxDepth int) *treeNode {
	sum := 0.0
	for _, i := range idx {
		sum += y[i]
	}
	leaf := &treeNode{value: sum / float64(len(idx))}
	if depth >= maxDepth || len(idx) < 2 {
		return leaf
	}

	feature, threshold, ok := bestSplit(x, y, idx, sum)
	if !ok {
		return leaf
	}
	var left, right []int
	for _, i := range idx {
		if x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return leaf
	}
	leaf.feature, leaf.threshold = feature, threshold
	leaf.left = buildTree(x, y, left, depth+1, maxDepth)
	leaf.right = buildTree(x, y, right, depth+1, maxDepth)
	return leaf
}

// bestSplit maximises the reduction in squared error, which for a fixed
// node equals maximising sumL²/nL + sumR²/nR. Ties keep the earliest
// feature and threshold.
func bestSplit(x [][]float64, y []float64, idx []int, total float64) (feature int, threshold float64, ok bool) {
	n := float64(len(idx))
	best := total * total / n
	order := make([]int, len(idx))
	nFeatures := len(x[idx[0]])

	for f := 0; f < nFeatures; f++ {
		copy(order, idx)
		sort.SliceStable(order, func(a, b int) bool { return x[order[a]][f] < x[order[b]][f] })

		leftSum := 0.0
		for k := 0; k < len(order)-1; k++ {
			leftSum += y[order[k]]
			lo, hi := x[order[k]][f], x[order[k+1]][f]
			if lo == hi {
				continue
			}
			nl := float64(k + 1)
			rightSum := total - leftSum
			score := leftSum*leftSum/nl + rightSum*rightSum/(n-nl)
			if score > best+1e-12*math.Abs(best) {
				best, feature, threshold, ok = score, f, (lo+hi)/2, true
			}
		}
	}
	return feature, threshold, ok
}
