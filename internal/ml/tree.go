package ml

import "sort"

const leafFeature = -1

// treeNode is one node in a flattened regression tree. Feature is leafFeature
// for leaves; otherwise rows with vec[Feature] <= Threshold descend Left.
type treeNode struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Value     float64 `json:"v"`
}

// regressionTree is a CART tree stored as a node arena so it round-trips
// through JSON without pointer fixups.
type regressionTree struct {
	Nodes []treeNode `json:"nodes"`
}

type treeParams struct {
	maxDepth    int // 0 means unbounded
	minLeafSize int
}

// buildTree grows a tree on the rows selected by idx and accumulates each
// split's impurity decrease into importances by feature index.
func buildTree(features [][]float64, labels []float64, idx []int, params treeParams, importances []float64) regressionTree {
	var t regressionTree
	t.grow(features, labels, idx, 0, params, importances)
	return t
}

func (t *regressionTree) grow(features [][]float64, labels []float64, idx []int, depth int, params treeParams, importances []float64) int {
	nodeID := len(t.Nodes)
	mean, sse := meanSSE(labels, idx)
	t.Nodes = append(t.Nodes, treeNode{Feature: leafFeature, Value: mean})

	if len(idx) < 2 || len(idx) < 2*params.minLeafSize || sse <= 0 {
		return nodeID
	}
	if params.maxDepth > 0 && depth >= params.maxDepth {
		return nodeID
	}

	feature, threshold, gain, ok := bestSplit(features, labels, idx, sse, params.minLeafSize)
	if !ok {
		return nodeID
	}
	importances[feature] += gain

	var left, right []int
	for _, i := range idx {
		if features[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := t.grow(features, labels, left, depth+1, params, importances)
	r := t.grow(features, labels, right, depth+1, params, importances)
	t.Nodes[nodeID].Feature = feature
	t.Nodes[nodeID].Threshold = threshold
	t.Nodes[nodeID].Left = l
	t.Nodes[nodeID].Right = r
	return nodeID
}

// bestSplit scans every feature for the threshold that most reduces the sum
// of squared errors. Candidate thresholds sit halfway between consecutive
// distinct values, so both children are always non-empty.
func bestSplit(features [][]float64, labels []float64, idx []int, parentSSE float64, minLeaf int) (int, float64, float64, bool) {
	n := len(idx)
	nFeatures := len(features[idx[0]])

	type pair struct{ v, y float64 }
	pairs := make([]pair, n)

	bestGain := 0.0
	bestFeature := -1
	bestThreshold := 0.0

	for f := 0; f < nFeatures; f++ {
		for i, row := range idx {
			pairs[i] = pair{features[row][f], labels[row]}
		}
		sort.Slice(pairs, func(a, b int) bool { return pairs[a].v < pairs[b].v })
		if pairs[0].v == pairs[n-1].v {
			continue
		}

		sumTotal, sqTotal := 0.0, 0.0
		for _, p := range pairs {
			sumTotal += p.y
			sqTotal += p.y * p.y
		}

		sumLeft, sqLeft := 0.0, 0.0
		for i := 0; i < n-1; i++ {
			sumLeft += pairs[i].y
			sqLeft += pairs[i].y * pairs[i].y
			if pairs[i].v == pairs[i+1].v {
				continue
			}
			nl, nr := i+1, n-i-1
			if nl < minLeaf || nr < minLeaf {
				continue
			}
			sseLeft := sqLeft - sumLeft*sumLeft/float64(nl)
			sumRight := sumTotal - sumLeft
			sseRight := (sqTotal - sqLeft) - sumRight*sumRight/float64(nr)
			gain := parentSSE - sseLeft - sseRight
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = (pairs[i].v + pairs[i+1].v) / 2
			}
		}
	}

	if bestFeature < 0 || bestGain <= 1e-12 {
		return 0, 0, 0, false
	}
	return bestFeature, bestThreshold, bestGain, true
}

func (t *regressionTree) predict(vec []float64) float64 {
	node := 0
	for {
		n := t.Nodes[node]
		if n.Feature == leafFeature {
			return n.Value
		}
		if vec[n.Feature] <= n.Threshold {
			node = n.Left
		} else {
			node = n.Right
		}
	}
}

func meanSSE(labels []float64, idx []int) (float64, float64) {
	if len(idx) == 0 {
		return 0, 0
	}
	sum, sq := 0.0, 0.0
	for _, i := range idx {
		sum += labels[i]
		sq += labels[i] * labels[i]
	}
	n := float64(len(idx))
	mean := sum / n
	sse := sq - sum*sum/n
	if sse < 0 {
		sse = 0
	}
	return mean, sse
}
