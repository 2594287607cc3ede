package library

// Merge reconciles a freshly scanned tree against a previously persisted
// one. Every path marked processed in previous that still exists in fresh is
// re-marked processed; paths deleted on disk are dropped silently; new paths
// default to unprocessed. The fresh tree is mutated and returned, making
// rescans idempotent with respect to operator-applied processed marks.
func Merge(fresh, previous Tree) Tree {
	processed := map[string]struct{}{}
	for _, node := range previous {
		collectProcessed(node, processed)
	}
	for _, node := range fresh {
		applyProcessed(node, processed)
	}
	return fresh
}

func collectProcessed(n *Node, processed map[string]struct{}) {
	if n == nil {
		return
	}
	if n.Processed {
		processed[n.Path] = struct{}{}
	}
	for _, child := range n.Subfolders {
		collectProcessed(child, processed)
	}
}

func applyProcessed(n *Node, processed map[string]struct{}) {
	if n == nil {
		return
	}
	if _, ok := processed[n.Path]; ok {
		n.Processed = true
	}
	for _, child := range n.Subfolders {
		applyProcessed(child, processed)
	}
}
