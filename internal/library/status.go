package library

// Status is the display tri-state for a folder. The partial state only
// exists here, computed transiently for child listings; the persisted tree
// stores plain booleans.
type Status string

const (
	StatusProcessed   Status = "processed"
	StatusUnprocessed Status = "unprocessed"
	StatusPartial     Status = "partial"
)

// ChildStatus describes one direct child of a listed folder.
type ChildStatus struct {
	Name          string `json:"name"`
	NumSubfolders int    `json:"num_subfolders"`
	NumFiles      int    `json:"num_files"`
	Status        Status `json:"status"`
}

// ChildStatuses lists the direct children of the node at path with their
// derived tri-state status. A child with both processed and unprocessed
// subfolders is partial, as is an unprocessed child whose subfolders are all
// processed; otherwise the status mirrors the child's own flag. Returns nil
// when the path is unknown.
func (t Tree) ChildStatuses(path string) []ChildStatus {
	node := t.Find(path)
	if node == nil {
		return nil
	}

	statuses := make([]ChildStatus, 0, len(node.Subfolders))
	for name, child := range node.Subfolders {
		statuses = append(statuses, ChildStatus{
			Name:          name,
			NumSubfolders: child.NumSubfolders,
			NumFiles:      child.NumFiles,
			Status:        deriveStatus(child),
		})
	}
	return statuses
}

func deriveStatus(n *Node) Status {
	status := StatusUnprocessed
	if n.Processed {
		status = StatusProcessed
	}
	if len(n.Subfolders) == 0 {
		return status
	}

	hasProcessed := false
	hasUnprocessed := false
	for _, child := range n.Subfolders {
		if child.Processed {
			hasProcessed = true
		} else {
			hasUnprocessed = true
		}
		if hasProcessed && hasUnprocessed {
			break
		}
	}
	if hasProcessed && hasUnprocessed {
		return StatusPartial
	}
	if !n.Processed && hasProcessed && !hasUnprocessed {
		return StatusPartial
	}
	return status
}
