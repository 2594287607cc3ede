package library

import (
	"log/slog"
	"os"
	"path/filepath"

	"shoebox/internal/logging"
)

// Node represents one directory in the folder status tree.
//
// Invariants: NumFiles == len(Files), NumSubfolders == len(Subfolders), and
// every child's Path equals the parent Path + "/" + its key. Processed is
// only ever true or false here; the partial state is derived at display time
// and never persisted.
type Node struct {
	Processed     bool             `json:"processed"`
	Path          string           `json:"path"`
	NumFiles      int              `json:"num_files"`
	NumSubfolders int              `json:"num_subfolders"`
	Files         []string         `json:"files"`
	Subfolders    map[string]*Node `json:"subfolders"`
}

// Tree is a persisted snapshot: a flat object keyed by root path.
type Tree map[string]*Node

// NewNode returns an empty unprocessed node for the given path.
func NewNode(path string) *Node {
	return &Node{
		Path:       path,
		Files:      []string{},
		Subfolders: map[string]*Node{},
	}
}

// Scan recursively enumerates the directory at path and builds a fresh tree
// node with every processed flag false. Scanning is best effort: a
// permission or I/O error at any node degrades that node to an empty node
// and is logged, never propagated. Partial trees are acceptable, total
// failure is not.
func Scan(path string, logger *slog.Logger) *Node {
	node := NewNode(path)

	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return node
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		logging.WarnWithContext(logger, "directory scan failed; subtree recorded as empty", "scan_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "folder contents missing from status tree until next rescan"),
		)
		return node
	}

	for _, entry := range entries {
		fullPath := filepath.Join(path, entry.Name())
		if entry.IsDir() {
			node.Subfolders[entry.Name()] = Scan(fullPath, logger)
			continue
		}
		node.Files = append(node.Files, entry.Name())
	}
	node.NumFiles = len(node.Files)
	node.NumSubfolders = len(node.Subfolders)

	return node
}

// Find locates the unique node with the given path via depth-first search.
// Returns nil when no node matches.
func (t Tree) Find(path string) *Node {
	for _, node := range t {
		if found := node.find(path); found != nil {
			return found
		}
	}
	return nil
}

func (n *Node) find(path string) *Node {
	if n == nil {
		return nil
	}
	if n.Path == path {
		return n
	}
	for _, child := range n.Subfolders {
		if found := child.find(path); found != nil {
			return found
		}
	}
	return nil
}

// SetProcessed locates the node with the given path and sets its processed
// flag. When recursive is true the flag is also propagated to every
// descendant leaf. Returns whether the path was found.
func (t Tree) SetProcessed(path string, flag bool, recursive bool) bool {
	node := t.Find(path)
	if node == nil {
		return false
	}
	node.Processed = flag
	if recursive {
		setLeafProcessed(node.Subfolders, flag)
	}
	return true
}

func setLeafProcessed(subfolders map[string]*Node, flag bool) {
	for _, child := range subfolders {
		if len(child.Subfolders) != 0 {
			setLeafProcessed(child.Subfolders, flag)
			continue
		}
		child.Processed = flag
	}
}
