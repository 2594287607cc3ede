package library_test

import (
	"os"
	"path/filepath"
	"testing"

	"shoebox/internal/library"
	"shoebox/internal/logging"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScanBuildsTreeWithCounts(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.jpg"))
	writeFile(t, filepath.Join(root, "b.jpg"))
	writeFile(t, filepath.Join(root, "2021", "07", "c.jpg"))
	writeFile(t, filepath.Join(root, "misc", "d.txt"))

	node := library.Scan(root, logging.NewNop())

	if node.Path != root {
		t.Fatalf("unexpected root path: %q", node.Path)
	}
	if node.NumFiles != 2 || len(node.Files) != 2 {
		t.Fatalf("unexpected file count: %d (%v)", node.NumFiles, node.Files)
	}
	if node.NumSubfolders != 2 || len(node.Subfolders) != 2 {
		t.Fatalf("unexpected subfolder count: %d", node.NumSubfolders)
	}
	year := node.Subfolders["2021"]
	if year == nil {
		t.Fatal("expected 2021 subfolder")
	}
	if year.Path != filepath.Join(root, "2021") {
		t.Fatalf("child path mismatch: %q", year.Path)
	}
	month := year.Subfolders["07"]
	if month == nil || month.NumFiles != 1 {
		t.Fatalf("expected one file under 2021/07, got %+v", month)
	}
	if node.Processed || year.Processed {
		t.Fatal("fresh scan must be unprocessed everywhere")
	}
}

func TestScanMissingPathDegradesToEmptyNode(t *testing.T) {
	node := library.Scan(filepath.Join(t.TempDir(), "absent"), logging.NewNop())
	if node == nil {
		t.Fatal("expected node, got nil")
	}
	if node.NumFiles != 0 || node.NumSubfolders != 0 {
		t.Fatalf("expected empty node, got %+v", node)
	}
	if node.Files == nil || node.Subfolders == nil {
		t.Fatal("empty node must keep non-nil collections")
	}
}

func TestMergePreservesProcessedFlagsAcrossRescan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "2020", "a.jpg"))
	writeFile(t, filepath.Join(root, "2021", "b.jpg"))

	previous := library.Tree{root: library.Scan(root, logging.NewNop())}
	if !previous.SetProcessed(filepath.Join(root, "2020"), true, false) {
		t.Fatal("expected to mark 2020 processed")
	}

	// New folder appears on disk, rescan, merge.
	writeFile(t, filepath.Join(root, "2022", "c.jpg"))
	fresh := library.Tree{root: library.Scan(root, logging.NewNop())}
	merged := library.Merge(fresh, previous)

	if !merged.Find(filepath.Join(root, "2020")).Processed {
		t.Fatal("processed flag lost across rescan")
	}
	if merged.Find(filepath.Join(root, "2021")).Processed {
		t.Fatal("2021 should stay unprocessed")
	}
	if merged.Find(filepath.Join(root, "2022")).Processed {
		t.Fatal("new folder must default to unprocessed")
	}
}

func TestMergeDropsDeletedFolders(t *testing.T) {
	root := t.TempDir()
	doomed := filepath.Join(root, "doomed")
	writeFile(t, filepath.Join(doomed, "a.jpg"))

	previous := library.Tree{root: library.Scan(root, logging.NewNop())}
	previous.SetProcessed(doomed, true, false)

	if err := os.RemoveAll(doomed); err != nil {
		t.Fatal(err)
	}
	merged := library.Merge(library.Tree{root: library.Scan(root, logging.NewNop())}, previous)

	if merged.Find(doomed) != nil {
		t.Fatal("deleted folder resurrected by merge")
	}
}

func TestSetProcessedRecursiveFlagsDescendantLeaves(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "trip", "day1", "a.jpg"))
	writeFile(t, filepath.Join(root, "trip", "day2", "b.jpg"))

	tree := library.Tree{root: library.Scan(root, logging.NewNop())}
	if !tree.SetProcessed(filepath.Join(root, "trip"), true, true) {
		t.Fatal("expected path to be found")
	}

	for _, path := range []string{
		filepath.Join(root, "trip"),
		filepath.Join(root, "trip", "day1"),
		filepath.Join(root, "trip", "day2"),
	} {
		if !tree.Find(path).Processed {
			t.Fatalf("expected %s processed", path)
		}
	}
}

func TestSetProcessedUnknownPath(t *testing.T) {
	root := t.TempDir()
	tree := library.Tree{root: library.Scan(root, logging.NewNop())}
	if tree.SetProcessed(filepath.Join(root, "nope"), true, false) {
		t.Fatal("expected false for unknown path")
	}
}

func TestChildStatusesDerivesPartialState(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "mixed", "done", "a.jpg"))
	writeFile(t, filepath.Join(root, "mixed", "todo", "b.jpg"))
	writeFile(t, filepath.Join(root, "allkids", "one", "c.jpg"))

	tree := library.Tree{root: library.Scan(root, logging.NewNop())}
	tree.SetProcessed(filepath.Join(root, "mixed", "done"), true, false)
	tree.SetProcessed(filepath.Join(root, "allkids", "one"), true, false)

	statuses := tree.ChildStatuses(root)
	byName := map[string]library.Status{}
	for _, child := range statuses {
		byName[child.Name] = child.Status
	}

	if byName["mixed"] != library.StatusPartial {
		t.Fatalf("expected mixed partial, got %q", byName["mixed"])
	}
	// Parent unprocessed but every child processed is also partial.
	if byName["allkids"] != library.StatusPartial {
		t.Fatalf("expected allkids partial, got %q", byName["allkids"])
	}
}

func TestSnapshotSaveCreatesBackupAndRoundTrips(t *testing.T) {
	dir := t.TempDir()
	snapPath := filepath.Join(dir, "folder_status.json")
	snapshot := library.NewSnapshot(snapPath, true, 7, logging.NewNop())

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.jpg"))
	tree := library.Tree{root: library.Scan(root, logging.NewNop())}

	if err := snapshot.Save(tree); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if backups := snapshot.ListBackups(); len(backups) != 0 {
		t.Fatalf("no backup expected for first write, got %d", len(backups))
	}

	tree.SetProcessed(root, true, false)
	if err := snapshot.Save(tree); err != nil {
		t.Fatalf("second save: %v", err)
	}
	backups := snapshot.ListBackups()
	if len(backups) != 1 {
		t.Fatalf("expected one backup, got %d", len(backups))
	}

	loaded, err := snapshot.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !loaded.Find(root).Processed {
		t.Fatal("processed flag lost in round trip")
	}
}

func TestSnapshotRestore(t *testing.T) {
	dir := t.TempDir()
	snapPath := filepath.Join(dir, "folder_status.json")
	snapshot := library.NewSnapshot(snapPath, true, 7, logging.NewNop())

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.jpg"))
	tree := library.Tree{root: library.Scan(root, logging.NewNop())}
	tree.SetProcessed(root, true, false)

	if err := snapshot.Save(tree); err != nil {
		t.Fatal(err)
	}
	tree.SetProcessed(root, false, false)
	if err := snapshot.Save(tree); err != nil {
		t.Fatal(err)
	}

	backups := snapshot.ListBackups()
	if len(backups) == 0 {
		t.Fatal("expected a backup to restore from")
	}
	if err := snapshot.Restore(backups[0].Path); err != nil {
		t.Fatalf("restore: %v", err)
	}

	restored, err := snapshot.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !restored.Find(root).Processed {
		t.Fatal("expected restored tree to carry processed flag")
	}
}

func TestSnapshotLoadMissingFileYieldsEmptyTree(t *testing.T) {
	snapshot := library.NewSnapshot(filepath.Join(t.TempDir(), "none.json"), false, 0, logging.NewNop())
	tree, err := snapshot.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(tree) != 0 {
		t.Fatalf("expected empty tree, got %d roots", len(tree))
	}
}
