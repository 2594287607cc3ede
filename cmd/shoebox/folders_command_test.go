package main

import (
	"path/filepath"
	"testing"

	"shoebox/internal/library"
	"shoebox/internal/testsupport"
)

func TestCLIFoldersMarkAndRescan(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteTree(t, env.cfg.Paths.OriginalsDir, "2/a.jpg", "10/b.jpg")

	out, _, err := runCLI(t, []string{"rescan"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("rescan: %v", err)
	}
	requireContains(t, out, "Rescan complete")

	out, _, err = runCLI(t, []string{"folders"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("folders: %v", err)
	}
	requireContains(t, out, "2")
	requireContains(t, out, "10")
	requireContains(t, out, string(library.StatusUnprocessed))

	target := filepath.Join(env.cfg.Paths.OriginalsDir, "2")
	out, _, err = runCLI(t, []string{"mark", target}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	requireContains(t, out, "Marked")

	out, _, err = runCLI(t, []string{"folders"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("folders after mark: %v", err)
	}
	requireContains(t, out, string(library.StatusProcessed))

	if _, _, err := runCLI(t, []string{"mark", filepath.Join(env.cfg.Paths.OriginalsDir, "ghost")}, env.socketPath, env.configPath); err == nil {
		t.Fatal("expected error for unknown folder")
	}
}

func TestSortFolderRowsNumeric(t *testing.T) {
	rows := []library.ChildStatus{
		{Name: "10"},
		{Name: "2"},
		{Name: "2021-06"},
		{Name: "2021-05"},
	}
	sortFolderRows(rows)
	want := []string{"2", "10", "2021-05", "2021-06"}
	for i, name := range want {
		if rows[i].Name != name {
			t.Fatalf("rows[%d] = %q, want %q (%+v)", i, rows[i].Name, name, rows)
		}
	}
}
