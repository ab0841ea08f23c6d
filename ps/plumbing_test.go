package ps

import (
	"errors"
	"testing"
)

func TestPlumbingWriteAndReadFile(t *testing.T) {
	p := newTestPersistence(t)

	txn, err := p.WriteFileDirect("a/b/c.json", []byte(`{"x": 1}`), testIdentity, "write")
	if err != nil {
		t.Fatalf("WriteFileDirect failed: %v", err)
	}
	if txn.Id == "" {
		t.Error("Transaction ID should not be empty")
	}

	data, err := p.ReadFileDirect("a/b/c.json")
	if err != nil {
		t.Fatalf("ReadFileDirect failed: %v", err)
	}
	if string(data) != `{"x": 1}` {
		t.Errorf("Data mismatch: got %s", string(data))
	}
}

func TestPlumbingWriteFilesSingleCommit(t *testing.T) {
	p := newTestPersistence(t)

	files := map[string][]byte{
		"dir/one":       []byte("1"),
		"dir/two":       []byte("2"),
		"dir/sub/three": []byte("3"),
	}
	txn, err := p.WriteFilesDirect(files, testIdentity, "batch")
	if err != nil {
		t.Fatalf("WriteFilesDirect failed: %v", err)
	}

	transactions, err := p.TransactionsSince(txn.When.Add(-1e9))
	if err != nil {
		t.Fatalf("TransactionsSince failed: %v", err)
	}
	if len(transactions) != 1 {
		t.Errorf("Expected 1 commit, got %d", len(transactions))
	}

	entries, err := p.ListEntriesDirect("dir")
	if err != nil {
		t.Fatalf("ListEntriesDirect failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %v", entries)
	}
	// Git orders directories as name + "/".
	expected := []TreeEntry{{Name: "one"}, {Name: "sub", IsDir: true}, {Name: "two"}}
	for i, entry := range expected {
		if entries[i] != entry {
			t.Errorf("Entry %d: expected %v, got %v", i, entry, entries[i])
		}
	}
}

func TestPlumbingOverwriteFile(t *testing.T) {
	p := newTestPersistence(t)

	if _, err := p.WriteFileDirect("f", []byte("old"), testIdentity, "first"); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if _, err := p.WriteFileDirect("f", []byte("new"), testIdentity, "second"); err != nil {
		t.Fatalf("second write failed: %v", err)
	}

	data, err := p.ReadFileDirect("f")
	if err != nil {
		t.Fatalf("ReadFileDirect failed: %v", err)
	}
	if string(data) != "new" {
		t.Errorf("Expected new, got %s", data)
	}
}

func TestPlumbingDeletePath(t *testing.T) {
	p := newTestPersistence(t)

	files := map[string][]byte{
		"keep/a":   []byte("a"),
		"remove/b": []byte("b"),
		"remove/c": []byte("c"),
	}
	if _, err := p.WriteFilesDirect(files, testIdentity, "setup"); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	if _, err := p.DeletePathDirect([]string{"remove"}, testIdentity, "delete dir"); err != nil {
		t.Fatalf("DeletePathDirect failed: %v", err)
	}

	if _, err := p.ReadFileDirect("remove/b"); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("Expected ErrFileNotFound, got %v", err)
	}
	if _, err := p.ReadFileDirect("keep/a"); err != nil {
		t.Errorf("Expected keep/a to survive: %v", err)
	}
}

func TestPlumbingDeleteOnEmptyRepository(t *testing.T) {
	p := newTestPersistence(t)

	if _, err := p.DeletePathDirect([]string{"x"}, testIdentity, "delete"); err == nil {
		t.Error("Expected error deleting from an empty repository")
	}
}

func TestPlumbingListMissingDirectory(t *testing.T) {
	p := newTestPersistence(t)

	entries, err := p.ListEntriesDirect("nothing/here")
	if err != nil || len(entries) != 0 {
		t.Errorf("Expected empty listing, got %v, %v", entries, err)
	}
}
