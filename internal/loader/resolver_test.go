package loader

import (
	"errors"
	"testing"
)

func TestIDSet(t *testing.T) {
	s := make(idSet)
	if s.has(1) {
		t.Error("Empty set should not contain 1")
	}
	s.add(1)
	s.add(42)
	if !s.has(1) || !s.has(42) {
		t.Error("Set lost an added id")
	}
	if s.has(2) {
		t.Error("Set contains an id that was never added")
	}
}

func TestNameIndexLookup(t *testing.T) {
	index := newNameIndex()
	index.add("Santa Cruz Bikes", 1)
	index.add("Baldwin Bikes", 2)

	id, err := index.lookup("store_name", "Santa Cruz Bikes")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if id != 1 {
		t.Errorf("Expected id 1, got %d", id)
	}

	_, err = index.lookup("store_name", "Rowlett Bikes")
	if err == nil {
		t.Fatal("Expected error for unknown name, got none")
	}
	var unknown *UnknownReferenceError
	if !errors.As(err, &unknown) {
		t.Fatalf("Expected UnknownReferenceError, got %T", err)
	}
	if unknown.Column != "store_name" || unknown.Value != "Rowlett Bikes" {
		t.Errorf("Error names wrong reference: %v", err)
	}
}

func TestNameIndexAmbiguous(t *testing.T) {
	// Two staff rows can share a full name. Resolving that name must
	// fail rather than pick one of them.
	index := newNameIndex()
	index.add("Jane Doe", 7)
	index.add("John Smith", 8)
	index.add("Jane Doe", 9)

	if index.len() != 2 {
		t.Errorf("Expected 2 distinct names, got %d", index.len())
	}

	_, err := index.lookup("manager_name", "Jane Doe")
	if err == nil {
		t.Fatal("Expected error for ambiguous name, got none")
	}
	var ambiguous *AmbiguousReferenceError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("Expected AmbiguousReferenceError, got %T", err)
	}
	if ambiguous.Count != 2 {
		t.Errorf("Expected count 2, got %d", ambiguous.Count)
	}

	// Unambiguous names keep resolving.
	id, err := index.lookup("manager_name", "John Smith")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if id != 8 {
		t.Errorf("Expected id 8, got %d", id)
	}
}
