package sets

import "testing"

func TestSetInsert(t *testing.T) {
	s := New("a")
	if s.Insert("a") {
		t.Fatal("Insert of existing value reported new")
	}
	if !s.Insert("b") {
		t.Fatal("Insert of new value reported existing")
	}
	if !s.Has("b") || len(s) != 2 {
		t.Fatalf("unexpected set contents: %v", s)
	}
	s.Delete("a")
	if s.Has("a") {
		t.Fatal("Delete did not remove value")
	}
}
