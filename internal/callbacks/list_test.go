package callbacks

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestListAppendOrder(t *testing.T) {
	l := New[int]()
	if l.Len() != 0 {
		t.Fatalf("expected empty list, got %d", l.Len())
	}

	want := []int{4, 2, 7, 1, 8}
	for _, v := range want {
		l.Append(v)
	}

	var got []int
	l.ForEach(func(v int) {
		got = append(got, v)
	})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("traversal order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, l.Snapshot()); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestListSentinelNeverVisited(t *testing.T) {
	l := New[func()]()
	visited := 0
	l.ForEach(func(fn func()) {
		visited++
	})
	if visited != 0 {
		t.Errorf("expected no visits on empty list, got %d", visited)
	}
	if l.Snapshot() != nil {
		t.Error("expected nil snapshot on empty list")
	}
}

func TestListReset(t *testing.T) {
	l := New[string]()
	l.Append("a")
	l.Append("b")
	l.Reset()

	if l.Len() != 0 {
		t.Errorf("expected 0 after reset, got %d", l.Len())
	}
	l.ForEach(func(s string) {
		t.Errorf("unexpected visit of %q after reset", s)
	})

	// appending after reset starts a fresh chain
	l.Append("c")
	if diff := cmp.Diff([]string{"c"}, l.Snapshot()); diff != "" {
		t.Errorf("append after reset (-want +got):\n%s", diff)
	}
}

func TestListZeroValue(t *testing.T) {
	var l List[int]
	l.Append(1)
	l.Append(2)
	if diff := cmp.Diff([]int{1, 2}, l.Snapshot()); diff != "" {
		t.Errorf("zero value list (-want +got):\n%s", diff)
	}
}

func TestListAppendDuringTraversal(t *testing.T) {
	l := New[int]()
	l.Append(1)

	var got []int
	l.ForEach(func(v int) {
		got = append(got, v)
		if v == 1 {
			l.Append(2)
		}
	})
	if diff := cmp.Diff([]int{1, 2}, got); diff != "" {
		t.Errorf("append during traversal (-want +got):\n%s", diff)
	}
}
