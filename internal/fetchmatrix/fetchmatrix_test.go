package fetchmatrix

import "testing"

// Invariant 1: the non-sentinel entries of F in row-major order equal the
// original input stream.
func TestBuildPreservesRowMajorOrder(t *testing.T) {
	logical := [][]Address{{0, 1, 2}, {3, 4, 5}, {6, 7}}
	m := Build(logical, 4)

	var got []Address
	for _, row := range m.Rows {
		for _, a := range row {
			if a != NoAddress {
				got = append(got, a)
			}
		}
	}

	want := []Address{0, 1, 2, 3, 4, 5, 6, 7}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestBuildPadsTailWithSentinel(t *testing.T) {
	m := Build([][]Address{{0, 1, 2}}, 4)
	if m.NumRows() != 1 {
		t.Fatalf("expected 1 row, got %d", m.NumRows())
	}
	if m.Rows[0][3] != NoAddress {
		t.Errorf("expected tail padding to be sentinel, got %d", m.Rows[0][3])
	}
}

func TestBuildExactMultipleNoPadding(t *testing.T) {
	m := Build([][]Address{{0, 1, 2, 3}, {4, 5, 6, 7}}, 4)
	if m.NumRows() != 2 {
		t.Fatalf("expected 2 rows, got %d", m.NumRows())
	}
	for _, row := range m.Rows {
		for _, a := range row {
			if a == NoAddress {
				t.Errorf("unexpected sentinel in exact-multiple matrix: %v", m.Rows)
			}
		}
	}
}
