package backing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetRow_Buckets(t *testing.T) {
	tests := []struct {
		name      string
		width     int
		expectCap int
	}{
		{"64-bucket exact", 64, width64},
		{"64-bucket smaller", 10, width64},
		{"256-bucket exact", 256, width256},
		{"1024-bucket exact", 1024, width1024},
		{"4096-bucket exact", 4096, width4096},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := GetRow(tt.width)
			require.Len(t, row, tt.width)
			require.Equal(t, tt.expectCap, cap(row))
			PutRow(row)
		})
	}
}

func TestGetRow_OversizedFallsBackToAlloc(t *testing.T) {
	row := GetRow(8192)
	require.Len(t, row, 8192)
	PutRow(row) // must not panic even though it won't match a bucket
}

func TestPutRow_NonStandardCapacityIsDropped(t *testing.T) {
	row := make([]Address, 100) // not a bucket size
	PutRow(row)                 // should not panic
}
