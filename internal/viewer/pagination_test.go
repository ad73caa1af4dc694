package viewer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalPages(t *testing.T) {
	tests := []struct {
		name string
		n    int
		size int
		want int
	}{
		{name: "empty", n: 0, size: 15, want: 0},
		{name: "single partial page", n: 1, size: 15, want: 1},
		{name: "exactly one page", n: 15, size: 15, want: 1},
		{name: "one over", n: 16, size: 15, want: 2},
		{name: "thirty two", n: 32, size: 15, want: 3},
		{name: "evenly divisible", n: 45, size: 15, want: 3},
		{name: "invalid size", n: 10, size: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TotalPages(tt.n, tt.size))
		})
	}
}

// Every page size and record count partitions [0, n) into ceil(n/p) consecutive windows where all
// windows but the last hold exactly p items.
func TestWindow_PartitionsAllRecords(t *testing.T) {
	for size := 1; size <= 20; size++ {
		for n := 0; n <= 100; n++ {
			pages := TotalPages(n, size)
			require.Equal(t, (n+size-1)/size, pages, "n=%d size=%d", n, size)

			next := 0
			for page := 1; page <= pages; page++ {
				start, end := Window(n, page, size)
				require.Equal(t, next, start, "gap or overlap at n=%d size=%d page=%d", n, size, page)
				require.LessOrEqual(t, end-start, size)
				if page < pages {
					require.Equal(t, size, end-start)
				} else {
					wantLast := n - size*(pages-1)
					require.Equal(t, wantLast, end-start, "last page n=%d size=%d", n, size)
				}
				next = end
			}
			require.Equal(t, n, next, "records omitted at n=%d size=%d", n, size)
		}
	}
}

func TestWindow_OutOfRange(t *testing.T) {
	for _, page := range []int{-1, 0, 4, 100} {
		start, end := Window(32, page, 15)
		assert.Equal(t, 0, start, "page %d", page)
		assert.Equal(t, 0, end, "page %d", page)
	}
}
