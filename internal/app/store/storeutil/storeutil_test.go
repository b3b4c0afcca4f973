package storeutil

import "testing"

func TestPaginate(t *testing.T) {
	opts := Paginate(10, 3)
	if *opts.Limit != 10 || *opts.Skip != 20 {
		t.Errorf("Paginate(10, 3) = limit %d skip %d, want 10/20", *opts.Limit, *opts.Skip)
	}

	opts = Paginate(0, 0)
	if *opts.Limit != 20 || *opts.Skip != 0 {
		t.Errorf("Paginate(0, 0) = limit %d skip %d, want 20/0", *opts.Limit, *opts.Skip)
	}
}

func TestPageCount(t *testing.T) {
	tests := []struct {
		total, limit, want int64
	}{
		{0, 20, 1},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{5, 2, 3},
	}
	for _, tt := range tests {
		if got := PageCount(tt.total, tt.limit); got != tt.want {
			t.Errorf("PageCount(%d, %d) = %d, want %d", tt.total, tt.limit, got, tt.want)
		}
	}
}
