package model

import "testing"

func TestGameTypeBounds(t *testing.T) {
	i64 := func(v int64) *int64 { return &v }

	cases := []struct {
		name    string
		gt      GameType
		wantMin int64
		wantMax int64
	}{
		{"defaults when unset", GameType{}, 10, 10000},
		{"explicit min keeps default max", GameType{MinStake: i64(50)}, 50, 10000},
		{"explicit max keeps default min", GameType{MaxStake: i64(500)}, 10, 500},
		{"both explicit", GameType{MinStake: i64(1), MaxStake: i64(99)}, 1, 99},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			min, max := tc.gt.Bounds()
			if min != tc.wantMin || max != tc.wantMax {
				t.Errorf("Bounds() = (%d, %d), want (%d, %d)", min, max, tc.wantMin, tc.wantMax)
			}
		})
	}
}
