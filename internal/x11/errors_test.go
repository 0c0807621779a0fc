package x11

import (
	"errors"
	"fmt"
	"testing"

	"github.com/BurntSushi/xgb/xproto"
)

func TestIsWindowGone(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("connection reset"), false},
		{"bad window", xproto.WindowError{BadValue: 0x2a}, true},
		{"bad drawable", xproto.DrawableError{BadValue: 0x2a}, true},
		{"bad match", xproto.MatchError{}, true},
		{"wrapped bad window", fmt.Errorf("query geometry: %w", xproto.WindowError{BadValue: 7}), true},
		{"doubly wrapped", fmt.Errorf("refresh: %w", fmt.Errorf("window 7: %w", xproto.DrawableError{})), true},
		{"wrapped plain error", fmt.Errorf("query geometry: %w", errors.New("EOF")), false},
	}
	for _, tc := range cases {
		if got := IsWindowGone(tc.err); got != tc.want {
			t.Errorf("%s: IsWindowGone(%v) = %v, want %v", tc.name, tc.err, got, tc.want)
		}
	}
}
