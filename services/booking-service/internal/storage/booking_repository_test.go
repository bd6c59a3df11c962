package storage

import "testing"

func TestEscapeLike(t *testing.T) {
	cases := map[string]string{
		"asha":    "asha",
		"50%":     `50\%`,
		"dr_rao":  `dr\_rao`,
		`back\sl`: `back\\sl`,
	}
	for in, want := range cases {
		if got := escapeLike(in); got != want {
			t.Fatalf("escapeLike(%q) = %q, want %q", in, got, want)
		}
	}
}
