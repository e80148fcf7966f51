package utils

import "testing"

func TestRandomNameGenerator(t *testing.T) {
	var first RandomNameGenerator
	a := first.RandomName()
	b := first.RandomName()
	if a == b {
		t.Errorf("repeated name %q", a)
	}

	var second RandomNameGenerator
	if n := second.RandomName(); n != a {
		t.Errorf("fresh generator started with %q, want %q", n, a)
	}

	var reserved RandomNameGenerator
	reserved.Reserve(a)
	if n := reserved.RandomName(); n == a {
		t.Errorf("reserved name %q returned", n)
	}
}
