package main

import "testing"

func TestDefaultOutPath(t *testing.T) {
	cases := map[string]string{
		"prog.red":     "prog.mcfunction",
		"dir/prog.red": "dir/prog.mcfunction",
		"noextension":  "noextension.mcfunction",
	}
	for in, want := range cases {
		if got := defaultOutPath(in); got != want {
			t.Errorf("defaultOutPath(%q) = %q, want %q", in, got, want)
		}
	}
}
