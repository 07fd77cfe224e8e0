package main

import "testing"

func TestShouldSuppressTTYQueries(t *testing.T) {
	tests := []struct {
		args    []string
		envTest bool
		want    bool
	}{
		{nil, false, false},
		{[]string{"--catalog", "content.json"}, false, false},
		{[]string{"--stats"}, false, true},
		{[]string{"-stats"}, false, true},
		{[]string{"--stats=true"}, false, true},
		{[]string{"--reset-progress"}, false, true},
		{[]string{"--version"}, false, true},
		{[]string{"-h"}, false, true},
		{[]string{"--section", "progress"}, true, true},
		{[]string{"--request"}, false, false},
	}
	for _, tt := range tests {
		if got := shouldSuppressTTYQueries(tt.args, tt.envTest); got != tt.want {
			t.Errorf("shouldSuppressTTYQueries(%v, %v) = %v, want %v", tt.args, tt.envTest, got, tt.want)
		}
	}
}
