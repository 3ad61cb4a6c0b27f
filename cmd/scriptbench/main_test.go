package main

import (
	"reflect"
	"testing"
)

func TestRewriteDirectURLArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"scriptbench"},
			want: []string{"scriptbench"},
		},
		{
			name: "url first token",
			in:   []string{"scriptbench", "/api/scripts/a.lua"},
			want: []string{"scriptbench", "cat", "/api/scripts/a.lua"},
		},
		{
			name: "absolute http url",
			in:   []string{"scriptbench", "http://localhost:5000/api/scripts/a.lua"},
			want: []string{"scriptbench", "cat", "http://localhost:5000/api/scripts/a.lua"},
		},
		{
			name: "url after value flag",
			in:   []string{"scriptbench", "--server", "localhost:5000", "/api/scripts/a.lua"},
			want: []string{"scriptbench", "--server", "localhost:5000", "cat", "/api/scripts/a.lua"},
		},
		{
			name: "url after equals flag",
			in:   []string{"scriptbench", "--server=localhost:5000", "/api/scripts/a.lua"},
			want: []string{"scriptbench", "--server=localhost:5000", "cat", "/api/scripts/a.lua"},
		},
		{
			name: "url after bool flag",
			in:   []string{"scriptbench", "--pretty", "/api/scripts/a.lua"},
			want: []string{"scriptbench", "--pretty", "cat", "/api/scripts/a.lua"},
		},
		{
			name: "value flag holding a path is skipped",
			in:   []string{"scriptbench", "--log-file", "/tmp/sb.log"},
			want: []string{"scriptbench", "--log-file", "/tmp/sb.log"},
		},
		{
			name: "url after double dash",
			in:   []string{"scriptbench", "--format", "text", "--", "/api/scripts/a.lua"},
			want: []string{"scriptbench", "--format", "text", "--", "cat", "/api/scripts/a.lua"},
		},
		{
			name: "normal subcommand not rewritten",
			in:   []string{"scriptbench", "cat", "/api/scripts/a.lua"},
			want: []string{"scriptbench", "cat", "/api/scripts/a.lua"},
		},
		{
			name: "unknown command not rewritten",
			in:   []string{"scriptbench", "wat"},
			want: []string{"scriptbench", "wat"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := rewriteDirectURLArgs(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("rewriteDirectURLArgs(%q)=%q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
