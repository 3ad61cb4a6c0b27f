package main

import (
	"os"
	"strings"

	"scriptbench/internal/cli"
)

func isScriptURL(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "/") || strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func rewriteDirectURLArgs(argv []string) []string {
	// `scriptbench <url>` works like `scriptbench cat <url>`.
	//
	// Cobra treats the first non-flag token as a subcommand, so argv is rewritten before
	// parsing. Persistent flags may come first, so look for the first positional token.
	if len(argv) < 2 {
		return argv
	}

	// Unknown flags are skipped without their value so the url is never consumed.
	valueFlags := map[string]bool{
		"--server":    true,
		"--api-root":  true,
		"--format":    true,
		"--log-level": true,
		"--log-file":  true,
		"--timeout":   true,
	}
	boolFlags := map[string]bool{
		"--pretty":              true,
		"--drop-stale-listings": true,
	}

	rewrite := func(i int) []string {
		out := make([]string, 0, len(argv)+1)
		out = append(out, argv[:i]...)
		out = append(out, "cat")
		return append(out, argv[i:]...)
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && isScriptURL(argv[i+1]) {
				return rewrite(i + 1)
			}
			return argv
		}

		if strings.HasPrefix(a, "-") {
			switch {
			case strings.Contains(a, "="), boolFlags[a]:
			case valueFlags[a]:
				i++
			}
			continue
		}

		if isScriptURL(a) {
			return rewrite(i)
		}
		return argv
	}
	return argv
}

func main() {
	os.Args = rewriteDirectURLArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
