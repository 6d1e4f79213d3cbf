// Copyright © 2024 The ELPS authors

package cmd

import "strings"

// expandArgs turns Go-style "dir/..." patterns into the directory itself,
// which the file finder walks recursively. No arguments means the current
// directory is not implied; an empty result is a usage error.
func expandArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		if dir, ok := strings.CutSuffix(arg, "/..."); ok {
			if dir == "" {
				dir = "."
			}
			arg = dir
		} else if arg == "..." {
			arg = "."
		}
		out = append(out, arg)
	}
	return out
}
