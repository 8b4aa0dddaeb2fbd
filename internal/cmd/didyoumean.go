package cmd

import "strings"

// levenshtein returns the edit distance between a and b.
func levenshtein(a, b string) int {
	if a == "" {
		return len(b)
	}
	if b == "" {
		return len(a)
	}

	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(a); i++ {
		prev := i - 1
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			next := min(row[j]+1, row[j-1]+1, prev+cost)
			prev = row[j]
			row[j] = next
		}
	}
	return row[len(b)]
}

// closest returns the candidate nearest to input within three edits, or "".
// Candidates are compared without leading dashes and case.
func closest(input string, candidates []string) string {
	input = strings.ToLower(strings.TrimLeft(input, "-"))
	if input == "" {
		return ""
	}
	best, bestDist := "", 4
	for _, c := range candidates {
		if d := levenshtein(input, strings.ToLower(strings.TrimLeft(c, "-"))); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// suggestCommand finds the command name closest to an unknown one
// ("ordres" -> "orders").
func suggestCommand(unknown string, commands []string) string {
	return closest(unknown, commands)
}

// suggestFlag finds the closest flag, returned with its original dashes.
func suggestFlag(unknown string, flags []string) string {
	return closest(unknown, flags)
}
