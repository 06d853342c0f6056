package agent

import "fmt"

// DefaultResultCharLimit bounds the result text placed in the task
// creation prompt.
const DefaultResultCharLimit = 8000

// truncateHeadTail keeps the first and last halves of s when it exceeds
// maxChars, replacing the middle with a marker. maxChars <= 0 disables it.
func truncateHeadTail(s string, maxChars int) string {
	if maxChars <= 0 || len(s) <= maxChars {
		return s
	}
	half := maxChars / 2
	removed := len(s) - 2*half
	return s[:half] +
		fmt.Sprintf("\n\n[%d characters were removed from the middle of this result.]\n\n", removed) +
		s[len(s)-half:]
}
