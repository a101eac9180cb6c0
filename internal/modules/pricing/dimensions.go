// README: Parser for "LxWxH" dimension strings (centimetres).
package pricing

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var dimensionsRe = regexp.MustCompile(`(?i)^\s*(\d+(?:[.,]\d+)?)\s*(?:cm)?\s*[x×*]\s*(\d+(?:[.,]\d+)?)\s*(?:cm)?\s*[x×*]\s*(\d+(?:[.,]\d+)?)\s*(?:cm)?\s*$`)

// ParseDimensions returns the volume in cm³. ok is false for empty, malformed, non-positive or overflowing input.
func ParseDimensions(s string) (volumeCm3 float64, ok bool) {
	m := dimensionsRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	volumeCm3 = 1
	for _, raw := range m[1:] {
		v, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
		if err != nil || v <= 0 {
			return 0, false
		}
		volumeCm3 *= v
	}
	if math.IsInf(volumeCm3, 0) || volumeCm3 == 0 {
		return 0, false
	}
	return volumeCm3, true
}
