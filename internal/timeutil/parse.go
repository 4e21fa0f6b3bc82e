package timeutil

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	hoursRe   = regexp.MustCompile(`(\d+(?:\.\d+)?)h`)
	minutesRe = regexp.MustCompile(`(\d+(?:\.\d+)?)m`)
	secondsRe = regexp.MustCompile(`(\d+(?:\.\d+)?)s`)
	numberRe  = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)`)
	inputRe   = regexp.MustCompile(`^(\d+(?:\.\d+)?[hms]\s*)*\d+(?:\.\d+)?[hms]?$`)
)

// ParseInput converts "2h 30m", "90m", "1.5h" or "45s" to seconds. A bare
// number is read as minutes. Unparseable input yields 0.
func ParseInput(input string) int64 {
	cleaned := strings.ToLower(strings.TrimSpace(input))

	var total float64
	matched := false
	for _, u := range []struct {
		re     *regexp.Regexp
		factor float64
	}{{hoursRe, 3600}, {minutesRe, 60}, {secondsRe, 1}} {
		if m := u.re.FindStringSubmatch(cleaned); m != nil {
			v, _ := strconv.ParseFloat(m[1], 64)
			total += v * u.factor
			matched = true
		}
	}

	if !matched {
		if v, ok := leadingNumber(cleaned); ok {
			total = v * 60
		}
	}
	return int64(math.Floor(total + 0.5))
}

// ValidInput reports whether input is something ParseInput understands.
func ValidInput(input string) bool {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return false
	}
	if inputRe.MatchString(strings.ToLower(trimmed)) {
		return true
	}
	_, ok := leadingNumber(trimmed)
	return ok
}

func leadingNumber(s string) (float64, bool) {
	m := numberRe.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	return v, err == nil
}
