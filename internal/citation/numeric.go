package citation

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	// maxRangeWidth bounds "[n-m]" expansion; wider spans are usually math.
	maxRangeWidth = 25
	// maxGap is the largest jump allowed between consecutive cited numbers.
	maxGap = 10
)

var (
	// "[1]", "[1, 2]", "[cf. 3]", "[4, pp. 14-15]", "[5, Sec. 2]"
	bracketRe = regexp.MustCompile(`\[(?:cf\.[\s\p{Z}]*)?((?:[1-9]\d*,?[\s\p{Z}]*)+)(?:(?:p|Sec|Ch)[^\],]+)?\]`)
	// "[2-4]", "[2–4]"
	bracketRangeRe = regexp.MustCompile(`\[([1-9]\d*)[-\x{2013}]([1-9]\d*)\]`)
	nonDigitRe     = regexp.MustCompile(`\D+`)
)

// Brackets returns numeric citations, one string per cited reference number,
// in the order they were found. Ranges are expanded after all plain brackets.
//
// Numbers are kept only while the sorted set of everything cited has no jump
// larger than maxGap: an interval such as "[8, 100]" in an equation would
// otherwise pass as two citations.
func Brackets(text string) []string {
	var raw []string
	for _, m := range bracketRe.FindAllStringSubmatch(text, -1) {
		raw = append(raw, m[1])
	}
	for _, m := range bracketRangeRe.FindAllStringSubmatch(text, -1) {
		low, err1 := strconv.Atoi(m[1])
		high, err2 := strconv.Atoi(m[2])
		if err1 != nil || err2 != nil {
			continue
		}
		if low < high && high-low < maxRangeWidth {
			for x := low; x <= high; x++ {
				raw = append(raw, strconv.Itoa(x))
			}
		}
	}

	seen := make(map[int]struct{})
	var all []int
	for _, r := range raw {
		for _, n := range numbers(r) {
			if _, ok := seen[n]; !ok {
				seen[n] = struct{}{}
				all = append(all, n)
			}
		}
	}
	sort.Ints(all)
	for i := 1; i < len(all); i++ {
		if all[i] > all[i-1]+maxGap {
			all = all[:i]
			break
		}
	}
	keep := make(map[int]struct{}, len(all))
	for _, n := range all {
		keep[n] = struct{}{}
	}

	var cites []string
	for _, r := range raw {
		nums := numbers(r)
		ok := true
		for _, n := range nums {
			if _, in := keep[n]; !in {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		for _, n := range nums {
			cites = append(cites, strconv.Itoa(n))
		}
	}
	return cites
}

func numbers(s string) []int {
	var out []int
	for _, part := range nonDigitRe.Split(s, -1) {
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}
