package engine

import (
	"regexp"
	"strconv"
)

// placeholderPattern matches %NAME% lazily, so "%A%B%" holds one
// placeholder (A) followed by the literal "B%".
var placeholderPattern = regexp.MustCompile(`%(.*?)%`)

// Expand rewrites every %NAME% placeholder in text from vars. A name is
// looked up as a string first and as an unsigned integer second. Names that
// resolve to neither are left in place verbatim and returned in misses.
// The output is not scanned again, so values containing %...% stay literal.
func Expand(vars *Vars, text string) (string, []string) {
	var misses []string

	out := placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := match[1 : len(match)-1]

		if s, ok := vars.GetString(name); ok {
			return s
		}
		if n, ok := vars.GetUint(name); ok {
			return strconv.FormatUint(n, 10)
		}

		misses = append(misses, name)
		return match
	})

	return out, misses
}
