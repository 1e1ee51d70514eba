package formulas

// reserved is the closed set of words that are never variable names.
var reserved = map[string]bool{
	"if":     true,
	"else":   true,
	"for":    true,
	"while":  true,
	"return": true,
}

// IsReserved reports whether name is a reserved word.
func IsReserved(name string) bool {
	return reserved[name]
}

// Reserved returns the reserved words in sorted order.
func Reserved() []string {
	r := make([]string, 0, len(reserved))
	for k := range reserved {
		r = append(r, k)
	}
	sortstrs(r)
	return r
}

// Extract returns the variable names used in a formula, deduplicated, in
// order of first occurrence. Any string is a valid input; Extract does not
// check whether the formula is well-formed.
func Extract(formula string) []string {
	names := []string{}
	seen := make(map[string]bool)
	for i := 0; i < len(formula); {
		if !isWordByte(formula[i]) {
			i++
			continue
		}
		// Take the whole run of word characters. A run that starts with a
		// digit is a number or a fragment of one, like 1e5 or 2x.
		j := i + 1
		for j < len(formula) && isWordByte(formula[j]) {
			j++
		}
		w := formula[i:j]
		i = j
		if !isIdentStart(w[0]) || isNumericLexeme(w) || reserved[w] || seen[w] {
			continue
		}
		seen[w] = true
		names = append(names, w)
	}
	return names
}

// ValidName reports whether name could be returned by Extract.
func ValidName(name string) bool {
	if name == "" || !isIdentStart(name[0]) {
		return false
	}
	for i := 1; i < len(name); i++ {
		if !isWordByte(name[i]) {
			return false
		}
	}
	return !isNumericLexeme(name) && !reserved[name]
}

func isIdentStart(b byte) bool {
	return b == '_' || 'a' <= b && b <= 'z' || 'A' <= b && b <= 'Z'
}

func isWordByte(b byte) bool {
	return isIdentStart(b) || '0' <= b && b <= '9'
}

// isNumericLexeme reports whether an identifier-shaped word spells a number.
// The only such word is Infinity; inf, INF and NaN are names.
func isNumericLexeme(w string) bool {
	return w == "Infinity"
}
