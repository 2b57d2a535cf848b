package pipeline

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// fold lower-cases the input and strips Vietnamese diacritics so that
// "Liều" and "lieu" compare equal. The đ/Đ pair is not a combining mark and is
// mapped separately.
func fold(s string) string {
	s = strings.ToLower(s)
	if out, _, err := transform.String(foldTransformer, s); err == nil {
		s = out
	}
	s = strings.ReplaceAll(s, "đ", "d")
	return s
}

// tokenize splits folded text into letter/digit runs.
func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// stopWords are folded tokens that never form drug-name candidates.
var stopWords = map[string]struct{}{
	"thuoc": {}, "lieu": {}, "dung": {}, "uong": {}, "tiem": {}, "truyen": {},
	"cho": {}, "cua": {}, "va": {}, "hoac": {}, "khi": {}, "nao": {}, "the": {},
	"khong": {}, "duoc": {}, "bao": {}, "nhieu": {}, "hom": {}, "nay": {},
	"bang": {}, "voi": {}, "trong": {}, "ngay": {}, "gio": {}, "lan": {},
	"benh": {}, "nhi": {}, "em": {}, "sinh": {}, "chong": {}, "chi": {},
	"dinh": {}, "tac": {}, "phu": {}, "hieu": {}, "chinh": {}, "chuc": {},
	"nang": {}, "than": {}, "gan": {}, "mang": {}, "viem": {}, "nhiem": {},
	"khuan": {}, "what": {}, "which": {}, "about": {}, "dosage": {}, "dose": {},
	"child": {}, "children": {}, "effect": {}, "effects": {},
}

func isStopWord(token string) bool {
	_, ok := stopWords[token]
	return ok
}

// containsPhrase reports whether folded haystack contains the folded phrase on
// token boundaries, so "nang" does not fire inside "mang nao".
func containsPhrase(haystack, phrase string) bool {
	if phrase == "" {
		return false
	}
	for start := 0; ; {
		idx := strings.Index(haystack[start:], phrase)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(phrase)
		beforeOK := idx == 0 || boundary(haystack[idx-1])
		afterOK := end == len(haystack) || boundary(haystack[end])
		if beforeOK && afterOK {
			return true
		}
		start = idx + 1
		if start >= len(haystack) {
			return false
		}
	}
}

func boundary(b byte) bool {
	return !(b >= 'a' && b <= 'z') && !(b >= '0' && b <= '9')
}

// collapseSpaces normalizes all whitespace runs to single spaces.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
