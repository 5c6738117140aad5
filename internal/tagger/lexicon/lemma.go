package lexicon

import "strings"

var irregularNouns = map[string]string{
	"feet":     "foot",
	"teeth":    "tooth",
	"men":      "man",
	"women":    "woman",
	"children": "child",
	"people":   "person",
	"mice":     "mouse",
	"geese":    "goose",
	"shelves":  "shelf",
	"halves":   "half",
	"leaves":   "leaf",
	"knives":   "knife",
	"wives":    "wife",
	"lives":    "life",
	"wolves":   "wolf",
	"calves":   "calf",
	"loaves":   "loaf",
	"thieves":  "thief",
	"indices":  "index",
	"matrices": "matrix",
	"vertices": "vertex",
	"axes":     "axis",
	"bases":    "base",
	"cases":    "case",
	"vases":    "vase",
	"phases":   "phase",
	"curves":   "curve",
	"grooves":  "groove",
	"sleeves":  "sleeve",
	"series":   "series",
	"species":  "species",
	"chassis":  "chassis",
	"canvas":   "canvas",
	"shoes":    "shoe",
	"toes":     "toe",
}

// nounRules are tried in order; the first matching suffix wins. minStem is
// the shortest stem the rule may leave behind.
var nounRules = []struct {
	suffix      string
	replacement string
	minStem     int
}{
	{"ies", "y", 2},
	{"sses", "ss", 2},
	{"shes", "sh", 2},
	{"ches", "ch", 2},
	{"xes", "x", 2},
	{"zzes", "zz", 2},
	{"oes", "o", 3},
	{"ss", "ss", 1},
	{"us", "us", 1},
	{"is", "is", 1},
	{"s", "", 2},
}

// lemmatizeNoun maps a lowercase noun to its singular dictionary form.
func lemmatizeNoun(word string) string {
	if lemma, ok := irregularNouns[word]; ok {
		return lemma
	}
	for _, rule := range nounRules {
		if !strings.HasSuffix(word, rule.suffix) {
			continue
		}
		stem := word[:len(word)-len(rule.suffix)]
		if len(stem) < rule.minStem {
			return word
		}
		return stem + rule.replacement
	}
	return word
}

var irregularVerbs = map[string]string{
	"is":   "be",
	"are":  "be",
	"was":  "be",
	"were": "be",
	"been": "be",
	"am":   "be",
	"has":  "have",
	"had":  "have",
	"does": "do",
	"did":  "do",
	"made": "make",
	"sat":  "sit",
	"held": "hold",
	"went": "go",
}

// lemmatizeVerb is deliberately shallow: pair extraction only consumes noun
// lemmas, verb lemmas are informational.
func lemmatizeVerb(word string) string {
	if lemma, ok := irregularVerbs[word]; ok {
		return lemma
	}
	switch {
	case strings.HasSuffix(word, "ies") && len(word) > 4:
		return word[:len(word)-3] + "y"
	case strings.HasSuffix(word, "ing") && len(word) > 5:
		return word[:len(word)-3]
	case strings.HasSuffix(word, "ed") && len(word) > 4:
		return word[:len(word)-2]
	case strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss") && len(word) > 3:
		return word[:len(word)-1]
	}
	return word
}
