package mapping

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// aliases maps normalized header names to fields. Darwin Core terms
// (institutionCode, decimalLatitude, ...) are included since museum
// exports commonly use them.
var aliases = map[string]Field{
	"institution":     InstitutionName,
	"institutionname": InstitutionName,
	"institutioncode": InstitutionName,
	"inst":            InstitutionName,
	"instname":        InstitutionName,
	"museum":          InstitutionName,
	"organization":    InstitutionName,
	"organisation":    InstitutionName,
	"org":             InstitutionName,
	"owner":           InstitutionName,
	"repository":      InstitutionName,

	"collection":     CollectionName,
	"collectionname": CollectionName,
	"collectioncode": CollectionName,
	"coll":           CollectionName,
	"collname":       CollectionName,

	"lat":             Latitude,
	"latitude":        Latitude,
	"decimallatitude": Latitude,
	"latdec":          Latitude,

	"lon":              Longitude,
	"lng":              Longitude,
	"long":             Longitude,
	"longitude":        Longitude,
	"decimallongitude": Longitude,
	"londec":           Longitude,

	"description": Description,
	"desc":        Description,
	"notes":       Description,
	"note":        Description,
	"remarks":     Description,
	"comments":    Description,
	"summary":     Description,
}

const (
	fuzzyMinAliasLen = 5
	fuzzyMaxDistance = 2
)

// fuzzyAliases are the aliases long enough for fuzzy matching, sorted so
// ties resolve the same way on every run.
var fuzzyAliases = func() []string {
	var out []string
	for alias := range aliases {
		if len([]rune(alias)) >= fuzzyMinAliasLen {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}()

// normalizeHeader folds case and drops every rune that is not a letter or
// digit, so "Institution_Name", "institution name" and "InstitutionName"
// all become "institutionname".
func normalizeHeader(h string) string {
	folded := cases.Fold().String(norm.NFC.String(h))
	var b strings.Builder
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Suggest proposes a mapping from header names. Exact alias matches are
// assigned first, then remaining headers are matched to the closest alias
// within a small edit distance. Each field goes to at most one column and
// the leftmost column wins. A latitude or longitude without its partner is
// left out, since Validate only accepts the pair.
func Suggest(headers []string) HeaderMapping {
	m := HeaderMapping{}
	assigned := map[Field]bool{}
	keys := make([]string, len(headers))
	for i, h := range headers {
		keys[i] = normalizeHeader(h)
	}

	for col, key := range keys {
		if field, ok := aliases[key]; ok && !assigned[field] {
			m[col] = field
			assigned[field] = true
		}
	}

	for col, key := range keys {
		if _, done := m[col]; done || key == "" {
			continue
		}
		if _, exact := aliases[key]; exact {
			continue // its field was taken by an earlier column
		}
		if field, ok := closestAlias(key); ok && !assigned[field] {
			m[col] = field
			assigned[field] = true
		}
	}

	if assigned[Latitude] != assigned[Longitude] {
		for col, field := range m {
			if field == Latitude || field == Longitude {
				delete(m, col)
			}
		}
	}
	return m
}

func closestAlias(key string) (Field, bool) {
	best, bestDist := "", fuzzyMaxDistance+1
	for _, alias := range fuzzyAliases {
		if d := levenshtein(key, alias); d < bestDist {
			best, bestDist = alias, d
		}
	}
	if best == "" {
		return "", false
	}
	return aliases[best], true
}
