// README: Distance resolver; maps two free-text addresses to a km estimate without any network call.
package distance

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var postalCodeRe = regexp.MustCompile(`\b\d{5}\b`)

func init() {
	for pair := range cityDistances {
		knownCitySet[pair.from] = struct{}{}
		knownCitySet[pair.to] = struct{}{}
	}
	for c := range knownCitySet {
		knownCities = append(knownCities, c)
	}
	sort.Slice(knownCities, func(i, j int) bool {
		if len(knownCities[i]) != len(knownCities[j]) {
			return len(knownCities[i]) > len(knownCities[j])
		}
		return knownCities[i] < knownCities[j]
	})
}

// Resolver is the injectable form of Resolve.
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

func (Resolver) Resolve(origin, destination string) Quote {
	return Resolve(origin, destination)
}

// Resolve never fails. Rules are evaluated in a fixed order and the first match wins:
// identical address, same city, same postal code, tabulated pair, one known city, fallback.
func Resolve(origin, destination string) (q Quote) {
	defer func() {
		if recover() != nil {
			q = Quote{Kilometers: DefaultKm, Method: MethodDefaultFallback}
		}
	}()

	fromCity, fromKnown := ExtractCity(origin)
	toCity, toKnown := ExtractCity(destination)
	q = Quote{OriginCity: fromCity, DestinationCity: toCity}

	normFrom, normTo := Normalize(origin), Normalize(destination)
	switch {
	case normFrom != "" && normFrom == normTo:
		q.Kilometers, q.Method = SameAddressKm, MethodSameAddress
	case fromCity != "" && fromCity == toCity:
		q.Kilometers, q.Method = SameCityKm, MethodSameCity
	case samePostalCode(origin, destination):
		q.Kilometers, q.Method = SamePostalAreaKm, MethodSamePostalArea
	default:
		if km, ok := lookup(fromCity, toCity); ok && fromKnown && toKnown {
			q.Kilometers, q.Method = km, MethodExactCityPair
		} else if fromKnown != toKnown {
			q.Kilometers, q.Method = SingleCityKm, MethodSingleCityEstimate
		} else {
			q.Kilometers, q.Method = DefaultKm, MethodDefaultFallback
		}
	}
	return q
}

func lookup(a, b string) (float64, bool) {
	if km, ok := cityDistances[cityPair{a, b}]; ok {
		return km, true
	}
	km, ok := cityDistances[cityPair{b, a}]
	return km, ok
}

func samePostalCode(a, b string) bool {
	pa := postalCodeRe.FindString(a)
	if pa == "" {
		return false
	}
	return pa == postalCodeRe.FindString(b)
}

// Normalize lowercases, folds accents, turns punctuation into spaces and collapses whitespace.
// Hyphens survive so compound city names stay one token.
func Normalize(addr string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), addr)
	if err != nil {
		folded = addr
	}
	folded = strings.ToLower(folded)
	folded = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			return r
		}
		return ' '
	}, folded)
	fields := strings.Fields(folded)
	out := fields[:0]
	for _, f := range fields {
		if f = strings.Trim(f, "-"); f != "" {
			out = append(out, f)
		}
	}
	return strings.Join(out, " ")
}

// ExtractCity returns the city token of an address and whether it is in the distance table.
// Precedence: exact token, substring containment, alias, then the longest leftover token.
// Tokens are scanned from the end since French addresses put the city last.
func ExtractCity(addr string) (string, bool) {
	tokens := cityTokens(addr)
	if len(tokens) == 0 {
		return "", false
	}

	for i := len(tokens) - 1; i >= 0; i-- {
		if _, ok := knownCitySet[tokens[i]]; ok {
			return tokens[i], true
		}
	}
	for i := len(tokens) - 1; i >= 0; i-- {
		tok := tokens[i]
		for _, city := range knownCities {
			if strings.Contains(city, tok) || strings.Contains(tok, city) {
				return city, true
			}
		}
	}
	for i := len(tokens) - 1; i >= 0; i-- {
		if city, ok := cityAliases[tokens[i]]; ok {
			return city, true
		}
	}

	longest := ""
	for i := len(tokens) - 1; i >= 0; i-- {
		if len(tokens[i]) > len(longest) {
			longest = tokens[i]
		}
	}
	return longest, false
}

func cityTokens(addr string) []string {
	fields := strings.Fields(Normalize(addr))
	out := fields[:0]
	for _, f := range fields {
		if strings.IndexFunc(f, unicode.IsDigit) >= 0 {
			continue
		}
		if _, ok := roadWords[f]; ok {
			continue
		}
		if _, ok := countryWords[f]; ok {
			continue
		}
		if _, ok := stopWords[f]; ok {
			continue
		}
		out = append(out, f)
	}
	return out
}
