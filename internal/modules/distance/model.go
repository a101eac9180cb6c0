// README: Distance quote types and the static French city distance table.
package distance

type Method string

const (
	MethodExactCityPair      Method = "EXACT_CITY_PAIR"
	MethodSameCity           Method = "SAME_CITY"
	MethodSameAddress        Method = "SAME_ADDRESS"
	MethodSamePostalArea     Method = "SAME_POSTAL_AREA"
	MethodSingleCityEstimate Method = "SINGLE_CITY_ESTIMATE"
	MethodDefaultFallback    Method = "DEFAULT_FALLBACK"
)

const (
	SameCityKm       = 8.0
	SameAddressKm    = 2.0
	SamePostalAreaKm = 5.0
	SingleCityKm     = 120.0
	DefaultKm        = 100.0
)

// Quote is produced fresh on every call and never cached.
type Quote struct {
	Kilometers      float64 `json:"kilometers"`
	Method          Method  `json:"method"`
	OriginCity      string  `json:"origin_city,omitempty"`
	DestinationCity string  `json:"destination_city,omitempty"`
}

type cityPair struct {
	from, to string
}

// cityDistances holds road distances in km. Lookups try both orientations.
var cityDistances = map[cityPair]float64{
	{"paris", "lyon"}:                465,
	{"paris", "marseille"}:           775,
	{"paris", "toulouse"}:            680,
	{"paris", "nice"}:                930,
	{"paris", "nantes"}:              385,
	{"paris", "strasbourg"}:          490,
	{"paris", "montpellier"}:         750,
	{"paris", "bordeaux"}:            585,
	{"paris", "lille"}:               225,
	{"paris", "rennes"}:              350,
	{"paris", "reims"}:               145,
	{"paris", "le-havre"}:            200,
	{"paris", "rouen"}:               135,
	{"paris", "orleans"}:             130,
	{"paris", "tours"}:               240,
	{"paris", "dijon"}:               315,
	{"paris", "grenoble"}:            575,
	{"paris", "brest"}:               590,
	{"paris", "angers"}:              295,
	{"paris", "limoges"}:             390,
	{"paris", "clermont-ferrand"}:    420,
	{"lyon", "marseille"}:            315,
	{"lyon", "nice"}:                 470,
	{"lyon", "grenoble"}:             110,
	{"lyon", "dijon"}:                195,
	{"lyon", "montpellier"}:          300,
	{"lyon", "toulouse"}:             535,
	{"lyon", "bordeaux"}:             555,
	{"lyon", "strasbourg"}:           490,
	{"lyon", "clermont-ferrand"}:     165,
	{"lyon", "lille"}:                690,
	{"lyon", "nantes"}:               610,
	{"marseille", "nice"}:            200,
	{"marseille", "aix-en-provence"}: 30,
	{"marseille", "toulon"}:          65,
	{"marseille", "montpellier"}:     170,
	{"marseille", "nimes"}:           125,
	{"marseille", "toulouse"}:        405,
	{"marseille", "grenoble"}:        275,
	{"marseille", "bordeaux"}:        645,
	{"toulouse", "bordeaux"}:         245,
	{"toulouse", "montpellier"}:      245,
	{"toulouse", "nimes"}:            290,
	{"toulouse", "nantes"}:           565,
	{"toulouse", "limoges"}:          290,
	{"nantes", "rennes"}:             110,
	{"nantes", "angers"}:             90,
	{"nantes", "bordeaux"}:           345,
	{"nantes", "brest"}:              300,
	{"nantes", "tours"}:              210,
	{"bordeaux", "limoges"}:          220,
	{"bordeaux", "montpellier"}:      485,
	{"lille", "reims"}:               200,
	{"lille", "rouen"}:               250,
	{"lille", "strasbourg"}:          525,
	{"rennes", "brest"}:              245,
	{"rennes", "angers"}:             130,
	{"rouen", "le-havre"}:            90,
	{"nice", "toulon"}:               150,
	{"nice", "aix-en-provence"}:      175,
	{"montpellier", "nimes"}:         55,
	{"aix-en-provence", "toulon"}:    85,
	{"tours", "orleans"}:             115,
	{"tours", "angers"}:              125,
	{"strasbourg", "dijon"}:          330,
	{"strasbourg", "reims"}:          350,
	{"clermont-ferrand", "limoges"}:  180,
}

// knownCities is derived from cityDistances at init, longest name first.
var knownCities []string

var knownCitySet = map[string]struct{}{}

var cityAliases = map[string]string{
	"aix":        "aix-en-provence",
	"havre":      "le-havre",
	"lehavre":    "le-havre",
	"clermont":   "clermont-ferrand",
	"marseilles": "marseille",
	"lyons":      "lyon",
	"bdx":        "bordeaux",
}

var roadWords = map[string]struct{}{
	"rue": {}, "r": {}, "avenue": {}, "av": {}, "ave": {}, "boulevard": {}, "bd": {}, "blvd": {},
	"place": {}, "pl": {}, "chemin": {}, "ch": {}, "allee": {}, "impasse": {}, "imp": {},
	"route": {}, "rte": {}, "quai": {}, "cours": {}, "square": {}, "passage": {}, "voie": {},
	"faubourg": {}, "fbg": {}, "residence": {}, "lieu-dit": {}, "bis": {}, "ter": {},
	"cedex": {}, "bp": {}, "batiment": {}, "bat": {}, "etage": {}, "appartement": {}, "apt": {},
}

var countryWords = map[string]struct{}{
	"france": {}, "fr": {}, "republique": {}, "francaise": {},
}

var stopWords = map[string]struct{}{
	"de": {}, "du": {}, "des": {}, "la": {}, "le": {}, "les": {}, "l": {}, "d": {},
	"et": {}, "au": {}, "aux": {}, "en": {}, "sur": {}, "sous": {}, "a": {},
}
