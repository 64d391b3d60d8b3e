package location

// Regions lists the four canonical dashboard regions.
var Regions = []string{"Northeast", "Southeast", "Midwest", "West"}

// stateRegion maps both postal abbreviations and full state names to their
// dashboard region. The groupings follow the franchise territory layout
// rather than census regions, so Texas and Oklahoma land in Southeast.
var stateRegion = map[string]string{
	// Northeast
	"ME": "Northeast", "NH": "Northeast", "VT": "Northeast", "MA": "Northeast",
	"RI": "Northeast", "CT": "Northeast", "NY": "Northeast", "PA": "Northeast",
	"NJ": "Northeast",
	"Maine": "Northeast", "New Hampshire": "Northeast", "Vermont": "Northeast",
	"Massachusetts": "Northeast", "Rhode Island": "Northeast", "Connecticut": "Northeast",
	"New York": "Northeast", "Pennsylvania": "Northeast", "New Jersey": "Northeast",

	// Southeast
	"TX": "Southeast", "OK": "Southeast", "AR": "Southeast", "LA": "Southeast",
	"MS": "Southeast", "AL": "Southeast", "GA": "Southeast", "FL": "Southeast",
	"SC": "Southeast", "NC": "Southeast", "TN": "Southeast", "KY": "Southeast",
	"WV": "Southeast", "VA": "Southeast", "MD": "Southeast", "DE": "Southeast",
	"DC": "Southeast",
	"Texas": "Southeast", "Oklahoma": "Southeast", "Arkansas": "Southeast",
	"Louisiana": "Southeast", "Mississippi": "Southeast", "Alabama": "Southeast",
	"Georgia": "Southeast", "Florida": "Southeast", "South Carolina": "Southeast",
	"North Carolina": "Southeast", "Tennessee": "Southeast", "Kentucky": "Southeast",
	"West Virginia": "Southeast", "Virginia": "Southeast", "Maryland": "Southeast",
	"Delaware": "Southeast", "District of Columbia": "Southeast",

	// Midwest
	"ND": "Midwest", "SD": "Midwest", "NE": "Midwest", "KS": "Midwest",
	"MN": "Midwest", "IA": "Midwest", "MO": "Midwest", "WI": "Midwest",
	"IL": "Midwest", "IN": "Midwest", "MI": "Midwest", "OH": "Midwest",
	"North Dakota": "Midwest", "South Dakota": "Midwest", "Nebraska": "Midwest",
	"Kansas": "Midwest", "Minnesota": "Midwest", "Iowa": "Midwest",
	"Missouri": "Midwest", "Wisconsin": "Midwest", "Illinois": "Midwest",
	"Indiana": "Midwest", "Michigan": "Midwest", "Ohio": "Midwest",

	// West
	"WA": "West", "OR": "West", "CA": "West", "ID": "West", "NV": "West",
	"UT": "West", "AZ": "West", "MT": "West", "WY": "West", "CO": "West",
	"NM": "West",
	"Washington": "West", "Oregon": "West", "California": "West", "Idaho": "West",
	"Nevada": "West", "Utah": "West", "Arizona": "West", "Montana": "West",
	"Wyoming": "West", "Colorado": "West", "New Mexico": "West",
}

// RegionForState resolves a state (postal code or full name) to its region,
// or "Unknown" when the state is not mapped.
func RegionForState(state string) string {
	if r, ok := stateRegion[state]; ok {
		return r
	}
	return "Unknown"
}
