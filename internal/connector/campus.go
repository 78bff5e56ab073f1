package connector

import "strings"

// Campus labels produced by InferCampus.
const (
	CampusUnknown   = "Unknown"
	CampusOnline    = "Online"
	CampusOffCampus = "Off-Campus"
)

// campusKeywords lists venue substrings observed in getINVOLVED location
// strings, per campus. Order matters: earlier campuses win when a location
// mentions venues from more than one (e.g. "Busch Student Center").
var campusKeywords = []struct {
	campus   string
	keywords []string
}{
	{"College Ave", []string{
		"Student Center", "Scott Hall", "College Ave", "Voorhees", "Old Queens",
		"Zimmerli", "Hillel", "Academic Building", "Murray Hall", "Demarest",
		"Paul Robeson", "Hardenbergh", "Clothier", "Seminary", "Eagleton",
		"CASC", "Silvers", "Catholic Center", "Linguistic", "Civic Square",
		"St. Peter", "Little Theatre", "Women's House",
		"Alexander Library", "Nicholas Music", "McCormick", "Bloustein",
		"SC&I", "RU Cinema", "Art History", "Loree", "French Seminar",
		"Student Activities Center",
	}},
	{"Livingston", []string{
		"RAC", "Jersey Mike", "Tillett", "Tillet", "Livi", "Livingston",
		"RBS", "Ludwig", "Lucy Stone", "Hatchery", "The Yard",
		"Graduate Student Lounge", "The Cage", "Richardson", "DSC Lounge",
	}},
	{"Busch", []string{
		"Werblin", "Busch", "Hill Center", "SERC",
		"BSC", "BME", "Biomedical Engineering", "Serin", "Richard Weeks",
		"Research Tower", "Proteomics", "Life Science", "CoRE",
		"Rutgers Golf",
	}},
	{"Cook/Douglass", []string{
		"Cook", "Douglass", "Hickman", "Passion Puddle",
		"Ruth Adams", "Marine and Coastal Sciences", "ENR",
		"Rutgers Botanical", "ABE",
	}},
}

var onlineKeywords = []string{"zoom", "online", "virtual", "teams", "webinar"}

// Locations that are explicitly TBD stay Unknown rather than Off-Campus.
var tbdPrefixes = []string{"tbd", "to be determined", "to be announced", "tba"}

// Recognizable non-Rutgers venues.
var offCampusKeywords = []string{
	"Eastern Star Rehabilitation", "Mitsuwa", "Liberty Science Center",
	"United Nations", "Utica University", "Buccleuch", "Johnson Park",
	"New Orleans", "Jersey City", "New York City", "Newark",
}

// InferCampus classifies a free-form location string into a campus label.
func InferCampus(location string) string {
	if location == "" {
		return CampusUnknown
	}
	locLower := strings.ToLower(location)

	for _, prefix := range tbdPrefixes {
		if strings.HasPrefix(locLower, prefix) {
			return CampusUnknown
		}
	}

	for _, kw := range onlineKeywords {
		if strings.Contains(locLower, kw) {
			return CampusOnline
		}
	}

	for _, group := range campusKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(locLower, strings.ToLower(kw)) {
				return group.campus
			}
		}
	}

	for _, kw := range offCampusKeywords {
		if strings.Contains(locLower, strings.ToLower(kw)) {
			return CampusOffCampus
		}
	}

	return CampusUnknown
}
