package engine

import "github.com/bytevantagees-gif/janasamparka-engine/internal/domain"

// departmentSuggestions is a convenience heuristic for clients, not a
// system invariant. The engine never applies a suggestion as a default;
// assignment always comes from an explicit AssignDepartment call.
var departmentSuggestions = map[domain.GrievanceCategory]string{
	domain.CategoryRoad:        "PWD",
	domain.CategoryWater:       "WSD",
	domain.CategoryElectricity: "ELECT",
	domain.CategoryHealth:      "HEALTH",
	domain.CategoryEducation:   "EDU",
	domain.CategorySanitation:  "SAN",
	domain.CategoryOther:       "GEN",
}

// SuggestDepartment returns the conventional department for a category,
// or false when no suggestion exists.
func SuggestDepartment(category domain.GrievanceCategory) (string, bool) {
	dept, ok := departmentSuggestions[category]
	return dept, ok
}
