package transition

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Label is the text shown on the overlay while a route loads.
type Label struct {
	Title    string
	Subtitle string
}

// FallbackLabel is shown for routes without an entry.
var FallbackLabel = Label{Title: "PAGE", Subtitle: "LOADING"}

var pageLabels = map[string]Label{
	"/":         {Title: "HOME", Subtitle: "WELCOME"},
	"/about":    {Title: "ABOUT", Subtitle: "OUR STORY"},
	"/works":    {Title: "WORKS", Subtitle: "PORTFOLIO"},
	"/services": {Title: "SERVICES", Subtitle: "WHAT WE DO"},
	"/contact":  {Title: "CONTACT", Subtitle: "GET IN TOUCH"},
	"/teams":    {Title: "TEAMS", Subtitle: "THE CREW"},
	"/login":    {Title: "LOGIN", Subtitle: "WELCOME BACK"},
	"/signup":   {Title: "SIGN UP", Subtitle: "JOIN THE CAST"},
}

// PageLabel returns the overlay label for path.
func PageLabel(path string) Label {
	if label, ok := pageLabels[path]; ok {
		return label
	}
	return FallbackLabel
}

// KnownRoutes returns the routes with a label, sorted.
func KnownRoutes() []string {
	routes := make([]string, 0, len(pageLabels))
	for route := range pageLabels {
		routes = append(routes, route)
	}
	sort.Strings(routes)
	return routes
}

const maxSuggestDistance = 3

// SuggestRoute returns the known route closest to path when path itself is
// unknown and a route lies within a small edit distance.
func SuggestRoute(path string) (string, bool) {
	if _, ok := pageLabels[path]; ok {
		return "", false
	}
	candidate := strings.ToLower(strings.TrimRight(strings.TrimSpace(path), "/"))
	if candidate == "" {
		return "/", true
	}
	if !strings.HasPrefix(candidate, "/") {
		candidate = "/" + candidate
	}
	if _, ok := pageLabels[candidate]; ok {
		return candidate, true
	}
	best, bestDist := "", maxSuggestDistance+1
	for _, route := range KnownRoutes() {
		if dist := levenshtein.ComputeDistance(candidate, route); dist < bestDist {
			best, bestDist = route, dist
		}
	}
	return best, best != ""
}
