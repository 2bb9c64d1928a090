// Package headlines holds the site's default rotating headings. The web
// server and the terminal preview both start from these sets.
package headlines

// defaults are keyed by the page that shows them.
var defaults = map[string][]string{
	"home":       {"Mechatronics Engineer", "Creative Developer", "3D Artist", "Video Editor"},
	"projects":   {"PROJECTS", "MY WORK", "CASE STUDIES"},
	"experience": {"EXPERIENCE", "MY JOURNEY", "CAREER PATH"},
	"contact":    {"GET IN TOUCH", "CONTACT ME", "SAY HELLO"},
}

// Defaults returns a fresh copy of the default headline sets.
func Defaults() map[string][]string {
	out := make(map[string][]string, len(defaults))
	for name, texts := range defaults {
		out[name] = append([]string(nil), texts...)
	}
	return out
}
