package event

// ScopeAllStudents targets every student regardless of college or year level.
const ScopeAllStudents = "All Students"

// College is an audience scope targeting one college by code.
type College struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// Colleges lists the university colleges, in display order.
var Colleges = []College{
	{"CICT", "College of ICT"},
	{"CBM", "College of Business & Management"},
	{"CAS", "College of Arts & Sciences"},
	{"COE", "College of Education"},
	{"CON", "College of Nursing"},
	{"PESCAR", "College of PESCAR"},
	{"COM", "College of Medicine"},
	{"COD", "College of Dentistry"},
	{"COL", "College of Law"},
	{"COC", "College of Communication"},
}

// YearLevels are the cohort scopes.
var YearLevels = []string{"1st years", "2nd years", "3rd years", "4th years"}

var knownScopes = func() map[string]struct{} {
	known := map[string]struct{}{ScopeAllStudents: {}}
	for _, yl := range YearLevels {
		known[yl] = struct{}{}
	}
	for _, col := range Colleges {
		known[col.Code] = struct{}{}
	}
	return known
}()

// KnownScope reports whether s is a valid event audience scope.
func KnownScope(s string) bool {
	_, ok := knownScopes[s]
	return ok
}

// Scopes returns every valid audience scope, "All Students" first, then year
// levels, then college codes.
func Scopes() []string {
	scopes := make([]string, 0, len(knownScopes))
	scopes = append(scopes, ScopeAllStudents)
	scopes = append(scopes, YearLevels...)
	for _, col := range Colleges {
		scopes = append(scopes, col.Code)
	}
	return scopes
}
