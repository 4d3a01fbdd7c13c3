package shipping

import "strings"

// Fallback values substituted when a contact record is missing pieces.
// Carriers reject blank name fields, so something printable must go out.
const (
	fallbackFirstName = "Receiving"
	fallbackLastName  = "Dept"
	fallbackFullName  = "Receiving Department"
)

// NormalizeContact fills the blanks in a contact record so the resulting
// name, phone and email always satisfy carrier required-field checks.
// companyPhone and companyEmail are used when the contact has none of its
// own.
func NormalizeContact(c Contact, companyPhone, companyEmail string) Contact {
	if strings.TrimSpace(c.FirstName) == "" {
		c.FirstName = fallbackFirstName
	}
	if strings.TrimSpace(c.LastName) == "" {
		c.LastName = fallbackLastName
	}
	if c.Phone == "" {
		c.Phone = c.Mobile
	}
	if c.Phone == "" {
		c.Phone = companyPhone
	}
	if c.Email == "" {
		c.Email = companyEmail
	}
	return c
}

// ContactDisplayName returns the name to print on a label for a contact,
// falling back to a generic receiving-department name when the contact is
// entirely blank.
func ContactDisplayName(c Contact) string {
	if name := c.FullName(); name != "" {
		return name
	}
	return fallbackFullName
}

// CleanPhone reduces a phone number to digits. Carriers require at least
// ten digits; shorter numbers come back empty so the caller can substitute
// a company default. Numbers longer than fifteen digits are truncated.
func CleanPhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < 10 {
		return ""
	}
	if len(digits) > 15 {
		digits = digits[:15]
	}
	return digits
}

// usStateCodes maps full US state and territory names to their two-letter
// postal abbreviations. ERP address records store full names; every
// carrier wire format wants the code.
var usStateCodes = map[string]string{
	"alabama":              "AL",
	"alaska":               "AK",
	"arizona":              "AZ",
	"arkansas":             "AR",
	"california":           "CA",
	"colorado":             "CO",
	"connecticut":          "CT",
	"delaware":             "DE",
	"district of columbia": "DC",
	"florida":              "FL",
	"georgia":              "GA",
	"hawaii":               "HI",
	"idaho":                "ID",
	"illinois":             "IL",
	"indiana":              "IN",
	"iowa":                 "IA",
	"kansas":               "KS",
	"kentucky":             "KY",
	"louisiana":            "LA",
	"maine":                "ME",
	"maryland":             "MD",
	"massachusetts":        "MA",
	"michigan":             "MI",
	"minnesota":            "MN",
	"mississippi":          "MS",
	"missouri":             "MO",
	"montana":              "MT",
	"nebraska":             "NE",
	"nevada":               "NV",
	"new hampshire":        "NH",
	"new jersey":           "NJ",
	"new mexico":           "NM",
	"new york":             "NY",
	"north carolina":       "NC",
	"north dakota":         "ND",
	"ohio":                 "OH",
	"oklahoma":             "OK",
	"oregon":               "OR",
	"pennsylvania":         "PA",
	"puerto rico":          "PR",
	"rhode island":         "RI",
	"south carolina":       "SC",
	"south dakota":         "SD",
	"tennessee":            "TN",
	"texas":                "TX",
	"utah":                 "UT",
	"vermont":              "VT",
	"virginia":             "VA",
	"washington":           "WA",
	"west virginia":        "WV",
	"wisconsin":            "WI",
	"wyoming":              "WY",
}

// StateCode converts a US state name to its two-letter code. Inputs that
// already look like a code, or that are not recognized, pass through
// unchanged (trimmed, upper-cased when two letters).
func StateCode(state string) string {
	s := strings.TrimSpace(state)
	if len(s) == 2 {
		return strings.ToUpper(s)
	}
	if code, ok := usStateCodes[strings.ToLower(s)]; ok {
		return code
	}
	return s
}

// NormalizeAddress applies state-code and phone normalization to an
// address in place, returning the normalized copy.
func NormalizeAddress(a Address, companyPhone string) Address {
	a.State = StateCode(a.State)
	if phone := CleanPhone(a.Phone); phone != "" {
		a.Phone = phone
	} else {
		a.Phone = CleanPhone(companyPhone)
	}
	return a
}
