package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message/catalog"
)

var (
	bokmal  = language.MustParse("nb")
	english = language.English
)

// messages maps a key to its Norwegian Bokmål and English text. Values are
// fmt-style format strings.
var messages = map[string][2]string{
	"greeting":       {"Hei, %s!", "Hi, %s!"},
	"friend":         {"venn", "friend"},
	"today":          {"I dag", "Today"},
	"fed":            {"Matet", "Fed"},
	"walked":         {"Gått tur", "Walked"},
	"yes":            {"Ja", "Yes"},
	"no":             {"Nei", "No"},
	"grooming":       {"Stell", "Grooming"},
	"last_bath":      {"Sist bad", "Last bath"},
	"health":         {"Helse", "Health"},
	"current_weight": {"Nåværende vekt", "Current weight"},
	"not_recorded":   {"Ingen registrering", "No record"},
	"language":       {"Språk", "Language"},

	"baths_title":                {"Bad", "Baths"},
	"next_schedule":              {"Neste plan", "Next schedule"},
	"due":                        {"Forfallsdato", "Due date"},
	"due_today":                  {"Bad i dag!", "Bath due today!"},
	"monthly_schedule_hint":      {"Månedlig plan (hver ~30. dag)", "Monthly schedule (every ~30 days)"},
	"history_days_between_baths": {"Historikk (dager mellom bad)", "History (days between baths)"},
	"not_enough_data":            {"Ikke nok data ennå", "Not enough data yet"},
	"bathed":                     {"Badet registrert", "Bath logged"},

	"weight_title":  {"Vekt", "Weight"},
	"weight_kg":     {"%.1f kg", "%.1f kg"},
	"weight_logged": {"Vekt registrert: %s", "Weight logged: %s"},
	"history":       {"Historikk", "History"},
	"no_data_yet":   {"Ingen data ennå", "No data yet"},

	"walk_title":    {"Tur", "Walk"},
	"walked_label":  {"Gått", "Walked"},
	"skipped_label": {"Hoppet over", "Skipped"},

	"feeding_title": {"Mating", "Feeding"},
	"not_fed_label": {"Ikke matet", "Not fed"},

	"age":      {"Alder", "Age"},
	"email":    {"E-post", "Email"},
	"password": {"Passord", "Password"},

	"days_ago_one":   {"for 1 dag siden", "1 day ago"},
	"days_ago_other": {"for %d dager siden", "%d days ago"},

	"no_pet":          {"Ingen hund registrert", "No pet registered"},
	"logged_in_as":    {"Logget inn som %s", "Logged in as %s"},
	"logged_out":      {"Logget ut", "Logged out"},
	"not_logged_in":   {"Ikke logget inn. Kjør «pettrack login».", "Not logged in. Run \"pettrack login\"."},
	"session_expired": {"Økten er utløpt. Logg inn på nytt.", "Session expired. Please log in again."},
	"refreshed":       {"Oppdatert", "Refreshed"},
	"invalid_weight":  {"Ugyldig vekt: %s", "Invalid weight: %s"},
	"language_set":    {"Språk satt til %s", "Language set to %s"},
}

func newCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(bokmal))
	for key, texts := range messages {
		// SetString only fails for malformed tags.
		_ = b.SetString(bokmal, key, texts[0])
		_ = b.SetString(english, key, texts[1])
	}
	return b
}
