// Package i18n provides the two display languages, Norwegian Bokmål (the
// default) and English, and the persisted language preference.
package i18n

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"pet-tracker/internal/tracker"
)

// Lang is a supported display language.
type Lang string

const (
	Norwegian Lang = "nb"
	English   Lang = "en"

	Default = Norwegian
)

// LangKey is where the chosen language is persisted.
const LangKey = "app/lang"

// Supported lists the display languages.
func Supported() []Lang {
	return []Lang{Norwegian, English}
}

// ParseLang returns the Lang for code, if supported.
func ParseLang(code string) (Lang, bool) {
	switch Lang(strings.ToLower(strings.TrimSpace(code))) {
	case Norwegian:
		return Norwegian, true
	case English:
		return English, true
	}
	return "", false
}

// Detect picks the display language. A supported saved choice wins.
// Otherwise a device locale whose base language is Norwegian ("no" or "nb")
// selects Bokmål and anything else selects English.
func Detect(saved, deviceLocale string) Lang {
	if l, ok := ParseLang(saved); ok {
		return l
	}
	tag, err := language.Parse(normalizeLocale(deviceLocale))
	if err != nil {
		return English
	}
	base, _ := tag.Base()
	switch base.String() {
	case "no", "nb":
		return Norwegian
	}
	return English
}

// normalizeLocale turns POSIX locales such as "nb_NO.UTF-8" into BCP 47.
func normalizeLocale(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	return strings.ReplaceAll(s, "_", "-")
}

var sharedCatalog catalog.Catalog = newCatalog()

// Printer renders messages, dates and quantities in one language.
type Printer struct {
	lang Lang
	p    *message.Printer
}

// NewPrinter creates a Printer for lang. Unsupported values use Default.
func NewPrinter(lang Lang) *Printer {
	if _, ok := ParseLang(string(lang)); !ok {
		lang = Default
	}
	return &Printer{
		lang: lang,
		p:    message.NewPrinter(language.MustParse(string(lang)), message.Catalog(sharedCatalog)),
	}
}

// Lang returns the printer's language.
func (p *Printer) Lang() Lang { return p.lang }

// T formats the message for key with args. Unknown keys print as the key.
func (p *Printer) T(key string, args ...any) string {
	return p.p.Sprintf(key, args...)
}

// YesNo renders a boolean as yes or no.
func (p *Printer) YesNo(v bool) string {
	if v {
		return p.T("yes")
	}
	return p.T("no")
}

// Weight renders kilograms with one decimal.
func (p *Printer) Weight(kg float64) string {
	return p.T("weight_kg", kg)
}

// Date renders the calendar date of t, e.g. 15.1.2024 or 1/15/2024.
func (p *Printer) Date(t time.Time) string {
	if p.lang == Norwegian {
		return t.Format("2.1.2006")
	}
	return t.Format("1/2/2006")
}

// DateTime renders a short date and time, e.g. 15.01.2024, 10:30 or
// 1/15/24, 10:30 AM.
func (p *Printer) DateTime(t time.Time) string {
	if p.lang == Norwegian {
		return t.Format("02.01.2006, 15:04")
	}
	return t.Format("1/2/06, 3:04 PM")
}

// RelativeDays describes how long ago t was: today, 1 day ago, N days ago.
func (p *Printer) RelativeDays(t, now time.Time) string {
	days := int(math.Floor(now.Sub(t).Hours() / 24))
	switch {
	case days <= 0:
		return p.T("today")
	case days == 1:
		return p.T("days_ago_one")
	default:
		return p.T("days_ago_other", days)
	}
}

// Preferences persists the language choice.
type Preferences struct {
	kv tracker.KeyValueStore
}

func NewPreferences(kv tracker.KeyValueStore) *Preferences {
	return &Preferences{kv: kv}
}

// Load returns the saved language, falling back to detection from
// deviceLocale.
func (p *Preferences) Load(ctx context.Context, deviceLocale string) (Lang, error) {
	saved, _, err := p.kv.Get(ctx, LangKey)
	if err != nil {
		return Detect("", deviceLocale), fmt.Errorf("reading language preference: %w", err)
	}
	return Detect(saved, deviceLocale), nil
}

// Save persists lang.
func (p *Preferences) Save(ctx context.Context, lang Lang) error {
	if _, ok := ParseLang(string(lang)); !ok {
		return fmt.Errorf("unsupported language %q", lang)
	}
	if err := p.kv.Set(ctx, LangKey, string(lang)); err != nil {
		return fmt.Errorf("saving language preference: %w", err)
	}
	return nil
}
