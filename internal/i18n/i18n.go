// Package i18n translates message keys for the terminal client. Messages are
// compiled in for Vietnamese and English; Vietnamese is the default and
// English fills any gap.
package i18n

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

var (
	// Default is the locale used when none is configured.
	Default = language.Vietnamese
	// Fallback supplies messages missing from the active locale.
	Fallback = language.English
)

// Supported lists the locales with a message table, default first.
var Supported = []language.Tag{language.Vietnamese, language.English}

var (
	cat     = mustBuild()
	matcher = language.NewMatcher(Supported)
)

func mustBuild() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(Fallback))
	for tag, msgs := range tables {
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				panic("i18n: " + key + ": " + err.Error())
			}
		}
	}
	return b
}

// Match maps a user-supplied locale such as "en-US" or "vi_VN" to the closest
// supported one. Anything unrecognised maps to Default.
func Match(locale string) language.Tag {
	t, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(locale), "_", "-"))
	if err != nil {
		return Default
	}
	_, i, conf := matcher.Match(t)
	if conf == language.No {
		return Default
	}
	return Supported[i]
}

// IsSupported reports whether locale names a supported language exactly,
// e.g. "vi" or "en".
func IsSupported(locale string) bool {
	t, err := language.Parse(locale)
	if err != nil {
		return false
	}
	for _, s := range Supported {
		if s == t {
			return true
		}
	}
	return false
}

// Translator renders messages for one locale.
type Translator struct {
	tag      language.Tag
	printer  *message.Printer
	fallback *message.Printer
}

// New returns a translator for tag, which should be one of Supported.
func New(tag language.Tag) *Translator {
	return &Translator{
		tag:      tag,
		printer:  message.NewPrinter(tag, message.Catalog(cat)),
		fallback: message.NewPrinter(Fallback, message.Catalog(cat)),
	}
}

// Tag returns the translator's locale.
func (t *Translator) Tag() language.Tag { return t.tag }

// T returns the message for key with each {{name}} placeholder replaced by
// args[name]. Unknown keys are returned unchanged.
func (t *Translator) T(key string, args map[string]string) string {
	msg := t.printer.Sprintf(key)
	if msg == key {
		msg = t.fallback.Sprintf(key)
	}
	if len(args) == 0 {
		return msg
	}

	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)
	pairs := make([]string, 0, 2*len(args))
	for _, name := range names {
		pairs = append(pairs, "{{"+name+"}}", args[name])
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

// Number formats n with the locale's digit grouping.
func (t *Translator) Number(n int) string {
	return t.printer.Sprintf("%d", n)
}

// Keys returns every key known to locale tag, sorted.
func Keys(tag language.Tag) []string {
	keys := make([]string, 0, len(tables[tag]))
	for k := range tables[tag] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
