// Package i18n holds the Russian and Kazakh display tables and the
// locale-aware number formatting used across the UI.
package i18n

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/alexanderramin/smeta/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Vars holds placeholder values substituted into {name} slots.
type Vars map[string]any

// Translator resolves keys against per-language tables. It is immutable
// after construction and safe for concurrent use.
type Translator struct {
	tables map[domain.Lang]map[string]string
}

// New loads the embedded ru and kk tables.
func New() (*Translator, error) {
	t := &Translator{tables: make(map[domain.Lang]map[string]string)}
	for _, lang := range []domain.Lang{domain.LangRu, domain.LangKk} {
		data, err := localeFS.ReadFile("locales/" + string(lang) + ".yaml")
		if err != nil {
			return nil, fmt.Errorf("reading %s table: %w", lang, err)
		}
		table := make(map[string]string)
		if err := yaml.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("parsing %s table: %w", lang, err)
		}
		t.tables[lang] = table
	}
	return t, nil
}

// MustNew is New for callers where the embedded tables are known good.
func MustNew() *Translator {
	t, err := New()
	if err != nil {
		panic(err)
	}
	return t
}

// T resolves key in lang, falling back to Russian and then to the key
// itself, and substitutes every {name} occurrence from vars.
func (t *Translator) T(lang domain.Lang, key string, vars ...Vars) string {
	text, ok := t.tables[lang][key]
	if !ok {
		text, ok = t.tables[domain.LangRu][key]
	}
	if !ok {
		text = key
	}
	for _, v := range vars {
		for name, val := range v {
			text = strings.ReplaceAll(text, "{"+name+"}", fmt.Sprint(val))
		}
	}
	return text
}

// Has reports whether lang defines key without fallback.
func (t *Translator) Has(lang domain.Lang, key string) bool {
	_, ok := t.tables[lang][key]
	return ok
}

// Keys returns the sorted keys defined for lang.
func (t *Translator) Keys(lang domain.Lang) []string {
	keys := make([]string, 0, len(t.tables[lang]))
	for k := range t.tables[lang] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// StatusLabel is the translated chip label for a version status.
func (t *Translator) StatusLabel(lang domain.Lang, s domain.PlanStatus) string {
	return t.T(lang, "status_"+string(s))
}

// NeedTypeLabel is the translated need type name.
func (t *Translator) NeedTypeLabel(lang domain.Lang, n domain.NeedType) string {
	return t.T(lang, n.TranslationKey())
}
