package i18n

import (
	"strings"

	"github.com/alexanderramin/smeta/internal/domain"
	"golang.org/x/text/language"
)

// DetectLang picks the UI language from a locale string such as
// "kk_KZ.UTF-8" or "ru-RU". Kazakh is chosen only for a kk base language;
// everything else, including unparseable locales, is Russian.
func DetectLang(locale string) domain.Lang {
	locale = strings.TrimSpace(locale)
	if i := strings.IndexAny(locale, ".@"); i >= 0 {
		locale = locale[:i]
	}
	locale = strings.ReplaceAll(locale, "_", "-")
	if locale == "" {
		return domain.LangRu
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return domain.LangRu
	}
	base, _ := tag.Base()
	if base.String() == "kk" {
		return domain.LangKk
	}
	return domain.LangRu
}

// LocaleFromEnv returns the first non-empty POSIX locale variable.
func LocaleFromEnv(getenv func(string) string) string {
	for _, name := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := getenv(name); v != "" {
			return v
		}
	}
	return ""
}
