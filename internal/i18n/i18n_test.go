package i18n

import (
	"strings"
	"testing"
	"unicode"

	"github.com/alexanderramin/smeta/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_TablesHaveSameKeys(t *testing.T) {
	tr, err := New()
	require.NoError(t, err)

	ru := tr.Keys(domain.LangRu)
	kk := tr.Keys(domain.LangKk)
	require.NotEmpty(t, ru)
	assert.Equal(t, ru, kk, "every key must be translated in both languages")
}

func TestT_SubstitutesEveryPlaceholder(t *testing.T) {
	tr := MustNew()

	got := tr.T(domain.LangRu, "plan_header", Vars{"id": 7, "year": 2025})
	assert.Equal(t, "Смета №7 (2025)", got)

	got = tr.T(domain.LangKk, "smeta_form_title", Vars{"year": 2026})
	assert.Equal(t, "2026 жылға арналған сатып алу сметасы", got)
}

func TestT_FallsBackToRussianThenKey(t *testing.T) {
	tr := &Translator{tables: map[domain.Lang]map[string]string{
		domain.LangRu: {"only_ru": "Только по-русски"},
		domain.LangKk: {},
	}}

	assert.Equal(t, "Только по-русски", tr.T(domain.LangKk, "only_ru"))
	assert.Equal(t, "missing_key", tr.T(domain.LangKk, "missing_key"))
}

func TestT_UnusedVarsAreIgnored(t *testing.T) {
	tr := MustNew()
	assert.Equal(t, "Сохранить", tr.T(domain.LangRu, "save", Vars{"x": 1}))
}

func TestStatusAndNeedTypeLabels(t *testing.T) {
	tr := MustNew()
	assert.Equal(t, "Черновик", tr.StatusLabel(domain.LangRu, domain.StatusDraft))
	assert.Equal(t, "Орындалды", tr.StatusLabel(domain.LangKk, domain.StatusExecuted))
	assert.Equal(t, "Жұмыс", tr.NeedTypeLabel(domain.LangKk, domain.NeedWork))
}

func TestDetectLang(t *testing.T) {
	cases := map[string]domain.Lang{
		"kk":          domain.LangKk,
		"kk-KZ":       domain.LangKk,
		"kk_KZ.UTF-8": domain.LangKk,
		"ru_RU.UTF-8": domain.LangRu,
		"en-US":       domain.LangRu,
		"C":           domain.LangRu,
		"":            domain.LangRu,
		"!!":          domain.LangRu,
	}
	for in, want := range cases {
		assert.Equal(t, want, DetectLang(in), "locale %q", in)
	}
}

func TestLocaleFromEnv_Precedence(t *testing.T) {
	env := map[string]string{"LANG": "ru_RU.UTF-8", "LC_MESSAGES": "kk_KZ.UTF-8"}
	assert.Equal(t, "kk_KZ.UTF-8", LocaleFromEnv(func(k string) string { return env[k] }))

	env["LC_ALL"] = "en_US.UTF-8"
	assert.Equal(t, "en_US.UTF-8", LocaleFromEnv(func(k string) string { return env[k] }))
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

func TestFormatMoney(t *testing.T) {
	got := FormatMoney(1234567.5)
	assert.True(t, strings.HasSuffix(got, "₸"))
	assert.Equal(t, "123456750", digitsOnly(got))
	assert.NotContains(t, got, "1234567", "thousands must be grouped")
}

func TestFormatQuantity(t *testing.T) {
	assert.Equal(t, "10", FormatQuantity(10))
	assert.Equal(t, "0.5", FormatQuantity(0.5))
	assert.Equal(t, "1.235", FormatQuantity(1.23456))
}
