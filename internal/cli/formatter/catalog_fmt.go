package formatter

import (
	"github.com/alexanderramin/smeta/internal/domain"
)

// FormatEnstru renders commodity search results.
func FormatEnstru(l Localizer, found []domain.Enstru) string {
	if len(found) == 0 {
		return Dim(l.T("no_results")) + "\n"
	}
	t := NewTable(l.T("enstru_label"), l.T("enstru_name_label"), l.T("need_type"), l.T("enstru_unit_label"))
	for _, e := range found {
		t.Row(StyleGreen.Render(e.Code), Truncate(e.Name(l.Lang()), 50), NeedTypeBadge(l, e.NeedType()), e.UnitLabel)
	}
	return t.Render()
}

// FormatMkei renders unit search results.
func FormatMkei(l Localizer, found []domain.Mkei) string {
	if len(found) == 0 {
		return Dim(l.T("no_results")) + "\n"
	}
	t := NewTable("", l.T("item_unit"))
	for _, m := range found {
		t.Row(StyleGreen.Render(m.Code), m.Name(l.Lang()))
	}
	return t.Render()
}

// FormatAgsk renders construction-code choices, price list first.
func FormatAgsk(l Localizer, found []domain.AgskChoice) string {
	t := NewTable("", l.T("agsk_3"))
	for _, c := range found {
		if a, ok := c.Code(); ok {
			t.Row(StyleGreen.Render(a.Code), Truncate(a.NameRu, 60))
			continue
		}
		if c.IsPriceList() {
			t.Row(StylePurple.Render("—"), l.T("price_list"))
		}
	}
	return t.Render()
}

// FormatKato renders one level or search result of the region hierarchy.
func FormatKato(l Localizer, found []domain.Kato) string {
	if len(found) == 0 {
		return Dim(l.T("no_results")) + "\n"
	}
	t := NewTable("", l.T("hierarchy"))
	for _, k := range found {
		t.Row(StyleGreen.Render(k.Code), k.Name(l.Lang()))
	}
	return t.Render()
}

// ChoiceLabel renders a selected catalog value for a form row.
func ChoiceLabel(l Localizer, code, name string) string {
	if code == "" && name == "" {
		return Dim(l.T("not_selected"))
	}
	if code == "" {
		return name
	}
	return StyleGreen.Render(code) + " " + name
}
