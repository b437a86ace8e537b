package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/smeta/internal/domain"
	"github.com/alexanderramin/smeta/internal/i18n"
	"github.com/alexanderramin/smeta/internal/viewmodel"
)

// NoCursor renders a list without a selection marker.
const NoCursor = -1

// FormatPlanList renders the dashboard table. cursor is the selected row
// or NoCursor.
func FormatPlanList(l Localizer, plans []domain.Plan, cursor int) string {
	if len(plans) == 0 {
		return Dim(l.T("no_plans_found")) + "\n"
	}
	headers := []string{l.T("smeta_id"), l.T("plan_details"), l.T("smeta_year"), l.T("active_version_amount"), l.T("current_status")}
	if cursor != NoCursor {
		headers = append([]string{""}, headers...)
	}
	t := NewTable(headers...)
	if cursor != NoCursor {
		t.AlignRight(4)
	} else {
		t.AlignRight(3)
	}
	for i := range plans {
		p := &plans[i]
		cells := []string{
			StyleGreen.Render(strconv.FormatInt(p.ID, 10)),
			Truncate(p.Name, 40),
			strconv.Itoa(p.Year),
			Money(p.ActiveTotal().Float()),
			StatusPill(l, p.DisplayStatus()),
		}
		if cursor != NoCursor {
			cells = append([]string{Cursor(i == cursor)}, cells...)
		}
		t.Row(cells...)
	}
	return t.Render()
}

// FormatPlanHeader renders the plan title line with the shown version.
func FormatPlanHeader(l Localizer, p *domain.Plan, v *domain.Version) string {
	var b strings.Builder
	b.WriteString(Header(l.T("smeta_form_title", i18n.Vars{"year": p.Year})))
	b.WriteString("\n")
	b.WriteString(Bold(p.Name))
	b.WriteString("  ")
	b.WriteString(Dim(l.T("plan_id_year", i18n.Vars{"id": p.ID, "year": p.Year})))
	if v != nil {
		b.WriteString("  ")
		b.WriteString(Dim(l.T("version") + " " + strconv.Itoa(v.Number)))
		b.WriteString(" ")
		b.WriteString(StatusPill(l, v.DisplayStatus()))
		if !v.IsActive {
			b.WriteString("  ")
			b.WriteString(StyleYellow.Render(l.T("viewing_version", i18n.Vars{"number": v.Number})))
		}
	}
	b.WriteString("\n")
	return b.String()
}

// FormatVersionStats renders the figures above the item table.
func FormatVersionStats(l Localizer, s viewmodel.VersionStats) string {
	pairs := [][2]string{
		{l.T("total_amount"), Bold(Money(s.Total))},
		{l.T("ktp_share"), Percent(s.KtpShare)},
		{l.T("import_share"), Percent(s.ImportShare)},
		{l.T("vc_amount"), Money(s.VCAmount)},
		{l.T("vc_mean"), Percent(s.VCMean)},
		{l.T("vc_median"), Percent(s.VCMedian)},
	}
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = Dim(p[0]+":") + " " + p[1]
	}
	return strings.Join(parts[:3], "   ") + "\n" + strings.Join(parts[3:], "   ") + "\n"
}

// FormatVersions renders the version history, newest first.
func FormatVersions(l Localizer, p *domain.Plan, shown int64) string {
	t := NewTable("", l.T("version"), l.T("status"), l.T("total_amount"), l.T("creation_date"), l.T("creator"))
	t.AlignRight(3)
	for _, v := range p.SortedVersions() {
		mark := "  "
		if v.IsActive {
			mark = StyleGreen.Render("● ")
		}
		number := strconv.Itoa(v.Number)
		if v.ID == shown {
			number = Bold(number)
		}
		creator := "—"
		if v.Creator != nil {
			creator = v.Creator.FullName
		}
		t.Row(mark, number, StatusPill(l, v.DisplayStatus()), Money(v.TotalAmount.Float()), FormatDate(v.CreatedAt), creator)
	}
	return t.Render()
}

// ItemTableOptions controls FormatItemTable.
type ItemTableOptions struct {
	// Cursor is the selected item id, 0 for none.
	Cursor int64
	// Executed adds the execution progress column.
	Executed bool
}

// FormatItemTable renders one page of items with need type group rows.
func FormatItemTable(l Localizer, page viewmodel.TablePage, opts ItemTableOptions) string {
	if page.Matched == 0 {
		return Dim(l.T("no_items_in_plan")) + "\n"
	}
	headers := []string{"", l.T("item_number_short"), l.T("item_name"), l.T("item_unit"),
		l.T("item_quantity"), l.T("item_price"), l.T("sum"), l.T("is_ktp")}
	if opts.Executed {
		headers = append(headers, l.T("executed"))
	}
	t := NewTable(headers...).AlignRight(4, 5, 6)
	lang := l.Lang()
	for _, row := range page.Rows {
		if row.Header {
			t.Group(l.T(row.NeedType.TranslationKey()))
			continue
		}
		it := row.Item
		unit := "—"
		if it.Unit != nil {
			unit = it.Unit.Name(lang)
		}
		ktp := ""
		if it.IsKtp {
			ktp = "✔"
		}
		cells := []string{
			it.DisplayNumber(),
			Truncate(it.Name(lang), 38),
			unit,
			i18n.FormatQuantity(it.Quantity.Float()),
			i18n.FormatMoney(it.PricePerUnit.Float()),
			i18n.FormatMoney(it.TotalAmount.Float()),
			ktp,
		}
		var progress viewmodel.Progress
		if opts.Executed {
			progress = viewmodel.ItemProgressFromTotals(it)
			cells = append(cells, fmt.Sprintf("%3.0f%%", progress.QuantityPercent))
		}
		for i := range cells {
			switch {
			case it.IsDeleted:
				cells[i] = StyleStrike.Render(cells[i])
			case i == 6:
				cells[i] = StyleGreen.Render(cells[i])
			}
		}
		if opts.Executed {
			last := len(cells) - 1
			cells[last] = RenderCompactBar(progress.QuantityPercent, 8, it.IsDeleted) + " " + cells[last]
		}
		cells = append([]string{Cursor(opts.Cursor != 0 && it.ID == opts.Cursor)}, cells...)
		t.Row(cells...)
	}
	return t.Render()
}

// FormatPageFooter renders "page x of y" with the matched item count.
func FormatPageFooter(l Localizer, page viewmodel.TablePage) string {
	total := max(page.TotalPages, 1)
	return Dim(l.T("page_of", i18n.Vars{"page": page.Page + 1, "total": total}) + "  ·  " +
		l.T("item_count", i18n.Vars{"count": page.Matched}) + "  ·  " +
		l.T("page_size", i18n.Vars{"size": page.PageSize}))
}

// FormatImportResult renders the outcome of an item import: the success
// message, or the row errors and the annotated workbook.
func FormatImportResult(l Localizer, res domain.ImportResult) string {
	if !res.Failed() {
		return Success(l.T("import_success")) + "\n"
	}
	var b strings.Builder
	b.WriteString(Failure(l.T("import_errors_title")))
	b.WriteString("\n")
	for _, e := range res.Errors {
		b.WriteString("  " + e + "\n")
	}
	if res.ErrorFile != "" {
		b.WriteString(l.T("import_error_file_saved", i18n.Vars{"path": res.ErrorFile, "rows": res.ErrorRows}))
		b.WriteString("\n")
	}
	return b.String()
}
