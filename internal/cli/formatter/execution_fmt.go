package formatter

import (
	"strings"

	"github.com/alexanderramin/smeta/internal/domain"
	"github.com/alexanderramin/smeta/internal/viewmodel"
)

// FormatItemSummary renders the item line above an execution report.
func FormatItemSummary(l Localizer, it *domain.Item) string {
	var b strings.Builder
	b.WriteString(Bold(it.DisplayNumber()))
	b.WriteString("  ")
	b.WriteString(it.Name(l.Lang()))
	b.WriteString("  ")
	b.WriteString(NeedTypeBadge(l, it.NeedType))
	b.WriteString("\n")
	b.WriteString(Dim(l.T("plan") + ": "))
	b.WriteString(Quantity(it.Quantity.Float()) + " × " + Money(it.PricePerUnit.Float()) + " = " + Bold(Money(it.TotalAmount.Float())))
	b.WriteString("\n")
	return b.String()
}

// FormatProgress renders the quantity and amount bars of an item.
func FormatProgress(l Localizer, p viewmodel.Progress, width int) string {
	var b strings.Builder
	line := func(label string, pct, done, plan, remaining float64, money bool) {
		render := Quantity
		if money {
			render = Money
		}
		b.WriteString(PadRight(label, 22))
		b.WriteString(RenderProgress(pct, width))
		b.WriteString("  ")
		b.WriteString(render(done) + Dim(" / ") + render(plan))
		b.WriteString(Dim("  " + l.T("remaining") + ": "))
		b.WriteString(render(remaining))
		b.WriteString("\n")
	}
	line(l.T("quantity_progress"), p.QuantityPercent, p.ContractedQuantity, p.PlanQuantity, p.RemainingQuantity, false)
	line(l.T("amount_progress"), p.AmountPercent, p.ContractedAmount, p.PlanAmount, p.RemainingAmount, true)
	switch {
	case p.Overdrawn():
		b.WriteString(Failure(l.T("over_contracted")) + "\n")
	case p.FullyExecuted:
		b.WriteString(Success(l.T("fully_executed")) + "\n")
	}
	return b.String()
}

// FormatExecutions renders recorded contracts. cursor is the selected row
// or NoCursor.
func FormatExecutions(l Localizer, execs []domain.Execution, cursor int) string {
	if len(execs) == 0 {
		return Dim(l.T("no_records")) + "\n"
	}
	headers := []string{l.T("supplier_name"), l.T("supplier_bin"), l.T("contract_number"),
		l.T("contract_date"), l.T("contract_quantity"), l.T("contract_price"), l.T("contract_sum")}
	right := []int{4, 5, 6}
	if cursor != NoCursor {
		headers = append([]string{""}, headers...)
		right = []int{5, 6, 7}
	}
	t := NewTable(headers...).AlignRight(right...)
	for i, e := range execs {
		cells := []string{
			Truncate(e.SupplierName, 30),
			e.SupplierBIN,
			e.ContractNumber,
			FormatContractDate(e.ContractDate),
			Quantity(e.ContractQuantity.Float()),
			Money(e.ContractPricePerUnit.Float()),
			Money(e.ContractSum.Float()),
		}
		if cursor != NoCursor {
			cells = append([]string{Cursor(i == cursor)}, cells...)
		}
		t.Row(cells...)
	}
	return t.Render()
}

// EntryLine is one rendered input of the execution entry form.
type EntryLine struct {
	Label string
	Field viewmodel.Field
	Input string
}

// FormatExecutionEntry renders the inline entry form with the live check.
// focus indexes lines.
func FormatExecutionEntry(l Localizer, check viewmodel.ExecutionCheck, lines []EntryLine, focus int) string {
	var b strings.Builder
	b.WriteString(StyleHeader.Render(l.T("add_new_record")))
	b.WriteString("\n")
	for i, line := range lines {
		b.WriteString(Cursor(i == focus))
		b.WriteString(PadRight(line.Label, 28))
		b.WriteString(line.Input)
		if key := check.Error(line.Field); key != "" {
			b.WriteString("  ")
			b.WriteString(StyleRed.Render(l.T(key)))
		}
		b.WriteString("\n")
	}
	b.WriteString(Dim(l.T("contract_sum") + ": "))
	b.WriteString(Bold(Money(check.Sum)))
	if key := check.Error(viewmodel.ExecFieldSum); key != "" {
		b.WriteString("  ")
		b.WriteString(StyleRed.Render(l.T(key)))
	}
	b.WriteString(Dim("  " + l.T("max_price") + ": "))
	b.WriteString(Money(check.MaxPrice))
	b.WriteString("\n")
	return b.String()
}
