package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/alexanderramin/smeta/internal/api"
	"github.com/alexanderramin/smeta/internal/domain"
)

// ImportColumns is the header of the import template, in column order.
var ImportColumns = []string{
	"Код ЕНС ТРУ", "Код МКЕИ", "Количество", "Цена за единицу", "ID статьи затрат",
	"ID источника финансирования", "Код КАТО закупки", "Код КАТО поставки", "Код АГСК", "Характеристика (рус)", "Характеристика (каз)",
}

// importOutcome is what the server answers to an upload: a message on
// success, otherwise row errors or an annotated copy of the workbook.
type importOutcome struct {
	message   string
	errors    []string
	annotated []byte
}

func (b *Backend) importWorkbook(planID int64, data []byte) (importOutcome, error) {
	if err := b.enter("ImportItems"); err != nil {
		b.mu.Unlock()
		return importOutcome{}, err
	}
	defer b.mu.Unlock()

	v := b.activeVersion(planID)
	if v == nil {
		return importOutcome{}, apiError(http.StatusNotFound, "Активная версия плана не найдена")
	}
	if v.Status != domain.StatusDraft {
		return importOutcome{}, apiError(http.StatusForbidden, "Импорт возможен только в черновик")
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return importOutcome{}, apiError(http.StatusBadRequest, "Неверный формат файла. Ожидается .xlsx")
	}
	defer f.Close()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet)
	if err != nil {
		return importOutcome{}, apiError(http.StatusBadRequest, "Неверный формат файла. Ожидается .xlsx")
	}

	var staged []*domain.Item
	var errs []string
	rowErrors := map[int]string{}
	for idx := 1; idx < len(rows); idx++ {
		row := rows[idx]
		if cell(row, 0) == "" {
			continue
		}
		it, msg := b.parseImportRow(row)
		if msg != "" {
			line := idx + 1
			errs = append(errs, fmt.Sprintf("Строка %d: %s", line, msg))
			rowErrors[line] = msg
			continue
		}
		staged = append(staged, it)
	}

	if len(errs) > 0 {
		if b.AnnotateImportErrors {
			annotated, err := annotate(f, sheet, len(ImportColumns)+1, rowErrors)
			if err != nil {
				return importOutcome{}, err
			}
			return importOutcome{annotated: annotated}, nil
		}
		return importOutcome{message: "Ошибки в файле", errors: capped(errs)}, nil
	}
	if len(staged) == 0 {
		return importOutcome{}, apiError(http.StatusBadRequest, "Файл пуст или не содержит корректных данных")
	}
	for _, it := range staged {
		it.ID = b.id()
		it.VersionID = v.ID
		it.Number = b.nextNumber(v.ID, it.NeedType)
		it.RootItemID = ptr(it.ID)
		it.SourceVersionID = ptr(v.ID)
		it.CreatedAt = domain.Timestamp{Time: b.now()}
		b.items[it.ID] = it
	}
	b.recalculate(v.ID)
	return importOutcome{message: fmt.Sprintf("Успешно импортировано %d позиций", len(staged))}, nil
}

func capped(errs []string) []string {
	if len(errs) > api.MaxImportErrors {
		return errs[:api.MaxImportErrors]
	}
	return errs
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (b *Backend) parseImportRow(row []string) (*domain.Item, string) {
	code := cell(row, 0)
	qty, err1 := parseCellNumber(cell(row, 2))
	price, err2 := parseCellNumber(cell(row, 3))
	costID, err3 := parseCellID(cell(row, 4))
	fundID, err4 := parseCellID(cell(row, 5))
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return nil, "Ошибка в числах (кол-во, цена или ID)"
	}
	e, ok := b.catalog.enstru(code)
	if !ok {
		return nil, "Не найден ЕНС ТРУ " + code
	}
	unitCode := cell(row, 1)
	unit, ok := b.catalog.mkeiByCode(unitCode)
	if !ok {
		return nil, "Не найден код ед. изм. " + unitCode
	}
	if costID == 0 || fundID == 0 {
		return nil, "Не указан ID статьи затрат или источника"
	}
	kpCode, kdCode := cell(row, 6), cell(row, 7)
	if kpCode == "" || kdCode == "" {
		return nil, "Не указаны коды КАТО"
	}
	kp, ok := b.catalog.katoByCode(kpCode)
	if !ok {
		return nil, "Не найден КАТО закупки " + kpCode
	}
	kd, ok := b.catalog.katoByCode(kdCode)
	if !ok {
		return nil, "Не найден КАТО поставки " + kdCode
	}
	cost, ok := b.catalog.costItem(costID)
	if !ok {
		return nil, fmt.Sprintf("Не найдена статья затрат %d", costID)
	}
	fund, ok := b.catalog.fundingSource(fundID)
	if !ok {
		return nil, fmt.Sprintf("Не найден источник финансирования %d", fundID)
	}
	agskCode := cell(row, 8)
	if cost.IsConstruction() && agskCode == "" {
		return nil, "Для статьи затрат 'СМР' обязательно укажите код АГСК"
	}

	it := &domain.Item{
		NeedType:      e.NeedType(),
		TruCode:       e.Code,
		Enstru:        &e,
		Unit:          &unit,
		CostItem:      &cost,
		FundingSource: &fund,
		KatoPurchase:  &kp,
		KatoDelivery:  &kd,
		Quantity:      domain.Amount(qty),
		PricePerUnit:  domain.Amount(price),
		TotalAmount:   domain.Amount(qty * price),
		ResidentShare: 100,
		SpecsRu:       cell(row, 9),
		SpecsKk:       cell(row, 10),
	}
	if agskCode != "" {
		if a, ok := b.catalog.agsk(agskCode); ok {
			it.Agsk = &a
		}
	}
	if dvc, ok := b.catalog.Ktp[code]; ok {
		it.IsKtp = true
		it.MinDVCPercent = domain.Amount(dvc)
	}
	return it, ""
}

func parseCellNumber(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
}

func parseCellID(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

// annotate writes each row's error into column col and returns the
// workbook bytes.
func annotate(f *excelize.File, sheet string, col int, rowErrors map[int]string) ([]byte, error) {
	header, err := excelize.CoordinatesToCellName(col, 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellValue(sheet, header, "Ошибка"); err != nil {
		return nil, err
	}
	for line, msg := range rowErrors {
		name, err := excelize.CoordinatesToCellName(col, line)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, name, msg); err != nil {
			return nil, err
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ImportWorkbook builds an upload with the template header and rows.
func ImportWorkbook(rows ...[]any) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Шаблон"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	all := append([][]any{toAny(ImportColumns)}, rows...)
	for r, row := range all {
		for c, v := range row {
			name, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, name, v); err != nil {
				return nil, err
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func (b *Backend) templateWorkbook() ([]byte, error) {
	if err := b.enter("ImportTemplate"); err != nil {
		b.mu.Unlock()
		return nil, err
	}
	cat := b.catalog
	b.mu.Unlock()

	data, err := ImportWorkbook()
	if err != nil {
		return nil, err
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	const ref = "Справочники"
	if _, err := f.NewSheet(ref); err != nil {
		return nil, err
	}
	f.SetCellValue(ref, "A1", "СТАТЬИ ЗАТРАТ")
	for i, ci := range cat.CostItems {
		f.SetCellValue(ref, fmt.Sprintf("A%d", i+2), ci.ID)
		f.SetCellValue(ref, fmt.Sprintf("B%d", i+2), ci.NameRu)
	}
	f.SetCellValue(ref, "D1", "ИСТОЧНИКИ ФИНАНСИРОВАНИЯ")
	for i, fs := range cat.FundingSources {
		f.SetCellValue(ref, fmt.Sprintf("D%d", i+2), fs.ID)
		f.SetCellValue(ref, fmt.Sprintf("E%d", i+2), fs.NameRu)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportColumns is the header of an exported version.
var ExportColumns = []string{
	"№", "Код по ЕНС ТРУ", "Наименование", "Единица измерения", "Количество",
	"Цена за единицу", "Сумма", "Статья затрат", "Код АГСК", "КТП", "ВЦ %", "Сумма ВЦ",
}

func (b *Backend) exportWorkbook(planID, versionID int64) ([]byte, error) {
	if err := b.enter("ExportVersion"); err != nil {
		b.mu.Unlock()
		return nil, err
	}
	defer b.mu.Unlock()
	v, ok := b.versions[versionID]
	if !ok || v.PlanID != planID {
		return nil, apiError(http.StatusNotFound, "Версия сметы не найдена")
	}

	var live []domain.Item
	for _, it := range b.versionItems(versionID) {
		if !it.IsDeleted {
			live = append(live, *it)
		}
	}
	sort.SliceStable(live, func(i, j int) bool {
		if live[i].NeedType.Rank() != live[j].NeedType.Rank() {
			return live[i].NeedType.Rank() < live[j].NeedType.Rank()
		}
		return live[i].Number < live[j].Number
	})

	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Смета"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	bold, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	for i, h := range ExportColumns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetCellValue(sheet, col+"1", h)
		f.SetCellStyle(sheet, col+"1", col+"1", bold)
	}
	for i, it := range live {
		row := i + 2
		agsk := ""
		if it.Agsk != nil {
			agsk = it.Agsk.Code
		} else if it.CostItem != nil && it.CostItem.IsConstruction() {
			agsk = "Прайс-лист"
		}
		ktp := "Нет"
		if it.IsKtp {
			ktp = "Да"
		}
		unit, cost := "", ""
		if it.Unit != nil {
			unit = it.Unit.NameRu
		}
		if it.CostItem != nil {
			cost = it.CostItem.NameRu
		}
		values := []any{
			it.DisplayNumber(), it.TruCode, it.Name(domain.LangRu), unit, it.Quantity.Float(),
			it.PricePerUnit.Float(), it.TotalAmount.Float(), cost, agsk, ktp, it.MinDVCPercent.Float(), it.VCAmount.Float(),
		}
		for c, val := range values {
			name, _ := excelize.CoordinatesToCellName(c+1, row)
			f.SetCellValue(sheet, name, val)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ImportItems applies an upload in process. An annotated rejection is
// saved under dir, as the HTTP client does.
func (b *Backend) ImportItems(_ context.Context, planID int64, filename string, src io.Reader, dir string) (domain.ImportResult, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return domain.ImportResult{}, fmt.Errorf("reading %s: %w", filename, err)
	}
	out, err := b.importWorkbook(planID, data)
	if err != nil {
		return domain.ImportResult{}, err
	}
	if out.annotated != nil {
		path, err := writeFile(dir, fmt.Sprintf("plan_%d_import_errors.xlsx", planID), out.annotated)
		if err != nil {
			return domain.ImportResult{}, err
		}
		sum, err := api.SummarizeWorkbook(path)
		if err != nil {
			return domain.ImportResult{}, err
		}
		return domain.ImportResult{Errors: sum.Messages, ErrorFile: path, ErrorRows: sum.Rows}, nil
	}
	return domain.ImportResult{Message: out.message, Errors: out.errors}, nil
}

func (b *Backend) ImportTemplate(_ context.Context, dir string) (api.WorkbookSummary, error) {
	data, err := b.templateWorkbook()
	if err != nil {
		return api.WorkbookSummary{}, err
	}
	path, err := writeFile(dir, "import_template.xlsx", data)
	if err != nil {
		return api.WorkbookSummary{}, err
	}
	return api.SummarizeWorkbook(path)
}

func (b *Backend) ExportVersion(_ context.Context, planID, versionID int64, number int, dir string) (api.WorkbookSummary, error) {
	data, err := b.exportWorkbook(planID, versionID)
	if err != nil {
		return api.WorkbookSummary{}, err
	}
	path, err := writeFile(dir, fmt.Sprintf("plan_%d_v%d.xlsx", planID, number), data)
	if err != nil {
		return api.WorkbookSummary{}, err
	}
	return api.SummarizeWorkbook(path)
}

func writeFile(dir, name string, data []byte) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	return path, os.WriteFile(path, data, 0o644)
}
