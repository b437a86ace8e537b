package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/alexanderramin/smeta/internal/domain"
)

// MaxImportErrors caps the row errors reported for one import.
const MaxImportErrors = 10

// WorkbookSummary describes a spreadsheet saved to disk.
type WorkbookSummary struct {
	Path  string
	Sheet string
	// Rows counts non-empty rows below the header.
	Rows int
	// Messages holds the first values of the annotation column, if any.
	Messages []string
}

// ImportItems uploads an xlsx file of items into the plan's draft. Row
// validation failures are not errors: they come back in the result, either
// as a list or as an annotated workbook saved under dir.
func (c *Client) ImportItems(ctx context.Context, planID int64, filename string, src io.Reader, dir string) (domain.ImportResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return domain.ImportResult{}, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, src); err != nil {
		return domain.ImportResult{}, fmt.Errorf("reading %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return domain.ImportResult{}, fmt.Errorf("closing form: %w", err)
	}

	resp, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        fmt.Sprintf("/plans/%d/import", planID),
		body:        &buf,
		contentType: mw.FormDataContentType(),
		rawOK:       true,
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest && len(apiErr.Errors) > 0 {
			return domain.ImportResult{Message: apiErr.Detail, Errors: capErrors(apiErr.Errors)}, nil
		}
		return domain.ImportResult{}, err
	}

	if resp.isSpreadsheet() {
		name := resp.filename
		if name == "" {
			name = fmt.Sprintf("plan_%d_import_errors.xlsx", planID)
		}
		path, err := saveFile(dir, name, resp.body)
		if err != nil {
			return domain.ImportResult{}, err
		}
		sum, err := SummarizeWorkbook(path)
		if err != nil {
			return domain.ImportResult{}, err
		}
		return domain.ImportResult{
			Errors:    capErrors(sum.Messages),
			ErrorFile: path,
			ErrorRows: sum.Rows,
		}, nil
	}

	var out domain.ImportResult
	if err := decode(resp, &out); err != nil {
		return domain.ImportResult{}, err
	}
	return out, nil
}

// ImportTemplate downloads the blank import workbook into dir.
func (c *Client) ImportTemplate(ctx context.Context, dir string) (WorkbookSummary, error) {
	return c.download(ctx, "/plans/import-template", dir, "import_template.xlsx")
}

// ExportVersion saves the version as plan_{id}_v{n}.xlsx in dir.
func (c *Client) ExportVersion(ctx context.Context, planID, versionID int64, number int, dir string) (WorkbookSummary, error) {
	path := fmt.Sprintf("/plans/%d/versions/%d/export", planID, versionID)
	return c.download(ctx, path, dir, fmt.Sprintf("plan_%d_v%d.xlsx", planID, number))
}

func (c *Client) download(ctx context.Context, path, dir, name string) (WorkbookSummary, error) {
	resp, err := c.do(ctx, request{method: http.MethodGet, path: path, rawOK: true})
	if err != nil {
		return WorkbookSummary{}, err
	}
	if !resp.isSpreadsheet() {
		return WorkbookSummary{}, fmt.Errorf("%w: expected a spreadsheet, got %q", ErrInvalidResponse, resp.contentType)
	}
	saved, err := saveFile(dir, name, resp.body)
	if err != nil {
		return WorkbookSummary{}, err
	}
	return SummarizeWorkbook(saved)
}

func saveFile(dir, name string, data []byte) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("saving %s: %w", path, err)
	}
	return path, nil
}

// SummarizeWorkbook reads the first sheet of the workbook at path. The
// annotation column is the last header column when it is titled as an
// error column.
func SummarizeWorkbook(path string) (WorkbookSummary, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return WorkbookSummary{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return WorkbookSummary{Path: path}, nil
	}
	sum := WorkbookSummary{Path: path, Sheet: sheets[0]}
	rows, err := f.GetRows(sum.Sheet)
	if err != nil {
		return WorkbookSummary{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(rows) == 0 {
		return sum, nil
	}

	annotation := -1
	if header := rows[0]; len(header) > 0 && isErrorHeader(header[len(header)-1]) {
		annotation = len(header) - 1
	}
	for _, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		if annotation < 0 {
			sum.Rows++
			continue
		}
		if annotation < len(row) && strings.TrimSpace(row[annotation]) != "" {
			sum.Rows++
			if len(sum.Messages) < MaxImportErrors {
				sum.Messages = append(sum.Messages, strings.TrimSpace(row[annotation]))
			}
		}
	}
	return sum, nil
}

func isErrorHeader(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(s, "ошибк") || strings.HasPrefix(s, "қате") || strings.HasPrefix(s, "error")
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func capErrors(errs []string) []string {
	if len(errs) > MaxImportErrors {
		return errs[:MaxImportErrors]
	}
	return errs
}
