package shopping

import (
	"bufio"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type Format string

// defaultFont: DejaVu Sans Condensed, кириллица без внешних файлов.
//
//go:embed fonts/DejaVuSansCondensed.ttf
var defaultFont []byte

var ErrUnknownFormat = errors.New("shopping: unknown format")

const (
	FormatText Format = "txt"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// ParseFormat: пустая строка означает PDF.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatPDF, nil
	case FormatText, FormatPDF, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownFormat, s)
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/plain; charset=utf-8"
	}
}

func FileName(now time.Time, f Format) string {
	return fmt.Sprintf("shopping_list_%s.%s", now.Format("20060102_150405"), f)
}

type RenderOptions struct {
	// FontPath: свой TTF для PDF; пусто означает встроенный DejaVu.
	FontPath    string
	GeneratedAt time.Time
}

func Render(w io.Writer, l *List, f Format, opts RenderOptions) error {
	switch f {
	case FormatText:
		return RenderText(w, l)
	case FormatPDF:
		return RenderPDF(w, l, opts)
	case FormatXLSX:
		return RenderXLSX(w, l)
	default:
		return fmt.Errorf("%w %q", ErrUnknownFormat, f)
	}
}

func entryLine(e Entry) string {
	return fmt.Sprintf("%s (%s) - %s", e.Name, e.Unit, e.Amount.String())
}

// RenderText: одна позиция на строку, "<название> (<ед.>) - <количество>".
func RenderText(w io.Writer, l *List) error {
	bw := bufio.NewWriter(w)
	for _, e := range l.Entries() {
		if _, err := bw.WriteString(entryLine(e) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func RenderPDF(w io.Writer, l *List, opts RenderOptions) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)

	const family = "ListFont"
	if opts.FontPath != "" {
		pdf.AddUTF8Font(family, "", opts.FontPath)
	} else {
		pdf.AddUTF8FontFromBytes(family, "", defaultFont)
	}
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("pdf font: %w", err)
	}

	generated := opts.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	pdf.SetTitle("Список покупок", true)
	pdf.AddPage()
	pdf.SetFont(family, "", 16)
	pdf.CellFormat(0, 10, "Список покупок", "", 1, "L", false, 0, "")
	pdf.SetFont(family, "", 10)
	pdf.CellFormat(0, 6, generated.Format("02.01.2006 15:04:05"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(family, "", 13)
	entries := l.Entries()
	if len(entries) == 0 {
		pdf.CellFormat(0, 8, "-", "", 1, "L", false, 0, "")
	}
	for _, e := range entries {
		pdf.CellFormat(0, 8, entryLine(e), "", 1, "L", false, 0, "")
	}
	return pdf.Output(w)
}

// RenderXLSX: лист с колонками ingredient / unit / amount.
func RenderXLSX(w io.Writer, l *List) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	header := []interface{}{"ingredient", "unit", "amount"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("xlsx header: %w", err)
	}

	row := 2
	for _, e := range l.Entries() {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		values := []interface{}{e.Name, string(e.Unit)}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("xlsx row %d: %w", row, err)
		}
		// число пишем с точностью самого decimal, чтобы в ячейке была та же запись
		amountCell, err := excelize.CoordinatesToCellName(3, row)
		if err != nil {
			return err
		}
		if err := f.SetCellFloat(sheet, amountCell, e.Amount.InexactFloat64(), fractionDigits(e.Amount), 64); err != nil {
			return fmt.Errorf("xlsx amount %d: %w", row, err)
		}
		row++
	}
	if err := f.SetColWidth(sheet, "A", "A", 32); err != nil {
		return err
	}
	return f.Write(w)
}

func fractionDigits(d decimal.Decimal) int {
	str := d.String()
	if i := strings.IndexByte(str, '.'); i >= 0 {
		return len(str) - i - 1
	}
	return 0
}
