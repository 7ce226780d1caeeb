package shopping

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Spok95/foodgram/internal/domain/ingredients"
	"github.com/Spok95/foodgram/internal/domain/recipes"
)

func sampleList() *List {
	l := NewList()
	l.Add(recipes.Line{IngredientID: 2, Name: "sugar", Unit: ingredients.UnitGram, Amount: decimal.NewFromInt(50)})
	l.Add(recipes.Line{IngredientID: 1, Name: "flour", Unit: ingredients.UnitGram, Amount: decimal.NewFromInt(200)})
	l.Add(recipes.Line{IngredientID: 1, Name: "flour", Unit: ingredients.UnitGram, Amount: decimal.NewFromInt(100)})
	l.Add(recipes.Line{IngredientID: 3, Name: "milk", Unit: ingredients.UnitLiter, Amount: decimal.RequireFromString("1.5")})
	return l
}

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, sampleList()))
	assert.Equal(t, "flour (g) - 300\nmilk (l) - 1.5\nsugar (g) - 50\n", buf.String())

	buf.Reset()
	require.NoError(t, RenderText(&buf, NewList()))
	assert.Empty(t, buf.String())
}

func TestRenderPDF(t *testing.T) {
	var buf bytes.Buffer
	err := RenderPDF(&buf, sampleList(), RenderOptions{GeneratedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	buf.Reset()
	require.NoError(t, RenderPDF(&buf, NewList(), RenderOptions{}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestRenderPDFEmbedsUnicodeFont(t *testing.T) {
	l := NewList()
	l.Add(recipes.Line{IngredientID: 1, Name: "мука", Unit: ingredients.UnitGram, Amount: decimal.NewFromInt(300)})

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, l, FormatPDF, RenderOptions{}))
	out := buf.Bytes()
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	// встроенный TTF: Identity-H и ToUnicode, без cp1252 Helvetica
	assert.Contains(t, string(out), "/Encoding /Identity-H")
	assert.Contains(t, string(out), "/ToUnicode")
	assert.NotContains(t, string(out), "/BaseFont /Helvetica")
}

func TestRenderPDFMissingFont(t *testing.T) {
	var buf bytes.Buffer
	err := RenderPDF(&buf, sampleList(), RenderOptions{FontPath: filepath.Join(t.TempDir(), "missing.ttf")})
	require.Error(t, err)
}

func TestRenderXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderXLSX(&buf, sampleList()))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(f.GetSheetName(f.GetActiveSheetIndex()))
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"ingredient", "unit", "amount"},
		{"flour", "g", "300"},
		{"milk", "l", "1.5"},
		{"sugar", "g", "50"},
	}, rows)
}

func TestRenderXLSXKeepsExactAmounts(t *testing.T) {
	l := NewList()
	l.Add(recipes.Line{IngredientID: 1, Name: "соль", Unit: ingredients.UnitGram, Amount: decimal.RequireFromString("1234567.125")})
	l.Add(recipes.Line{IngredientID: 2, Name: "масло", Unit: ingredients.UnitGram, Amount: decimal.RequireFromString("0.1")})
	l.Add(recipes.Line{IngredientID: 2, Name: "масло", Unit: ingredients.UnitGram, Amount: decimal.RequireFromString("0.2")})

	var buf bytes.Buffer
	require.NoError(t, RenderXLSX(&buf, l))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	raw := excelize.Options{RawCellValue: true}
	got, err := f.GetCellValue(sheet, "C2", raw)
	require.NoError(t, err)
	assert.Equal(t, "0.3", got)
	got, err = f.GetCellValue(sheet, "C3", raw)
	require.NoError(t, err)
	assert.Equal(t, "1234567.125", got)

	typ, err := f.GetCellType(sheet, "C3")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, typ, "amount must stay numeric")
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"": FormatPDF, "pdf": FormatPDF, "TXT": FormatText, " xlsx ": FormatXLSX}
	for in, want := range cases {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("docx")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestFileNameAndContentType(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 5, 7, 0, time.UTC)
	assert.Equal(t, "shopping_list_20240301_090507.pdf", FileName(now, FormatPDF))
	assert.Equal(t, "application/pdf", FormatPDF.ContentType())
	assert.Equal(t, "text/plain; charset=utf-8", FormatText.ContentType())
	assert.Contains(t, FormatXLSX.ContentType(), "spreadsheetml")
}
