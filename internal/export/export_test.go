package export

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padelhub/storefront/internal/catalog"
	"github.com/padelhub/storefront/pkg/model"
)

type fakePrinter struct {
	html []byte
}

func (f *fakePrinter) PrintPDF(_ context.Context, html []byte) ([]byte, error) {
	f.html = html
	return []byte("%PDF-1.4 fake"), nil
}

func rows() []catalog.Row {
	return catalog.BuildRows([]model.Product{
		{Code: "BX-01", Name: "Vertex <b>03</b>", Brand: "Bullpadel", Category: model.CategoryPaddle,
			BasePrice: decimal.NewFromInt(25000), Currency: model.CurrencyARS, Stock: 4,
			Surcharges: model.Surcharges{Transport: decimal.NewFromInt(15), Margin: decimal.NewFromInt(10)}},
		{Code: "HD-77", Name: "Head Pro", Brand: "Head", Category: model.CategoryBall,
			BasePrice: decimal.NewFromInt(45), Currency: model.CurrencyUSD, Stock: 12,
			DiscountPercent: decimal.NewFromInt(20)},
	}, nil)
}

func meta() Meta {
	return Meta{
		Title:       "Lista de precios",
		GeneratedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Role:        model.RoleVendor,
		Identity:    "Juan Pérez",
		Page:        2,
	}
}

func TestRender_Spreadsheet(t *testing.T) {
	r := NewRenderer(nil, nil, nil)

	doc, err := r.Render(context.Background(), FormatSpreadsheet, rows(), meta())
	require.NoError(t, err)

	assert.Equal(t, "application/vnd.ms-excel", doc.MIMEType)
	assert.Equal(t, "attachment", doc.Disposition)
	assert.True(t, strings.HasSuffix(doc.Filename, ".xls"))

	body := string(doc.Body)
	for _, h := range Header {
		assert.Contains(t, body, "<th>"+h+"</th>")
	}
	assert.Contains(t, body, "$ 31.250,00")
	assert.Contains(t, body, "US$ 36.00")
	assert.Contains(t, body, "25%")
	assert.Contains(t, body, "Stock bajo")
	assert.Contains(t, body, "Paletas")
	assert.Contains(t, body, "Vertex &lt;b&gt;03&lt;/b&gt;")
	assert.NotContains(t, body, "window.print")
	assert.Equal(t, 2, strings.Count(body, "<tr><td>"))
}

func TestRender_EmptySpreadsheet(t *testing.T) {
	r := NewRenderer(nil, nil, nil)

	doc, err := r.Render(context.Background(), FormatSpreadsheet, nil, meta())
	require.NoError(t, err)

	body := string(doc.Body)
	assert.Contains(t, body, "<th>Código</th>")
	assert.Equal(t, 0, strings.Count(body, "<td>"))
}

func TestRender_DocumentAndPrintable(t *testing.T) {
	r := NewRenderer(nil, nil, nil)

	doc, err := r.Render(context.Background(), FormatDocument, rows(), meta())
	require.NoError(t, err)
	assert.Equal(t, "application/msword", doc.MIMEType)
	assert.True(t, strings.HasSuffix(doc.Filename, ".doc"))

	printable, err := r.Render(context.Background(), FormatPrintable, rows(), meta())
	require.NoError(t, err)
	assert.Equal(t, "inline", printable.Disposition)
	assert.Contains(t, string(printable.Body), "window.print()")
}

func TestRender_CSV(t *testing.T) {
	r := NewRenderer(nil, nil, nil)

	doc, err := r.Render(context.Background(), FormatCSV, rows(), meta())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(doc.Body)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(Header, ","), lines[0])
	assert.Contains(t, lines[2], "HD-77")
	assert.Contains(t, lines[2], "US$ 36.00")

	empty, err := r.Render(context.Background(), FormatCSV, nil, meta())
	require.NoError(t, err)
	assert.Equal(t, strings.Join(Header, ","), strings.TrimSpace(string(empty.Body)))
}

func TestRender_XLSX(t *testing.T) {
	r := NewRenderer(nil, nil, nil)

	doc, err := r.Render(context.Background(), FormatXLSX, rows(), meta())
	require.NoError(t, err)
	require.True(t, len(doc.Body) > 2)
	assert.Equal(t, "PK", string(doc.Body[:2]))
	assert.True(t, strings.HasSuffix(doc.Filename, ".xlsx"))
}

func TestRender_PDF(t *testing.T) {
	t.Run("unavailable without printer", func(t *testing.T) {
		r := NewRenderer(nil, NewChromePrinter("", 0), nil)
		_, err := r.Render(context.Background(), FormatPDF, rows(), meta())
		assert.True(t, errors.Is(err, ErrFormatUnavailable))
	})
	t.Run("prints the table", func(t *testing.T) {
		p := &fakePrinter{}
		r := NewRenderer(nil, p, nil)
		doc, err := r.Render(context.Background(), FormatPDF, rows(), meta())
		require.NoError(t, err)
		assert.Equal(t, "application/pdf", doc.MIMEType)
		assert.Contains(t, string(p.html), "HD-77")
		assert.NotContains(t, string(p.html), "window.print")
	})
}

func TestRender_PercentUsesCurrencyLocale(t *testing.T) {
	fractional := catalog.BuildRows([]model.Product{
		{Code: "BX-02", Name: "Vertex Jr", Category: model.CategoryPaddle,
			BasePrice: decimal.NewFromInt(1000), Currency: model.CurrencyARS, Stock: 9,
			Surcharges: model.Surcharges{Transport: decimal.RequireFromString("7.5"), Margin: decimal.NewFromInt(5)}},
		{Code: "HD-78", Name: "Head Lite", Category: model.CategoryBall,
			BasePrice: decimal.NewFromInt(10), Currency: model.CurrencyUSD, Stock: 9,
			Surcharges: model.Surcharges{Transport: decimal.RequireFromString("2.5")}},
	}, nil)

	doc, err := NewRenderer(nil, nil, nil).Render(context.Background(), FormatCSV, fractional, meta())
	require.NoError(t, err)

	body := string(doc.Body)
	assert.Contains(t, body, "12,5%")
	assert.Contains(t, body, "2.5%")
	assert.NotContains(t, body, "12.5%")
}

func TestRender_UnknownFormat(t *testing.T) {
	_, err := NewRenderer(nil, nil, nil).Render(context.Background(), Format("odt"), nil, meta())
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = ParseFormat("odt")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "lista_precios_vendor_juan_perez_pag2.xls",
		Filename(model.RoleVendor, "Juan Pérez", 2, FormatSpreadsheet))
	assert.Equal(t, "lista_precios_admin_ana_maria_nunez_pag1.pdf",
		Filename(model.RoleAdmin, "Ana María Núñez", 1, FormatPDF))
	assert.Equal(t, "lista_precios_publico_anonimo_pag1.csv",
		Filename(model.RoleAnonymous, "", 0, FormatCSV))
}
