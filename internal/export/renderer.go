package export

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/padelhub/storefront/internal/catalog"
	"github.com/padelhub/storefront/internal/pricing"
	"github.com/padelhub/storefront/pkg/model"
)

// Meta describes the page being exported.
type Meta struct {
	Title       string
	GeneratedAt time.Time
	PageLabel   string
	Role        model.Role
	Identity    string
	Page        int
}

// Document is a rendered export ready to be served.
type Document struct {
	Filename    string
	MIMEType    string
	Disposition string
	Body        []byte
}

// ContentDisposition is the header value for serving the document.
func (d *Document) ContentDisposition() string {
	return fmt.Sprintf("%s; filename=%q", d.Disposition, d.Filename)
}

// Renderer produces export documents from resolved catalog rows.
type Renderer struct {
	formatter *pricing.Formatter
	printer   PDFPrinter
	log       *zap.Logger
}

// NewRenderer builds a Renderer. A nil printer disables the pdf format.
func NewRenderer(formatter *pricing.Formatter, printer PDFPrinter, log *zap.Logger) *Renderer {
	if formatter == nil {
		formatter = pricing.DefaultFormatter()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{formatter: formatter, printer: printer, log: log}
}

// Render encodes rows in the requested format. Every format carries the same
// columns and values; empty rows produce a header-only document.
func (r *Renderer) Render(ctx context.Context, format Format, rows []catalog.Row, meta Meta) (*Document, error) {
	info, ok := formats[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if meta.GeneratedAt.IsZero() {
		meta.GeneratedAt = time.Now()
	}

	records := make([]record, 0, len(rows))
	for _, row := range rows {
		records = append(records, toRecord(row, r.formatter))
	}

	var (
		body []byte
		err  error
	)
	switch format {
	case FormatSpreadsheet, FormatDocument:
		body, err = renderHTML(format, records, meta, false)
	case FormatPrintable:
		body, err = renderHTML(format, records, meta, true)
	case FormatCSV:
		body, err = renderCSV(records)
	case FormatXLSX:
		body, err = renderXLSX(records)
	case FormatPDF:
		if isNilPrinter(r.printer) {
			return nil, fmt.Errorf("%w: %s", ErrFormatUnavailable, format)
		}
		var html []byte
		if html, err = renderHTML(FormatPrintable, records, meta, false); err == nil {
			body, err = r.printer.PrintPDF(ctx, html)
		}
	}
	if err != nil {
		r.log.Error("export.render_failed", zap.String("format", string(format)), zap.Error(err))
		return nil, fmt.Errorf("render %s: %w", format, err)
	}

	r.log.Debug("export.rendered",
		zap.String("format", string(format)),
		zap.Int("rows", len(rows)),
		zap.Int("bytes", len(body)),
	)

	return &Document{
		Filename:    Filename(meta.Role, meta.Identity, meta.Page, format),
		MIMEType:    info.mime,
		Disposition: info.disposition,
		Body:        body,
	}, nil
}

func isNilPrinter(p PDFPrinter) bool {
	if p == nil {
		return true
	}
	c, ok := p.(*ChromePrinter)
	return ok && c == nil
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// Filename builds lista_precios_<role>_<identity>_pag<page>.<ext>.
func Filename(role model.Role, identity string, page int, format Format) string {
	r := string(role)
	if r == "" {
		r = "publico"
	}
	id := slug(identity)
	if id == "" {
		id = "anonimo"
	}
	if page < 1 {
		page = 1
	}
	return fmt.Sprintf("lista_precios_%s_%s_pag%d.%s", r, id, page, format.Extension())
}

func slug(s string) string {
	// Fold accented letters onto their base letter. A chain keeps state, so
	// each call builds its own.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}
	s = slugInvalid.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "_")
	return strings.Trim(s, "_")
}
