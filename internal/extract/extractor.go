package extract

import (
	"errors"
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// numericLiteral accepts what a locale-free string-to-number conversion
// accepts: signed decimals with optional fraction and exponent, Infinity, and
// unsigned hex, octal and binary integers. Separators, currency symbols and
// units are not allowed.
var numericLiteral = regexp.MustCompile(
	`^(?:[+-]?(?:Infinity|(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)|0[xX][0-9a-fA-F]+|0[oO][0-7]+|0[bB][01]+)$`,
)

// Extractor reads sections out of HTML spreadsheet exports.
// It holds no per-call state and is safe for concurrent use.
type Extractor struct {
	parser DocumentParser
}

// New returns an Extractor using parser, or HTMLParser when parser is nil.
func New(parser DocumentParser) *Extractor {
	if parser == nil {
		parser = HTMLParser{}
	}
	return &Extractor{parser: parser}
}

// defaultExtractor backs the package-level Extract.
var defaultExtractor = New(nil)

// Extract parses htmlText with the default parser and returns its sections.
func Extract(htmlText string) ([]Section, error) {
	return defaultExtractor.Extract(strings.NewReader(htmlText))
}

// Extract returns the sections found in r.
func (e *Extractor) Extract(r io.Reader) ([]Section, error) {
	res, err := e.Run(r)
	if err != nil {
		return nil, err
	}
	return res.Sections, nil
}

// Run parses r and returns its sections together with pass statistics.
func (e *Extractor) Run(r io.Reader) (*Result, error) {
	root, err := e.parser.Parse(r)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			return nil, err
		}
		return nil, &ParseError{Reason: "parse document", Err: err}
	}

	res := collect(goquery.NewDocumentFromNode(root))
	return &res, nil
}

// collect makes one pass over every <tr> in document order.
func collect(doc *goquery.Document) Result {
	res := Result{
		Sections: make([]Section, 0),
		Stats:    Stats{Skipped: make(map[SkipReason]int)},
	}
	products := make([]ProductRow, 0)

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		res.Stats.Rows++

		text := row.Text()
		if strings.Contains(text, TotalMarker) {
			res.Sections = append(res.Sections, Section{
				CategoryName: trim(strings.Replace(text, TotalMarker, "", 1)),
				Products:     products,
			})
			res.Stats.Terminators++
			res.Stats.Products += len(products)
			products = make([]ProductRow, 0)
			return
		}

		product, reason := readProduct(row.Find("td"))
		if reason != "" {
			res.Stats.Skipped[reason]++
			return
		}
		products = append(products, product)
	})

	// Rows after the last terminator never reach a section.
	res.Stats.Dangling = len(products)
	return res
}

// readProduct builds a ProductRow from a row's cells, or returns the reason
// the row does not qualify.
func readProduct(cells *goquery.Selection) (ProductRow, SkipReason) {
	if cells.Length() < MinProductCells {
		return ProductRow{}, SkipTooFewCells
	}

	sku, ok := cellText(cells, 1)
	if !ok || sku == "" {
		return ProductRow{}, SkipEmptySKU
	}
	if !IsNumeric(sku) {
		return ProductRow{}, SkipNonNumericSKU
	}

	name, _ := cellText(cells, 2)

	return ProductRow{
		SKU:  sku,
		Name: name,
		Columns: cells.Map(func(_ int, cell *goquery.Selection) string {
			return trim(cell.Text())
		}),
	}, ""
}

// cellText returns the trimmed text of cell i, or false when the row has no
// such cell.
func cellText(cells *goquery.Selection, i int) (string, bool) {
	if i < 0 || i >= cells.Length() {
		return "", false
	}
	return trim(cells.Eq(i).Text()), true
}

// IsNumeric reports whether s, as given, reads as a number.
func IsNumeric(s string) bool {
	return numericLiteral.MatchString(s)
}

// trim strips leading and trailing white space, including NBSP and the BOM
// but not NEL.
func trim(s string) string {
	return strings.TrimFunc(s, isSpace)
}

func isSpace(r rune) bool {
	if r == '\uFEFF' {
		return true
	}
	return r != '\u0085' && unicode.IsSpace(r)
}
