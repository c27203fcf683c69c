// Package extract turns an HTML spreadsheet export into catalog sections.
//
// A spreadsheet saved as a web page is a sequence of <tr> rows. Product rows
// carry a numeric SKU in their second cell and a name in their third. A row
// whose text contains "Total:" closes the current category: everything
// buffered since the previous closing row becomes one [Section], named after
// the closing row's text with the marker removed.
//
// # Parsing
//
// The extractor never parses markup itself. It walks the node tree returned
// by a [DocumentParser]; [HTMLParser] is the default and is built on
// golang.org/x/net/html. Rows and cells are visited with goquery selections
// over that tree.
//
// # Rows that are dropped
//
// Rows with fewer than three cells, an empty SKU, or a SKU that does not read
// as a number are skipped silently. Product rows after the last "Total:" row
// are discarded when the document ends. Both are counted in [Stats] so callers
// can report them, but neither is an error.
//
// # Errors
//
// The only error is [*ParseError], returned when the input is not an HTML
// document at all (binary uploads, unreadable input).
package extract
