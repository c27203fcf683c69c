package extract

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
)

// DocumentParser turns raw markup into a node tree the extractor can walk.
// Implementations must return a *ParseError when the input is not HTML.
type DocumentParser interface {
	Parse(r io.Reader) (*html.Node, error)
}

// utf8BOM is stripped before charset detection so it never reaches the tree.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// rowTag finds <tr> start tags in raw markup.
var rowTag = regexp.MustCompile(`(?i)<tr[\s/>]`)

// HTMLParser is the default DocumentParser, built on golang.org/x/net/html.
//
// Input handling:
//   - binary content (anything not sniffed as text, or containing NUL bytes
//     outside UTF-16) is rejected with a *ParseError
//   - the character set is taken from a BOM or <meta charset>, falling back to
//     UTF-8 and then windows-1252 for legacy exports
//   - scripting is disabled, so <noscript> content is parsed as markup
//   - when a full-document parse finds no rows but the markup has <tr> tags
//     (a bare fragment with no <table>), the input is parsed again as the
//     body of a table so those rows are kept
type HTMLParser struct{}

// Parse implements DocumentParser.
func (HTMLParser) Parse(r io.Reader) (*html.Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Reason: "read input", Err: err}
	}

	text, err := decode(data)
	if err != nil {
		return nil, err
	}

	doc, err := html.ParseWithOptions(bytes.NewReader(text), html.ParseOptionEnableScripting(false))
	if err != nil {
		return nil, &ParseError{Reason: "parse document", Err: err}
	}

	if hasRows(doc) || !rowTag.Match(text) {
		return doc, nil
	}

	return parseTableBody(text)
}

// decode validates that data is text and converts it to UTF-8.
func decode(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}

	contentType := http.DetectContentType(data)
	mediaType, params, _ := mime.ParseMediaType(contentType)
	if !strings.HasPrefix(mediaType, "text/") {
		return nil, &ParseError{Reason: fmt.Sprintf("binary content (%s)", mediaType)}
	}
	if !strings.HasPrefix(params["charset"], "utf-16") && bytes.IndexByte(data, 0) >= 0 {
		return nil, &ParseError{Reason: "binary content (NUL byte)"}
	}

	data = bytes.TrimPrefix(data, utf8BOM)

	enc, name, _ := charset.DetermineEncoding(data, "text/html")
	if enc == nil {
		return data, nil
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, &ParseError{Reason: "decode " + name, Err: err}
	}
	return out, nil
}

// parseTableBody parses text as the contents of a <tbody> and gathers the
// resulting nodes under a fresh document node.
func parseTableBody(text []byte) (*html.Node, error) {
	tbody := &html.Node{Type: html.ElementNode, Data: "tbody", DataAtom: atom.Tbody}

	nodes, err := html.ParseFragmentWithOptions(bytes.NewReader(text), tbody, html.ParseOptionEnableScripting(false))
	if err != nil {
		return nil, &ParseError{Reason: "parse fragment", Err: err}
	}

	root := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		root.AppendChild(n)
	}
	return root, nil
}

// hasRows reports whether the tree contains at least one <tr> element.
func hasRows(n *html.Node) bool {
	if n.Type == html.ElementNode && n.DataAtom == atom.Tr {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if hasRows(c) {
			return true
		}
	}
	return false
}
