package collector

import (
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// htmlTable is a parsed table expanded into a rectangular-ish grid, with
// rowspan/colspan cells repeated in every slot they cover.
type htmlTable struct {
	Grid   [][]string
	Header []bool // Header[i] is true when row i holds only <th> cells
}

type rawCell struct {
	text    string
	header  bool
	rowspan int
	colspan int
}

// parseTables returns every <table> of the document in order.
func parseTables(r io.Reader) ([]htmlTable, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	var tables []htmlTable
	walk(doc, func(n *html.Node) bool {
		if n.DataAtom != atom.Table {
			return true
		}
		tables = append(tables, buildTable(collectRows(n)))
		return false
	})
	return tables, nil
}

// parseRows returns every <tr> of the document as its cell texts,
// ignoring table boundaries and spans.
func parseRows(r io.Reader) ([][]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	var rows [][]string
	for _, row := range collectRows(doc) {
		texts := make([]string, 0, len(row))
		for _, c := range row {
			if c.header {
				continue
			}
			texts = append(texts, c.text)
		}
		rows = append(rows, texts)
	}
	return rows, nil
}

func collectRows(root *html.Node) [][]rawCell {
	var rows [][]rawCell
	walk(root, func(n *html.Node) bool {
		if n.DataAtom != atom.Tr {
			return true
		}
		var row []rawCell
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode || (c.DataAtom != atom.Td && c.DataAtom != atom.Th) {
				continue
			}
			row = append(row, rawCell{
				text:    nodeText(c),
				header:  c.DataAtom == atom.Th,
				rowspan: spanAttr(c, "rowspan"),
				colspan: spanAttr(c, "colspan"),
			})
		}
		rows = append(rows, row)
		return false
	})
	return rows
}

func buildTable(rows [][]rawCell) htmlTable {
	t := htmlTable{Grid: make([][]string, len(rows)), Header: make([]bool, len(rows))}
	// pending[col] holds a cell still spanning down into later rows.
	type carry struct {
		text string
		left int
	}
	pending := map[int]*carry{}
	for r, row := range rows {
		var line []string
		allHeader := len(row) > 0
		col := 0
		place := func() {
			for {
				c, ok := pending[col]
				if !ok {
					return
				}
				line = append(line, c.text)
				c.left--
				if c.left == 0 {
					delete(pending, col)
				}
				col++
			}
		}
		for _, cell := range row {
			if !cell.header {
				allHeader = false
			}
			place()
			for k := 0; k < cell.colspan; k++ {
				line = append(line, cell.text)
				if cell.rowspan > 1 {
					pending[col] = &carry{text: cell.text, left: cell.rowspan - 1}
				}
				col++
			}
		}
		place()
		t.Grid[r] = line
		t.Header[r] = allHeader
	}
	return t
}

// Columns joins the header rows into one name per column. Repeated text
// from a rowspan is kept once.
func (t htmlTable) Columns() []string {
	var headerRows [][]string
	for i, h := range t.Header {
		if h {
			headerRows = append(headerRows, t.Grid[i])
		}
	}
	if len(headerRows) == 0 && len(t.Grid) > 0 {
		headerRows = t.Grid[:1]
	}
	width := 0
	for _, r := range headerRows {
		if len(r) > width {
			width = len(r)
		}
	}
	cols := make([]string, width)
	for c := 0; c < width; c++ {
		var parts []string
		for _, r := range headerRows {
			if c >= len(r) || r[c] == "" {
				continue
			}
			if len(parts) > 0 && parts[len(parts)-1] == r[c] {
				continue
			}
			parts = append(parts, r[c])
		}
		cols[c] = strings.Join(parts, " ")
	}
	return cols
}

// DataRows returns the grid rows that are not header rows.
func (t htmlTable) DataRows() [][]string {
	hasHeader := false
	for _, h := range t.Header {
		hasHeader = hasHeader || h
	}
	var out [][]string
	for i, row := range t.Grid {
		if t.Header[i] || (!hasHeader && i == 0) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func walk(n *html.Node, visit func(*html.Node) bool) {
	if n.Type == html.ElementNode && !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var rec func(*html.Node)
	rec = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			rec(c)
		}
	}
	rec(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func spanAttr(n *html.Node, name string) int {
	for _, a := range n.Attr {
		if a.Key != name {
			continue
		}
		if v, err := strconv.Atoi(strings.TrimSpace(a.Val)); err == nil && v > 0 {
			return v
		}
	}
	return 1
}
