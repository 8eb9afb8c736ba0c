// Package ad selects the active VIP advertisement from a published CSV sheet.
package ad

import (
	"errors"
	"strings"
	"unicode"
)

// VipAd is the banner currently shown to users.
type VipAd struct {
	ImageURL string `json:"imageUrl"`
	CTALink  string `json:"ctaLink"`
}

// StatusActive is the status value (case-insensitive) of a live ad row.
const StatusActive = "ACTIVE"

var (
	// ErrHTMLPage is returned when the feed answered with a web page, which
	// happens when the sheet is private and a login page is served instead.
	ErrHTMLPage = errors.New("ad feed returned an html page")
	// ErrNoRows is returned when the sheet has no data rows.
	ErrNoRows = errors.New("ad feed has no data rows")
	// ErrMissingColumns is returned when the status or image header is absent.
	ErrMissingColumns = errors.New("ad feed is missing status or image column")
)

// ParseRow splits a CSV line on commas outside double quotes. A doubled quote
// inside a quoted field is an escaped quote. Each field is trimmed and then
// loses one leading and one trailing quote if present.
func ParseRow(row string) []string {
	var (
		fields  []string
		cur     strings.Builder
		inQuote bool
	)
	for i := 0; i < len(row); i++ {
		c := row[i]
		switch {
		case c == '"':
			if inQuote && i+1 < len(row) && row[i+1] == '"' {
				cur.WriteByte('"')
				i++
			} else {
				inQuote = !inQuote
			}
		case c == ',' && !inQuote:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	fields = append(fields, cur.String())

	for i, f := range fields {
		f = strings.TrimFunc(f, isBlank)
		f = strings.TrimPrefix(f, `"`)
		f = strings.TrimSuffix(f, `"`)
		fields[i] = f
	}
	return fields
}

// isBlank also treats the byte order mark some spreadsheet exports start
// with as padding.
func isBlank(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// IsHTML reports whether a feed body is an HTML document.
func IsHTML(body string) bool {
	return strings.HasPrefix(strings.TrimSpace(body), "<!DOCTYPE html>") || strings.Contains(body, "<html")
}

// SelectActive returns the last ACTIVE row with an image. It returns nil, nil
// when the sheet is well formed but has no live ad.
func SelectActive(body string) (*VipAd, error) {
	if IsHTML(body) {
		return nil, ErrHTMLPage
	}

	rows := splitRows(body)
	if len(rows) < 2 {
		return nil, ErrNoRows
	}

	statusIdx, imageIdx, linkIdx := -1, -1, -1
	for i, h := range ParseRow(rows[0]) {
		switch strings.ToLower(h) {
		case "status":
			if statusIdx < 0 {
				statusIdx = i
			}
		case "image":
			if imageIdx < 0 {
				imageIdx = i
			}
		case "ctalink", "cta link", "link":
			if linkIdx < 0 {
				linkIdx = i
			}
		}
	}
	if statusIdx < 0 || imageIdx < 0 {
		return nil, ErrMissingColumns
	}

	for i := len(rows) - 1; i >= 1; i-- {
		cols := ParseRow(rows[i])
		if !strings.EqualFold(column(cols, statusIdx), StatusActive) {
			continue
		}
		img := column(cols, imageIdx)
		if img == "" {
			continue
		}
		return &VipAd{ImageURL: img, CTALink: column(cols, linkIdx)}, nil
	}
	return nil, nil
}

func splitRows(body string) []string {
	lines := strings.Split(body, "\n")
	rows := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSuffix(l, "\r")
		if strings.TrimSpace(l) != "" {
			rows = append(rows, l)
		}
	}
	return rows
}

func column(cols []string, idx int) string {
	if idx < 0 || idx >= len(cols) {
		return ""
	}
	return cols[idx]
}
