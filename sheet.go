package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/xuri/excelize/v2"
)

const USER_AGENT = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

const (
	formatCSV  = "csv"
	formatXLSX = "xlsx"
	formatHTML = "pubhtml"
)

// normalizeSheetURL rewrites a Google Sheets /edit link into its CSV export
// form and tells which loader the link needs. Accepted shapes after rewriting:
// .../export?format=csv, .../export?format=xlsx and a published .../pubhtml
// page.
func normalizeSheetURL(raw string) (string, string, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", "", fmt.Errorf("%w: %q", ErrBadSheetURL, raw)
	}

	path := strings.TrimRight(u.Path, "/")
	if strings.HasSuffix(path, "/pubhtml") {
		return u.String(), formatHTML, nil
	}
	if strings.HasSuffix(path, "/edit") {
		u.Path = strings.TrimSuffix(path, "/edit") + "/export"
		query := u.Query()
		query.Set("format", formatCSV)
		u.RawQuery = query.Encode()
	}

	if !strings.HasSuffix(strings.TrimRight(u.Path, "/"), "/export") {
		return "", "", fmt.Errorf("%w: %q should end with /edit, /export or /pubhtml", ErrBadSheetURL, raw)
	}
	format := u.Query().Get("format")
	if format != formatCSV && format != formatXLSX {
		return "", "", fmt.Errorf("%w: %q should have format=csv or format=xlsx", ErrBadSheetURL, raw)
	}

	return u.String(), format, nil
}

func fetchSheet(sheetURL string) ([]byte, error) {
	client := &http.Client{Timeout: 30 * time.Second}

	req, err := http.NewRequest("GET", sheetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchSchedule, err)
	}
	req.Header.Set("User-Agent", USER_AGENT)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchSchedule, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d from %s", ErrFetchSchedule, resp.StatusCode, sheetURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchSchedule, err)
	}
	return body, nil
}

func csvMatrix(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSheet, err)
	}
	return records, nil
}

func xlsxMatrix(data []byte) ([][]string, error) {
	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSheet, err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrMalformedSheet)
	}
	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSheet, err)
	}
	return rows, nil
}

// htmlMatrix reads the first table of a published ("pubhtml") sheet page.
// <br> separators inside cells become newlines so multi-line cells survive,
// and <th> cells are skipped: the published page uses them for row numbers.
func htmlMatrix(data []byte) ([][]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSheet, err)
	}

	doc.Find("br").ReplaceWithHtml("&#10;")

	var matrix [][]string
	doc.Find("table").First().Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		var row []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			row = append(row, td.Text())
		})
		matrix = append(matrix, row)
	})
	if len(matrix) == 0 {
		return nil, fmt.Errorf("%w: no table found in published page", ErrMalformedSheet)
	}
	return matrix, nil
}

func transpose(matrix [][]string) [][]string {
	width := 0
	for _, row := range matrix {
		if len(row) > width {
			width = len(row)
		}
	}
	result := make([][]string, width)
	for j := range result {
		result[j] = make([]string, len(matrix))
	}
	for i, row := range matrix {
		for j, cell := range row {
			result[j][i] = cell
		}
	}
	return result
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func titleCase(word string) string {
	first, size := utf8.DecodeRuneInString(word)
	if first == utf8.RuneError {
		return word
	}
	return string(unicode.ToUpper(first)) + strings.ToLower(word[size:])
}

func isEmptyMarker(cell string) bool {
	for _, marker := range emptyCells {
		if cell == marker {
			return true
		}
	}
	return false
}

// matrixToGrid runs the shared loading pipeline: skip the banner row,
// optionally transpose (the teachers workbook lists teachers as rows), read
// the header, drop unnamed columns, forward-fill merged cells, normalize day
// labels and split the "08:30_ч" time cells into start label and parity.
func matrixToGrid(matrix [][]string, transposed, trimLast bool) (*Grid, error) {
	if len(matrix) < 1 {
		return nil, fmt.Errorf("%w: sheet is empty", ErrMalformedSheet)
	}
	matrix = matrix[1:]
	if transposed {
		matrix = transpose(matrix)
	}
	if len(matrix) < 2 {
		return nil, fmt.Errorf("%w: sheet has no data rows", ErrMalformedSheet)
	}

	header := matrix[0]
	var columns []string
	columnIndex := map[int]string{}
	for i := 2; i < len(header); i++ {
		name := strings.TrimSpace(header[i])
		if name == "" {
			continue
		}
		columns = append(columns, name)
		columnIndex[i] = name
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: no entity columns in header", ErrMalformedSheet)
	}

	raw := matrix[1:]
	kept := [][]string{}
	for _, row := range raw {
		if !blankRow(row) {
			kept = append(kept, row)
		}
	}
	if trimLast && len(kept) > 0 {
		kept = kept[:len(kept)-1]
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("%w: sheet has no data rows", ErrMalformedSheet)
	}

	// Merged cells come through as blanks in every row but the first one they
	// cover; forward-fill restores them, marker cells are blanked afterwards.
	filled := make([][]string, len(kept))
	for i, row := range kept {
		filled[i] = make([]string, len(header))
		for j := range filled[i] {
			if j < len(row) && strings.TrimSpace(row[j]) != "" {
				filled[i][j] = row[j]
			} else if i > 0 {
				filled[i][j] = filled[i-1][j]
			}
		}
	}

	grid := &Grid{Columns: columns}
	lastDay := ""
	for _, row := range filled {
		rawDay := strings.ReplaceAll(row[0], "\n", "")
		rawDay = strings.TrimSpace(rawDay)
		if rawDay == "" {
			rawDay = lastDay
		}
		lastDay = rawDay

		day, ok := rawDayToDay[titleCase(rawDay)]
		if !ok {
			return nil, fmt.Errorf("%w: unknown day label %q", ErrMalformedSheet, rawDay)
		}

		timeCell := strings.TrimSpace(row[1])
		if timeCell == "" {
			return nil, fmt.Errorf("%w: row for %s has no time cell", ErrMalformedSheet, day)
		}
		start, parity, _ := strings.Cut(timeCell, "_")

		cells := map[string]string{}
		for j, name := range columnIndex {
			value := strings.TrimSpace(row[j])
			if value == "" || isEmptyMarker(value) {
				continue
			}
			cells[name] = value
		}

		grid.Rows = append(grid.Rows, GridRow{
			Day:   day,
			Start: strings.TrimSpace(start),
			Even:  strings.TrimSpace(parity) == evenWeekToken,
			Cells: cells,
		})
	}

	return grid, nil
}

// loadSheet fetches a sheet URL and materializes it as a grid. The teachers
// workbook is transposed; the students one carries a trailing footer row that
// the loader drops.
func loadSheet(rawURL string, teachers bool) (*Grid, error) {
	normalized, format, err := normalizeSheetURL(rawURL)
	if err != nil {
		return nil, err
	}

	data, err := fetchSheet(normalized)
	if err != nil {
		return nil, err
	}

	var matrix [][]string
	switch format {
	case formatXLSX:
		matrix, err = xlsxMatrix(data)
	case formatHTML:
		matrix, err = htmlMatrix(data)
	default:
		matrix, err = csvMatrix(data)
	}
	if err != nil {
		return nil, err
	}

	return matrixToGrid(matrix, teachers, !teachers)
}
