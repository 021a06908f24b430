// Package csvfile parses uploaded CSV spreadsheets into an ordered header list
// and index-aligned rows.
//
// Rows wider or narrower than the header are truncated or padded to the header
// width and reported as warnings; fully blank rows are dropped. Everything
// else that makes a file unusable (empty input, a blank or duplicated header,
// no data rows, broken quoting, a non-CSV content type) is an InvalidFile error.
package csvfile

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/agentstation/collectionmap/pkg/catalog"
	"github.com/agentstation/collectionmap/pkg/constants"
	pkgerrors "github.com/agentstation/collectionmap/pkg/errors"
)

// Warning is a non-fatal problem found while parsing. Row is the 1-based
// index of the data row in File.Rows.
type Warning struct {
	Row     int    `json:"row" yaml:"row" bson:"row"`
	Message string `json:"message" yaml:"message" bson:"message"`
}

// File is a parsed upload. Every row has exactly len(Headers) cells.
type File struct {
	Name      string
	Headers   []string
	Rows      [][]string
	Warnings  []Warning
	Encoding  string
	Delimiter rune
}

// Options control parsing.
type Options struct {
	// MaxBytes rejects larger inputs. Zero means constants.DefaultMaxUploadBytes.
	MaxBytes int64
	// Delimiter forces the field separator. Zero sniffs it from the header line.
	Delimiter rune
}

var csvMediaTypes = map[string]bool{
	"text/csv":                    true,
	"text/x-csv":                  true,
	"application/csv":             true,
	"application/x-csv":           true,
	"text/comma-separated-values": true,
	"text/tab-separated-values":   true,
	"text/plain":                  true,
	"application/vnd.ms-excel":    true, // what Windows browsers send for .csv
}

// AcceptsContentType reports whether a declared content type can carry CSV.
// An empty or generic binary type is accepted when the file name ends in .csv
// or .tsv.
func AcceptsContentType(contentType, fileName string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	csvName := ext == ".csv" || ext == ".tsv"
	if strings.TrimSpace(contentType) == "" {
		return csvName
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	if mediaType == "application/octet-stream" {
		return csvName
	}
	return csvMediaTypes[mediaType]
}

// Parse reads r in full and parses it as CSV.
func Parse(r io.Reader, name, contentType string, opts Options) (*File, error) {
	if !AcceptsContentType(contentType, name) {
		return nil, invalid(name, 0, fmt.Sprintf("unsupported content type %q", contentType), nil)
	}

	limit := opts.MaxBytes
	if limit <= 0 {
		limit = constants.DefaultMaxUploadBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, invalid(name, 0, "failed to read upload", err)
	}
	if int64(len(data)) > limit {
		return nil, invalid(name, 0, fmt.Sprintf("file exceeds %d bytes", limit), nil)
	}
	return ParseBytes(data, name, opts)
}

// ParseBytes parses data, which must already be within size limits.
func ParseBytes(data []byte, name string, opts Options) (*File, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, invalid(name, 0, "file is empty", nil)
	}

	decoded, encoding, err := decode(data)
	if err != nil {
		return nil, invalid(name, 0, "failed to decode "+encoding+" text", err)
	}

	delimiter := opts.Delimiter
	if delimiter == 0 {
		delimiter = sniffDelimiter(decoded)
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1 // width is reconciled below

	headers, err := readHeader(reader, name)
	if err != nil {
		return nil, err
	}

	file := &File{
		Name:      name,
		Headers:   headers,
		Encoding:  encoding,
		Delimiter: delimiter,
	}
	width := len(headers)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, syntaxError(name, err)
		}
		if isBlank(record) {
			continue
		}

		rowNum := len(file.Rows) + 1
		switch {
		case len(record) < width:
			file.Warnings = append(file.Warnings, Warning{
				Row:     rowNum,
				Message: fmt.Sprintf("row has %d columns, expected %d; padded with empty values", len(record), width),
			})
			padded := make([]string, width)
			copy(padded, record)
			record = padded
		case len(record) > width:
			file.Warnings = append(file.Warnings, Warning{
				Row:     rowNum,
				Message: fmt.Sprintf("row has %d columns, expected %d; extra columns dropped", len(record), width),
			})
			record = record[:width]
		}
		file.Rows = append(file.Rows, record)
	}

	if len(file.Rows) == 0 {
		return nil, invalid(name, 0, "file contains no data rows", nil)
	}
	return file, nil
}

func readHeader(reader *csv.Reader, name string) ([]string, error) {
	record, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, invalid(name, 0, "header row is missing", nil)
	}
	if err != nil {
		return nil, syntaxError(name, err)
	}
	if isBlank(record) {
		line, _ := reader.FieldPos(0)
		return nil, invalid(name, line, "header row is empty", nil)
	}

	headers := make([]string, len(record))
	seen := make(map[string]int, len(record))
	for i, h := range record {
		headers[i] = strings.TrimSpace(h)
		if headers[i] == "" {
			continue
		}
		key := catalog.NormalizeName(headers[i])
		if prev, dup := seen[key]; dup {
			line, _ := reader.FieldPos(i)
			return nil, invalid(name, line, fmt.Sprintf("duplicate column %q (columns %d and %d)", headers[i], prev, i), nil)
		}
		seen[key] = i
	}
	return headers, nil
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func syntaxError(name string, err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return invalid(name, perr.Line, perr.Err.Error(), err)
	}
	return invalid(name, 0, err.Error(), err)
}

func invalid(name string, line int, message string, err error) error {
	pe := pkgerrors.NewParseError("csv", name, message, err)
	pe.Line = line
	return pe
}
