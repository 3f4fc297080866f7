package sentences

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/joshweier/nlisten/internal/services"
)

const stageIngest = "ingest"

// Result is the outcome of reading a sentence file.
type Result struct {
	Records []Record
	// DataRows counts every row after the header.
	DataRows int
	// Skipped counts rows with fewer than MinColumns fields.
	Skipped int
	// SkippedLines holds the 1-based file line of each skipped row.
	SkippedLines []int
}

// Ingest opens path and parses it. Failures are all-or-nothing.
func Ingest(path string) (Result, error) {
	file, err := os.Open(path)
	if err != nil {
		marker := services.ErrValidation
		if errors.Is(err, fs.ErrNotExist) {
			marker = services.ErrConfiguration
		}
		return Result{}, services.Wrap(marker, stageIngest, "open", path, err)
	}
	defer file.Close()
	return Parse(file)
}

// Parse reads CSV from r. A leading UTF-8 byte order mark is ignored. Any
// CSV syntax error or invalid UTF-8 fails the whole parse.
func Parse(r io.Reader) (Result, error) {
	decoder := transform.Chain(encoding.UTF8Validator, unicode.BOMOverride(transform.Nop))
	reader := csv.NewReader(transform.NewReader(r, decoder))
	reader.FieldsPerRecord = -1

	var result Result
	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return result, nil
		}
		return Result{}, parseError("header", err)
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, parseError(fmt.Sprintf("row %d", result.DataRows+1), err)
		}
		result.DataRows++
		line, _ := reader.FieldPos(0)
		if len(row) < MinColumns {
			result.Skipped++
			result.SkippedLines = append(result.SkippedLines, line)
			continue
		}
		index := len(result.Records) + 1
		result.Records = append(result.Records, Record{
			Sentence:       row[0],
			Translation:    row[1],
			Contexts:       SplitContexts(row[2]),
			Audio:          Stem(index) + RawExt,
			Level:          row[3],
			Attribution:    row[4],
			AttributionURL: row[5],
			Index:          index,
		})
	}
	return result, nil
}

func parseError(where string, err error) error {
	if errors.Is(err, encoding.ErrInvalidUTF8) {
		return services.Wrap(services.ErrValidation, stageIngest, "decode", where+": input is not valid UTF-8", err)
	}
	return services.Wrap(services.ErrValidation, stageIngest, "parse", where, err)
}
