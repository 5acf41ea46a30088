package ocr

import (
	"strconv"
	"strings"

	"docsense/internal/domain"
)

// Tesseract TSV column offsets.
const (
	tsvColLeft   = 6
	tsvColTop    = 7
	tsvColWidth  = 8
	tsvColHeight = 9
	tsvColConf   = 10
	tsvColText   = 11
	tsvNumCols   = 12
)

// parseTSV converts tesseract TSV output into tokens for one page. Rows with
// empty text are skipped; confidences are normalized from tesseract's 0..100
// scale (negative confidence marks layout rows and clamps to 0).
func parseTSV(tsv string, page int) []domain.Token {
	var tokens []domain.Token
	lines := strings.Split(tsv, "\n")
	for i, line := range lines {
		if i == 0 { // header row
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) < tsvNumCols {
			continue
		}
		text := strings.TrimSpace(cols[tsvColText])
		if text == "" {
			continue
		}

		conf, err := strconv.ParseFloat(cols[tsvColConf], 64)
		if err != nil {
			conf = 0
		}
		if conf < 0 {
			conf = 0
		}

		left := atoiOrZero(cols[tsvColLeft])
		top := atoiOrZero(cols[tsvColTop])
		width := atoiOrZero(cols[tsvColWidth])
		height := atoiOrZero(cols[tsvColHeight])

		tokens = append(tokens, domain.Token{
			Text:       text,
			Confidence: conf / 100.0,
			BBox: domain.BBox{
				X1: float64(left),
				Y1: float64(top),
				X2: float64(left + width),
				Y2: float64(top + height),
			},
			Page: page,
		})
	}
	return tokens
}

func atoiOrZero(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}
