package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTSV = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
	"5\t1\t1\t1\t1\t1\t10\t20\t100\t20\t95.5\tInvoice\n" +
	"5\t1\t1\t1\t1\t2\t120\t20\t80\t20\t87.2\tNumber\n" +
	"4\t1\t1\t1\t1\t0\t10\t20\t190\t20\t-1\t\n" +
	"5\t1\t1\t1\t2\t1\t10\t50\t60\t20\t-1\tfaint\n" +
	"short\trow\n"

func TestParseTSV_SkipsHeaderAndLayoutRows(t *testing.T) {
	tokens := parseTSV(sampleTSV, 1)

	require.Len(t, tokens, 3)
	assert.Equal(t, "Invoice", tokens[0].Text)
	assert.Equal(t, "Number", tokens[1].Text)
	assert.Equal(t, "faint", tokens[2].Text)
}

func TestParseTSV_NormalizesConfidence(t *testing.T) {
	tokens := parseTSV(sampleTSV, 1)

	require.Len(t, tokens, 3)
	assert.InDelta(t, 0.955, tokens[0].Confidence, 1e-9)
	assert.InDelta(t, 0.872, tokens[1].Confidence, 1e-9)
	// Negative confidence clamps to zero.
	assert.Equal(t, 0.0, tokens[2].Confidence)
}

func TestParseTSV_BBoxFromLeftTopWidthHeight(t *testing.T) {
	tokens := parseTSV(sampleTSV, 3)

	require.NotEmpty(t, tokens)
	tok := tokens[0]
	assert.Equal(t, 3, tok.Page)
	assert.Equal(t, 10.0, tok.BBox.X1)
	assert.Equal(t, 20.0, tok.BBox.Y1)
	assert.Equal(t, 110.0, tok.BBox.X2)
	assert.Equal(t, 40.0, tok.BBox.Y2)
}

func TestParseTSV_EmptyInput(t *testing.T) {
	assert.Empty(t, parseTSV("", 1))
	assert.Empty(t, parseTSV("level\tpage_num\n", 1))
}
