package confidence_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"docsense/internal/confidence"
	"docsense/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestFuse_WeightedScore(t *testing.T) {
	tokenConfs := []float64{0.8, 0.6}
	runValues := []*string{strPtr("Acme Corp"), strPtr("  acme corp "), nil}

	score, breakdown := confidence.Fuse(tokenConfs, runValues, true)

	// 0.45*0.7 + 0.45*(2/3) + 0.10*1.0
	assert.InDelta(t, 0.715, score, 1e-9)
	assert.InDelta(t, 0.7, breakdown.OCRScore, 1e-9)
	assert.InDelta(t, 0.67, breakdown.LLMAgreement, 1e-9)
	assert.InDelta(t, 1.0, breakdown.ValidatorScore, 1e-9)
	assert.Equal(t, "0.45*OCR + 0.45*LLM agreement + 0.10*Validator", breakdown.Formula)
}

func TestFuse_ValidatorFailDropsContribution(t *testing.T) {
	scoreOK, _ := confidence.Fuse([]float64{1.0}, []*string{strPtr("x")}, true)
	scoreFail, _ := confidence.Fuse([]float64{1.0}, []*string{strPtr("x")}, false)

	assert.InDelta(t, 0.10, scoreOK-scoreFail, 1e-9)
}

func TestFuse_NoTokensNoAgreement(t *testing.T) {
	score, breakdown := confidence.Fuse(nil, []*string{nil, nil}, false)

	assert.Zero(t, score)
	assert.Zero(t, breakdown.OCRScore)
	assert.Zero(t, breakdown.LLMAgreement)
}

func TestFuse_AgreementNormalizesCaseAndSpace(t *testing.T) {
	runValues := []*string{strPtr("INV-1"), strPtr("inv-1"), strPtr(" Inv-1 ")}

	_, breakdown := confidence.Fuse(nil, runValues, false)

	assert.InDelta(t, 1.0, breakdown.LLMAgreement, 1e-9)
}

func TestFuse_DisagreementUsesModalShare(t *testing.T) {
	runValues := []*string{strPtr("a"), strPtr("b"), strPtr("a"), strPtr("c")}

	_, breakdown := confidence.Fuse(nil, runValues, false)

	assert.InDelta(t, 0.5, breakdown.LLMAgreement, 1e-9)
}

func TestSelectTokenConfidences_NilSourceTakesAllTokens(t *testing.T) {
	tokens := []domain.Token{
		{Confidence: 0.9, Page: 1},
		{Confidence: 0.5, Page: 2},
	}

	confs := confidence.SelectTokenConfidences(tokens, nil)

	assert.Equal(t, []float64{0.9, 0.5}, confs)
}

func TestSelectTokenConfidences_FiltersPageAndSpan(t *testing.T) {
	src := &domain.SourceRef{
		Page: 1,
		BBox: domain.BBox{X1: 100, Y1: 0, X2: 200, Y2: 40},
	}
	tokens := []domain.Token{
		// inside the span
		{Confidence: 0.9, Page: 1, BBox: domain.BBox{X1: 110, X2: 150}},
		// within the 5px tolerance on both edges
		{Confidence: 0.8, Page: 1, BBox: domain.BBox{X1: 96, X2: 204}},
		// starts too far left
		{Confidence: 0.7, Page: 1, BBox: domain.BBox{X1: 90, X2: 150}},
		// wrong page
		{Confidence: 0.6, Page: 2, BBox: domain.BBox{X1: 110, X2: 150}},
		// vertical position is not filtered
		{Confidence: 0.5, Page: 1, BBox: domain.BBox{X1: 120, Y1: 900, X2: 180, Y2: 940}},
	}

	confs := confidence.SelectTokenConfidences(tokens, src)

	assert.Equal(t, []float64{0.9, 0.8, 0.5}, confs)
}

func TestOverall(t *testing.T) {
	assert.Zero(t, confidence.Overall(nil))
	assert.InDelta(t, 0.5, confidence.Overall([]float64{0.25, 0.75}), 1e-9)
}

func TestRound2(t *testing.T) {
	assert.InDelta(t, 0.68, confidence.Round2(0.678), 1e-9)
	assert.InDelta(t, 0.67, confidence.Round2(0.671), 1e-9)
}
