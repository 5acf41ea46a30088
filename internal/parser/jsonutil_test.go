package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsense/internal/domain"
	"docsense/internal/parser"
)

func TestDecodeRun_CleanJSON(t *testing.T) {
	raw := `{"doc_type":"invoice","fields":[{"name":"InvoiceNumber","value":"INV-1","source":{"page":1,"bbox":[10,20,110,40]}}]}`

	run := parser.DecodeRun(raw)

	require.Len(t, run.Fields, 1)
	assert.Equal(t, domain.DocTypeInvoice, run.DocType)
	assert.Equal(t, "InvoiceNumber", run.Fields[0].Name)
	require.NotNil(t, run.Fields[0].Value)
	assert.Equal(t, "INV-1", *run.Fields[0].Value)
	require.NotNil(t, run.Fields[0].Source)
	assert.Equal(t, 1, run.Fields[0].Source.Page)
	assert.InDelta(t, 110, run.Fields[0].Source.BBox.X2, 1e-9)
}

func TestDecodeRun_SurroundingProse(t *testing.T) {
	raw := "Here is the extraction you asked for:\n```json\n{\"doc_type\":\"prescription\",\"fields\":[]}\n```\nLet me know if you need more."

	run := parser.DecodeRun(raw)

	assert.Equal(t, domain.DocTypePrescription, run.DocType)
}

func TestDecodeRun_SingleQuotesAndTrailingCommas(t *testing.T) {
	raw := `{'doc_type': 'invoice', 'fields': [{'name': 'VendorName', 'value': 'Acme',},],}`

	run := parser.DecodeRun(raw)

	require.Len(t, run.Fields, 1)
	assert.Equal(t, "Acme", *run.Fields[0].Value)
}

func TestDecodeRun_UnrecoverableDegrades(t *testing.T) {
	run := parser.DecodeRun("I could not read the document, sorry.")

	assert.Equal(t, domain.DocTypeUnknown, run.DocType)
	assert.NotNil(t, run.Fields)
	assert.Empty(t, run.Fields)
}

func TestDecodeRun_NonStringValuesCoerced(t *testing.T) {
	raw := `{"doc_type":"invoice","fields":[
		{"name":"TotalAmount","value":150.0},
		{"name":"InvoiceNumber","value":4711},
		{"name":"Paid","value":true},
		{"name":"VendorName","value":"Acme"}
	]}`

	run := parser.DecodeRun(raw)

	assert.Equal(t, domain.DocTypeInvoice, run.DocType)
	require.Len(t, run.Fields, 4)
	require.NotNil(t, run.Fields[0].Value)
	assert.Equal(t, "150.0", *run.Fields[0].Value)
	require.NotNil(t, run.Fields[1].Value)
	assert.Equal(t, "4711", *run.Fields[1].Value)
	require.NotNil(t, run.Fields[2].Value)
	assert.Equal(t, "true", *run.Fields[2].Value)
	assert.Equal(t, "Acme", *run.Fields[3].Value)
}

func TestDecodeRun_NullFieldValue(t *testing.T) {
	raw := `{"doc_type":"invoice","fields":[{"name":"InvoiceDate","value":null}]}`

	run := parser.DecodeRun(raw)

	require.Len(t, run.Fields, 1)
	assert.Nil(t, run.Fields[0].Value)
}
