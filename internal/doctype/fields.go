package doctype

import "docsense/internal/domain"

// expectedFields maps a document type to the field names the extraction
// prompt asks for.
var expectedFields = map[domain.DocType][]string{
	domain.DocTypeInvoice: {
		"InvoiceNumber", "InvoiceDate", "VendorName", "TotalAmount",
	},
	domain.DocTypeMedicalBill: {
		"PatientName", "PatientID", "HospitalName", "BillNumber",
		"AdmissionDate", "DischargeDate", "TotalAmount",
	},
	domain.DocTypePrescription: {
		"PatientName", "DoctorName", "PrescriptionDate",
	},
}

// ExpectedFields returns the extraction targets for a document type.
// Unknown types get the invoice field set, matching the router's fallback.
func ExpectedFields(dt domain.DocType) []string {
	if fields, ok := expectedFields[dt]; ok {
		return fields
	}
	return expectedFields[domain.DocTypeInvoice]
}
