package domain

// DocType is a supported document classification label.
type DocType string

const (
	DocTypeInvoice      DocType = "invoice"
	DocTypeMedicalBill  DocType = "medical_bill"
	DocTypePrescription DocType = "prescription"
	DocTypeUnknown      DocType = "unknown"
)

// KnownDocTypes lists the labels the router can choose between, in
// lexicographic order. Tie-breaks during classification resolve in this order.
var KnownDocTypes = []DocType{DocTypeInvoice, DocTypeMedicalBill, DocTypePrescription}

// FileType represents the allowed file types for upload.
type FileType string

const (
	FileTypePDF FileType = "pdf"
	FileTypeJPG FileType = "jpg"
	FileTypePNG FileType = "png"
)

// AllowedContentTypes maps MIME content types back to FileType.
var AllowedContentTypes = map[string]FileType{
	"application/pdf": FileTypePDF,
	"image/jpeg":      FileTypeJPG,
	"image/png":       FileTypePNG,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
}

// ExtractionStatus represents the lifecycle of an extraction job.
type ExtractionStatus string

const (
	ExtractionStatusQueued     ExtractionStatus = "queued"
	ExtractionStatusProcessing ExtractionStatus = "processing"
	ExtractionStatusCompleted  ExtractionStatus = "completed"
	ExtractionStatusFailed     ExtractionStatus = "failed"
)
