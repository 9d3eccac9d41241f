// Package extraction wraps the document extraction service that reads
// uploaded invoices. The service is opaque; callers only see extracted
// fields and their confidence.
package extraction

import "context"

// Field is a single extracted value. Confidence is in [0, 1].
type Field struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

type Result struct {
	ClientName    Field `json:"client_name"`
	InvoiceNumber Field `json:"invoice_number"`
	InvoiceDate   Field `json:"invoice_date"`
	TotalAmount   Field `json:"total_amount"`
}

type Extractor interface {
	Extract(ctx context.Context, fileName, contentType string, content []byte) (Result, error)
}
