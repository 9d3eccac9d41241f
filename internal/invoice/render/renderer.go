// Package render produces invoice PDFs. The renderer is an injected,
// fx-owned instance; nothing here is a package-level singleton.
package render

import "context"

// InvoiceData is the flattened, pre-formatted view handed to the renderer.
// All money values arrive as display strings; the renderer never does
// arithmetic.
type InvoiceData struct {
	OrgName       string
	OrgAddress    string
	OrgEmail      string
	InvoiceNumber string
	State         string
	IssueDate     string
	DueDate       string

	BillToName    string
	BillToAddress string
	BillToEmail   string

	Total       string
	AmountPaid  string
	Outstanding string

	Payments []PaymentLine
}

type PaymentLine struct {
	Date   string
	Amount string
}

type Renderer interface {
	RenderInvoice(ctx context.Context, data InvoiceData) ([]byte, error)
}
