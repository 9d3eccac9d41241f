package render

import (
	"context"
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/core/entity"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type pdfRenderer struct {
	cfg *entity.Config
}

func NewPDFRenderer() Renderer {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	return &pdfRenderer{cfg: cfg}
}

func (r *pdfRenderer) RenderInvoice(ctx context.Context, data InvoiceData) ([]byte, error) {
	m := maroto.New(r.cfg)

	m.AddRow(12,
		text.NewCol(8, "Invoice "+data.InvoiceNumber, props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, data.State, props.Text{
			Size:  12,
			Style: fontstyle.Bold,
			Align: align.Right,
		}),
	)

	if data.OrgName != "" {
		m.AddRow(14,
			text.NewCol(12, data.OrgName+"\n"+data.OrgAddress+"\n"+data.OrgEmail, props.Text{
				Size:  9,
				Align: align.Left,
			}),
		)
	}

	m.AddRow(16,
		text.NewCol(6, billTo(data), props.Text{Size: 9, Align: align.Left}),
		text.NewCol(6, fmt.Sprintf("Issue date: %s\nDue date: %s", data.IssueDate, data.DueDate), props.Text{
			Size:  9,
			Align: align.Right,
		}),
	)

	m.AddRow(8,
		text.NewCol(8, "Total", props.Text{Size: 10, Style: fontstyle.Bold}),
		text.NewCol(4, data.Total, props.Text{Size: 10, Align: align.Right}),
	)
	m.AddRow(8,
		text.NewCol(8, "Paid", props.Text{Size: 10}),
		text.NewCol(4, data.AmountPaid, props.Text{Size: 10, Align: align.Right}),
	)
	m.AddRow(8,
		text.NewCol(8, "Outstanding", props.Text{Size: 10, Style: fontstyle.Bold}),
		text.NewCol(4, data.Outstanding, props.Text{Size: 10, Align: align.Right}),
	)

	if len(data.Payments) > 0 {
		m.AddRow(10, text.NewCol(12, "Payments", props.Text{Size: 11, Style: fontstyle.Bold}))
		m.AddRows(paymentRows(data.Payments)...)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate invoice pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

func billTo(data InvoiceData) string {
	if data.BillToName == "" {
		return ""
	}
	return "Bill to:\n" + data.BillToName + "\n" + data.BillToAddress + "\n" + data.BillToEmail
}

func paymentRows(payments []PaymentLine) []core.Row {
	rows := make([]core.Row, 0, len(payments))
	for _, p := range payments {
		rows = append(rows, row.New(6).Add(
			text.NewCol(8, p.Date, props.Text{Size: 9}),
			text.NewCol(4, p.Amount, props.Text{Size: 9, Align: align.Right}),
		))
	}
	return rows
}
