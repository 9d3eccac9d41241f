package service

import (
	invoicedomain "github.com/smallbiznis/faktura/internal/invoice/domain"
	"github.com/smallbiznis/faktura/pkg/db/pagination"
)

func paginateInvoices(items []*invoicedomain.Invoice, limit int) ([]*invoicedomain.Invoice, pagination.PageInfo) {
	items, info := pagination.BuildCursorPageInfo(items, limit, func(inv *invoicedomain.Invoice) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{ID: inv.ID.String()})
		if err != nil {
			return ""
		}
		return token
	})
	return items, info
}
