package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/faktura/internal/invoice/domain"
	"github.com/smallbiznis/faktura/pkg/db/pagination"
)

type listInvoicesQuery struct {
	PageToken    string `form:"page_token"`
	PageSize     int    `form:"page_size"`
	State        string `form:"state"`
	ContactID    string `form:"contact_id"`
	ProjectID    string `form:"project_id"`
	IncludeTrash string `form:"include_trash"`
	CreatedFrom  string `form:"created_from"`
	CreatedTo    string `form:"created_to"`
}

func (s *Server) ListInvoices(c *gin.Context) {
	var query listInvoicesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := invoicedomain.ListInvoiceRequest{
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(query.PageToken),
			PageSize:  query.PageSize,
		},
	}

	if state := strings.TrimSpace(query.State); state != "" {
		parsed := invoicedomain.State(strings.ToUpper(state))
		switch parsed {
		case invoicedomain.StateReview, invoicedomain.StateDraft, invoicedomain.StateSent,
			invoicedomain.StatePartial, invoicedomain.StatePaid:
			req.State = &parsed
		default:
			AbortWithError(c, newValidationError("state", "invalid_state", "invalid state"))
			return
		}
	}

	contactID, err := parseOptionalSnowflakeID(query.ContactID)
	if err != nil {
		AbortWithError(c, newValidationError("contact_id", "invalid_contact_id", "invalid contact id"))
		return
	}
	req.ContactID = contactID

	projectID, err := parseOptionalSnowflakeID(query.ProjectID)
	if err != nil {
		AbortWithError(c, newValidationError("project_id", "invalid_project_id", "invalid project id"))
		return
	}
	req.ProjectID = projectID

	includeTrash, err := parseOptionalBool(query.IncludeTrash)
	if err != nil {
		AbortWithError(c, newValidationError("include_trash", "invalid_include_trash", "invalid include_trash"))
		return
	}
	if includeTrash != nil {
		req.IncludeTrash = *includeTrash
	}

	createdFrom, err := parseOptionalTime(query.CreatedFrom, false)
	if err != nil {
		AbortWithError(c, newValidationError("created_from", "invalid_created_from", "invalid created_from"))
		return
	}
	req.CreatedFrom = createdFrom

	createdTo, err := parseOptionalTime(query.CreatedTo, true)
	if err != nil {
		AbortWithError(c, newValidationError("created_to", "invalid_created_to", "invalid created_to"))
		return
	}
	req.CreatedTo = createdTo

	resp, err := s.invoiceSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Invoices, "page_info": resp.PageInfo})
}

type createInvoiceBody struct {
	ContactID     string `json:"contact_id"`
	ProjectID     string `json:"project_id"`
	InvoiceNumber string `json:"invoice_number"`
	IssueDate     string `json:"issue_date"`
	DueDate       string `json:"due_date"`
	TotalCents    int64  `json:"total_cents"`
	Currency      string `json:"currency"`
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var body createInvoiceBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	contactID, err := parseOptionalSnowflakeID(body.ContactID)
	if err != nil {
		AbortWithError(c, newValidationError("contact_id", "invalid_contact_id", "invalid contact id"))
		return
	}
	projectID, err := parseOptionalSnowflakeID(body.ProjectID)
	if err != nil {
		AbortWithError(c, newValidationError("project_id", "invalid_project_id", "invalid project id"))
		return
	}
	issueDate, err := parseOptionalTime(body.IssueDate, false)
	if err != nil {
		AbortWithError(c, newValidationError("issue_date", "invalid_issue_date", "invalid issue_date"))
		return
	}
	dueDate, err := parseOptionalTime(body.DueDate, false)
	if err != nil {
		AbortWithError(c, newValidationError("due_date", "invalid_due_date", "invalid due_date"))
		return
	}

	item, err := s.invoiceSvc.Create(c.Request.Context(), invoicedomain.CreateInvoiceRequest{
		ContactID:     contactID,
		ProjectID:     projectID,
		InvoiceNumber: strings.TrimSpace(body.InvoiceNumber),
		IssueDate:     issueDate,
		DueDate:       dueDate,
		TotalCents:    body.TotalCents,
		Currency:      strings.TrimSpace(body.Currency),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": item})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if _, err := snowflake.ParseString(id); err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	item, err := s.invoiceSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

type updateDraftBody struct {
	ContactID     *string `json:"contact_id"`
	ProjectID     *string `json:"project_id"`
	InvoiceNumber *string `json:"invoice_number"`
	IssueDate     *string `json:"issue_date"`
	DueDate       *string `json:"due_date"`
	TotalCents    *int64  `json:"total_cents"`
}

func (s *Server) UpdateDraftInvoice(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if _, err := snowflake.ParseString(id); err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	var body updateDraftBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := invoicedomain.UpdateDraftRequest{
		ID:            id,
		InvoiceNumber: body.InvoiceNumber,
		TotalCents:    body.TotalCents,
	}

	if body.ContactID != nil {
		contactID, err := parseOptionalSnowflakeID(*body.ContactID)
		if err != nil {
			AbortWithError(c, newValidationError("contact_id", "invalid_contact_id", "invalid contact id"))
			return
		}
		req.ContactID = contactID
	}
	if body.ProjectID != nil {
		projectID, err := parseOptionalSnowflakeID(*body.ProjectID)
		if err != nil {
			AbortWithError(c, newValidationError("project_id", "invalid_project_id", "invalid project id"))
			return
		}
		req.ProjectID = projectID
	}
	if body.IssueDate != nil {
		issueDate, err := parseOptionalTime(*body.IssueDate, false)
		if err != nil {
			AbortWithError(c, newValidationError("issue_date", "invalid_issue_date", "invalid issue_date"))
			return
		}
		req.IssueDate = issueDate
	}
	if body.DueDate != nil {
		dueDate, err := parseOptionalTime(*body.DueDate, false)
		if err != nil {
			AbortWithError(c, newValidationError("due_date", "invalid_due_date", "invalid due_date"))
			return
		}
		req.DueDate = dueDate
	}

	item, err := s.invoiceSvc.UpdateDraft(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

type confirmedFieldsBody struct {
	ContactID     string `json:"contact_id"`
	InvoiceNumber string `json:"invoice_number"`
	IssueDate     string `json:"issue_date"`
	DueDate       string `json:"due_date"`
	TotalCents    int64  `json:"total_cents"`
}

type applyActionBody struct {
	Action      string               `json:"action"`
	PaymentDate string               `json:"payment_date"`
	AmountCents int64                `json:"amount_cents"`
	RevertTo    string               `json:"revert_to"`
	Confirmed   *confirmedFieldsBody `json:"confirmed"`
}

func (s *Server) ApplyInvoiceAction(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if _, err := snowflake.ParseString(id); err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	var body applyActionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	action := invoicedomain.Action(strings.TrimSpace(body.Action))
	if action == "" {
		AbortWithError(c, newValidationError("action", "invalid_action", "invalid action"))
		return
	}

	params := invoicedomain.ActionParams{
		AmountCents: body.AmountCents,
		RevertTo:    invoicedomain.State(strings.ToUpper(strings.TrimSpace(body.RevertTo))),
	}

	paymentDate, err := parseOptionalTime(body.PaymentDate, false)
	if err != nil {
		AbortWithError(c, newValidationError("payment_date", "invalid_payment_date", "invalid payment_date"))
		return
	}
	params.PaymentDate = paymentDate

	if body.Confirmed != nil {
		confirmed, err := parseConfirmedFields(body.Confirmed)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		params.Confirmed = confirmed
	}

	item, err := s.invoiceSvc.ApplyAction(c.Request.Context(), invoicedomain.ApplyActionRequest{
		ID:     id,
		Action: action,
		Params: params,
	})
	if err != nil {
		if s.obsMetrics != nil && invoicedomain.AsGuardViolation(err) != nil {
			s.obsMetrics.RecordGuardViolation(c.Request.Context(), string(action))
		}
		AbortWithError(c, err)
		return
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordInvoiceAction(c.Request.Context(), string(action), string(item.Derived.State))
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func parseConfirmedFields(body *confirmedFieldsBody) (*invoicedomain.ConfirmedFields, error) {
	contactID, err := parseOptionalSnowflakeID(body.ContactID)
	if err != nil {
		return nil, newValidationError("confirmed.contact_id", "invalid_contact_id", "invalid contact id")
	}
	issueDate, err := parseOptionalTime(body.IssueDate, false)
	if err != nil {
		return nil, newValidationError("confirmed.issue_date", "invalid_issue_date", "invalid issue_date")
	}
	dueDate, err := parseOptionalTime(body.DueDate, false)
	if err != nil {
		return nil, newValidationError("confirmed.due_date", "invalid_due_date", "invalid due_date")
	}
	return &invoicedomain.ConfirmedFields{
		ContactID:     contactID,
		InvoiceNumber: strings.TrimSpace(body.InvoiceNumber),
		IssueDate:     issueDate,
		DueDate:       dueDate,
		TotalCents:    body.TotalCents,
	}, nil
}

func (s *Server) ListInvoicePayments(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if _, err := snowflake.ParseString(id); err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	payments, err := s.invoiceSvc.ListPayments(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": payments})
}

func (s *Server) RenderInvoicePDF(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if _, err := snowflake.ParseString(id); err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	content, err := s.invoiceSvc.RenderPDF(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="invoice-`+id+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", content)
}
