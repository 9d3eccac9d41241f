package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/faktura/internal/contact/domain"
	"github.com/smallbiznis/faktura/internal/contact/repository"
	"github.com/smallbiznis/faktura/internal/orgcontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, context.Context) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Contact{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})

	ctx := orgcontext.WithOrgID(context.Background(), node.Generate())
	return svc, ctx
}

func TestCreateContactValidation(t *testing.T) {
	svc, ctx := newTestService(t)

	_, err := svc.Create(ctx, domain.CreateContactRequest{Name: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, domain.CreateContactRequest{Name: "Acme", Email: "not-an-email"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	contact, err := svc.Create(ctx, domain.CreateContactRequest{
		Name:  "Acme GmbH",
		Email: "billing@acme.example",
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme GmbH", contact.Name)
	assert.Equal(t, "billing@acme.example", contact.Email)
}

func TestUpdateContactPartialEdit(t *testing.T) {
	svc, ctx := newTestService(t)

	contact, err := svc.Create(ctx, domain.CreateContactRequest{
		Name:  "Acme GmbH",
		Email: "billing@acme.example",
		Phone: "+49 30 123456",
	})
	require.NoError(t, err)

	phone := "+49 30 654321"
	updated, err := svc.Update(ctx, domain.UpdateContactRequest{
		ID:    contact.ID.String(),
		Phone: &phone,
	})
	require.NoError(t, err)
	assert.Equal(t, "+49 30 654321", updated.Phone)
	assert.Equal(t, "Acme GmbH", updated.Name)
	assert.Equal(t, "billing@acme.example", updated.Email)
}

func TestDeleteContact(t *testing.T) {
	svc, ctx := newTestService(t)

	contact, err := svc.Create(ctx, domain.CreateContactRequest{Name: "Acme GmbH"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, domain.DeleteContactRequest{ID: contact.ID.String()}))

	_, err = svc.GetByID(ctx, domain.GetContactRequest{ID: contact.ID.String()})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListContactsSearch(t *testing.T) {
	svc, ctx := newTestService(t)

	_, err := svc.Create(ctx, domain.CreateContactRequest{Name: "Acme GmbH", Email: "billing@acme.example"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateContactRequest{Name: "Globex AG", Email: "invoice@globex.example"})
	require.NoError(t, err)

	resp, err := svc.List(ctx, domain.ListContactRequest{Search: "acme"})
	require.NoError(t, err)
	require.Len(t, resp.Contacts, 1)
	assert.Equal(t, "Acme GmbH", resp.Contacts[0].Name)

	resp, err = svc.List(ctx, domain.ListContactRequest{})
	require.NoError(t, err)
	assert.Len(t, resp.Contacts, 2)
}
