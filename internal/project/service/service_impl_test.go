package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	contactdomain "github.com/smallbiznis/faktura/internal/contact/domain"
	contactrepository "github.com/smallbiznis/faktura/internal/contact/repository"
	"github.com/smallbiznis/faktura/internal/orgcontext"
	"github.com/smallbiznis/faktura/internal/project/domain"
	"github.com/smallbiznis/faktura/internal/project/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node, context.Context) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&contactdomain.Contact{}, &domain.Project{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Repo:        repository.Provide(),
		ContactRepo: contactrepository.Provide(),
	})

	ctx := orgcontext.WithOrgID(context.Background(), node.Generate())
	return svc, db, node, ctx
}

func TestCreateProjectGeneratesSlug(t *testing.T) {
	svc, _, _, ctx := newTestService(t)

	project, err := svc.Create(ctx, domain.CreateProjectRequest{Name: "Website Relaunch 2025"})
	require.NoError(t, err)
	assert.Equal(t, "website-relaunch-2025", project.Slug)
}

func TestCreateProjectSuffixesSlugOnCollision(t *testing.T) {
	svc, _, _, ctx := newTestService(t)

	first, err := svc.Create(ctx, domain.CreateProjectRequest{Name: "Website"})
	require.NoError(t, err)
	assert.Equal(t, "website", first.Slug)

	second, err := svc.Create(ctx, domain.CreateProjectRequest{Name: "Website"})
	require.NoError(t, err)
	assert.Equal(t, "website-2", second.Slug)

	third, err := svc.Create(ctx, domain.CreateProjectRequest{Name: "Website"})
	require.NoError(t, err)
	assert.Equal(t, "website-3", third.Slug)
}

func TestCreateProjectRejectsUnknownContact(t *testing.T) {
	svc, _, node, ctx := newTestService(t)

	_, err := svc.Create(ctx, domain.CreateProjectRequest{
		Name:      "Internal",
		ContactID: node.Generate().String(),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidContact)
}

func TestCreateProjectLinksExistingContact(t *testing.T) {
	svc, db, node, ctx := newTestService(t)

	orgID, _ := orgcontext.OrgIDFromContext(ctx)
	contact := contactdomain.Contact{
		ID:        node.Generate(),
		OrgID:     orgID,
		Name:      "Acme GmbH",
		Metadata:  datatypes.JSONMap{},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Create(&contact).Error)

	project, err := svc.Create(ctx, domain.CreateProjectRequest{
		Name:      "Acme Portal",
		ContactID: contact.ID.String(),
	})
	require.NoError(t, err)
	require.NotNil(t, project.ContactID)
	assert.Equal(t, contact.ID, *project.ContactID)
}

func TestUpdateProjectArchiveAndRename(t *testing.T) {
	svc, _, _, ctx := newTestService(t)

	project, err := svc.Create(ctx, domain.CreateProjectRequest{Name: "Old Name"})
	require.NoError(t, err)

	name := "New Name"
	archived := true
	updated, err := svc.Update(ctx, domain.UpdateProjectRequest{
		ID:       project.ID.String(),
		Name:     &name,
		Archived: &archived,
	})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, "new-name", updated.Slug)
	assert.NotNil(t, updated.ArchivedAt)

	// Archived projects disappear from the default listing.
	resp, err := svc.List(ctx, domain.ListProjectRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp.Projects)

	resp, err = svc.List(ctx, domain.ListProjectRequest{IncludeArchived: true})
	require.NoError(t, err)
	assert.Len(t, resp.Projects, 1)
}
