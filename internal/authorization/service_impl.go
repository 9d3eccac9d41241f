package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	auditdomain "github.com/smallbiznis/faktura/internal/audit/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	AuditSvc auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	db       *gorm.DB
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	auditSvc auditdomain.Service
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		db:       p.DB,
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		auditSvc: p.AuditSvc,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor string, orgID string, object string, action string) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ErrInvalidActor
	}
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return ErrInvalidOrganization
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject, roleName, actorType, actorID, err := resolveActor(ctx, actor)
	if err != nil {
		s.auditDenied(ctx, actorType, actorID, orgID, object, action)
		return err
	}

	domain := fmt.Sprintf("org:%s", orgID)
	if err := s.ensureGrouping(subject, roleName, domain); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, domain, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.auditDenied(ctx, actorType, actorID, orgID, object, action)
		return ErrForbidden
	}
	return nil
}

func resolveActor(ctx context.Context, actor string) (string, string, string, *string, error) {
	if actor == "system" {
		return actor, "role:system", "system", nil, nil
	}
	if strings.HasPrefix(actor, "user:") {
		userIDRaw := strings.TrimPrefix(actor, "user:")
		userID, err := snowflake.ParseString(userIDRaw)
		if err != nil || userID == 0 {
			return "", "", "", nil, ErrInvalidActor
		}
		userIDStr := userID.String()
		roleName := fmt.Sprintf("role:%s", RoleFromContext(ctx))
		return actor, roleName, "user", &userIDStr, nil
	}
	return "", "", "", nil, ErrInvalidActor
}

func (s *ServiceImpl) ensureGrouping(subject string, roleName string, domain string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject, "", domain)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 {
			continue
		}
		if rule[1] != roleName {
			params := make([]interface{}, 0, len(rule))
			for _, value := range rule {
				params = append(params, value)
			}
			_, _ = s.enforcer.RemoveGroupingPolicy(params...)
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName, domain)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName, domain)
	return err
}

func (s *ServiceImpl) auditDenied(ctx context.Context, actorType string, actorID *string, orgID string, object string, action string) {
	if s.auditSvc == nil {
		return
	}
	parsedOrgID, err := snowflake.ParseString(orgID)
	if err != nil || parsedOrgID == 0 {
		return
	}
	targetID := "capability"
	_ = s.auditSvc.AuditLog(ctx, &parsedOrgID, actorType, actorID, "authorization.denied", "authorization", &targetID, map[string]any{
		"object": object,
		"action": action,
	})
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Members can look at everything and talk to the assistant, but
		// never change invoice state or delete data.
		{"role:member", ObjectInvoice, ActionView},
		{"role:member", ObjectContact, ActionView},
		{"role:member", ObjectProject, ActionView},
		{"role:member", ObjectUpload, ActionView},
		{"role:member", ObjectAssistant, ActionAssistantChat},

		{"role:owner", ObjectInvoice, ActionView},
		{"role:owner", ObjectInvoice, ActionCreate},
		{"role:owner", ObjectInvoice, ActionUpdate},
		{"role:owner", ObjectInvoice, ActionInvoiceLifecycle},
		{"role:owner", ObjectContact, ActionView},
		{"role:owner", ObjectContact, ActionCreate},
		{"role:owner", ObjectContact, ActionUpdate},
		{"role:owner", ObjectContact, ActionDelete},
		{"role:owner", ObjectProject, ActionView},
		{"role:owner", ObjectProject, ActionCreate},
		{"role:owner", ObjectProject, ActionUpdate},
		{"role:owner", ObjectUpload, ActionView},
		{"role:owner", ObjectUpload, ActionCreate},
		{"role:owner", ObjectUpload, ActionDelete},
		{"role:owner", ObjectAssistant, ActionAssistantChat},
		{"role:owner", ObjectAuditLog, ActionAuditLogView},

		{"role:system", ObjectInvoice, ActionView},
		{"role:system", ObjectInvoice, ActionCreate},
		{"role:system", ObjectInvoice, ActionUpdate},
		{"role:system", ObjectInvoice, ActionInvoiceLifecycle},
		{"role:system", ObjectContact, ActionView},
		{"role:system", ObjectContact, ActionCreate},
		{"role:system", ObjectContact, ActionUpdate},
		{"role:system", ObjectContact, ActionDelete},
		{"role:system", ObjectProject, ActionView},
		{"role:system", ObjectProject, ActionCreate},
		{"role:system", ObjectProject, ActionUpdate},
		{"role:system", ObjectUpload, ActionView},
		{"role:system", ObjectUpload, ActionCreate},
		{"role:system", ObjectUpload, ActionDelete},
		{"role:system", ObjectAssistant, ActionAssistantChat},
		{"role:system", ObjectAuditLog, ActionAuditLogView},
	}

	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}

var Module = fx.Module("authorization.service",
	fx.Provide(NewEnforcer),
	fx.Provide(NewService),
)
