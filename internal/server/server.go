package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/faktura/internal/assistant"
	assistantdomain "github.com/smallbiznis/faktura/internal/assistant/domain"
	"github.com/smallbiznis/faktura/internal/audit"
	auditdomain "github.com/smallbiznis/faktura/internal/audit/domain"
	"github.com/smallbiznis/faktura/internal/authorization"
	"github.com/smallbiznis/faktura/internal/clock"
	"github.com/smallbiznis/faktura/internal/config"
	"github.com/smallbiznis/faktura/internal/contact"
	contactdomain "github.com/smallbiznis/faktura/internal/contact/domain"
	"github.com/smallbiznis/faktura/internal/extraction"
	"github.com/smallbiznis/faktura/internal/invoice"
	invoicedomain "github.com/smallbiznis/faktura/internal/invoice/domain"
	"github.com/smallbiznis/faktura/internal/observability"
	obsmiddleware "github.com/smallbiznis/faktura/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/faktura/internal/observability/metrics"
	obstracing "github.com/smallbiznis/faktura/internal/observability/tracing"
	"github.com/smallbiznis/faktura/internal/project"
	projectdomain "github.com/smallbiznis/faktura/internal/project/domain"
	"github.com/smallbiznis/faktura/internal/ratelimit"
	"github.com/smallbiznis/faktura/internal/upload"
	uploaddomain "github.com/smallbiznis/faktura/internal/upload/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	audit.Module,
	clock.Module,
	extraction.Module,
	ratelimit.Module,
	contact.Module,
	project.Module,
	invoice.Module,
	upload.Module,
	assistant.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", httpMetrics.Handler())

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	db           *gorm.DB
	genID        *snowflake.Node
	authzSvc     authorization.Service
	auditSvc     auditdomain.Service
	invoiceSvc   invoicedomain.Service
	contactSvc   contactdomain.Service
	projectSvc   projectdomain.Service
	uploadSvc    uploaddomain.Service
	assistantSvc assistantdomain.Service
	obsMetrics   *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	DB           *gorm.DB
	GenID        *snowflake.Node
	AuthzSvc     authorization.Service
	AuditSvc     auditdomain.Service
	InvoiceSvc   invoicedomain.Service
	ContactSvc   contactdomain.Service
	ProjectSvc   projectdomain.Service
	UploadSvc    uploaddomain.Service
	AssistantSvc assistantdomain.Service
	ObsMetrics   *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		db:           p.DB,
		genID:        p.GenID,
		authzSvc:     p.AuthzSvc,
		auditSvc:     p.AuditSvc,
		invoiceSvc:   p.InvoiceSvc,
		contactSvc:   p.ContactSvc,
		projectSvc:   p.ProjectSvc,
		uploadSvc:    p.UploadSvc,
		assistantSvc: p.AssistantSvc,
		obsMetrics:   p.ObsMetrics,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.OrgContext())

	// -------- Invoices --------
	api.GET("/invoices", s.authorize(authorization.ObjectInvoice, authorization.ActionView), s.ListInvoices)
	api.POST("/invoices", s.authorize(authorization.ObjectInvoice, authorization.ActionCreate), s.CreateInvoice)
	api.GET("/invoices/:id", s.authorize(authorization.ObjectInvoice, authorization.ActionView), s.GetInvoiceByID)
	api.PATCH("/invoices/:id", s.authorize(authorization.ObjectInvoice, authorization.ActionUpdate), s.UpdateDraftInvoice)
	api.POST("/invoices/:id/actions", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceLifecycle), s.ApplyInvoiceAction)
	api.GET("/invoices/:id/payments", s.authorize(authorization.ObjectInvoice, authorization.ActionView), s.ListInvoicePayments)
	api.GET("/invoices/:id/pdf", s.authorize(authorization.ObjectInvoice, authorization.ActionView), s.RenderInvoicePDF)

	// -------- Contacts --------
	api.GET("/contacts", s.authorize(authorization.ObjectContact, authorization.ActionView), s.ListContacts)
	api.POST("/contacts", s.authorize(authorization.ObjectContact, authorization.ActionCreate), s.CreateContact)
	api.GET("/contacts/:id", s.authorize(authorization.ObjectContact, authorization.ActionView), s.GetContactByID)
	api.PATCH("/contacts/:id", s.authorize(authorization.ObjectContact, authorization.ActionUpdate), s.UpdateContact)
	api.DELETE("/contacts/:id", s.authorize(authorization.ObjectContact, authorization.ActionDelete), s.DeleteContact)

	// -------- Projects --------
	api.GET("/projects", s.authorize(authorization.ObjectProject, authorization.ActionView), s.ListProjects)
	api.POST("/projects", s.authorize(authorization.ObjectProject, authorization.ActionCreate), s.CreateProject)
	api.GET("/projects/:id", s.authorize(authorization.ObjectProject, authorization.ActionView), s.GetProjectByID)
	api.PATCH("/projects/:id", s.authorize(authorization.ObjectProject, authorization.ActionUpdate), s.UpdateProject)

	// -------- Uploads --------
	api.GET("/uploads", s.authorize(authorization.ObjectUpload, authorization.ActionView), s.ListUploads)
	api.POST("/uploads", s.authorize(authorization.ObjectUpload, authorization.ActionCreate), s.CreateUpload)
	api.GET("/uploads/:id", s.authorize(authorization.ObjectUpload, authorization.ActionView), s.GetUploadByID)
	api.GET("/uploads/:id/file", s.authorize(authorization.ObjectUpload, authorization.ActionView), s.DownloadUploadFile)
	api.DELETE("/uploads/:id", s.authorize(authorization.ObjectUpload, authorization.ActionDelete), s.DeleteUpload)

	// -------- Assistant --------
	api.POST("/assistant/chat", s.authorize(authorization.ObjectAssistant, authorization.ActionAssistantChat), s.AssistantChat)
	api.GET("/assistant/conversations/:id", s.authorize(authorization.ObjectAssistant, authorization.ActionView), s.AssistantHistory)

	// -------- Audit Logs --------
	api.GET("/audit-logs", s.authorize(authorization.ObjectAuditLog, authorization.ActionAuditLogView), s.ListAuditLogs)
}
