// Package server exposes the ledger over HTTP: event ingestion for the
// order/ticketing collaborators and the admin dashboard query surface.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	commissiondomain "github.com/palcolabs/palco/internal/commission/domain"
	"github.com/palcolabs/palco/internal/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("server",
	fx.Provide(NewServer),
	fx.Invoke(Start),
)

type Server struct {
	cfg *config.Config
	db  *gorm.DB
	log *zap.Logger

	accrualSvc   commissiondomain.AccrualService
	settleSvc    commissiondomain.SettlementService
	reportingSvc commissiondomain.ReportingService
	exportSvc    commissiondomain.ExportService
}

type ServerParam struct {
	fx.In

	Config       *config.Config
	DB           *gorm.DB
	Log          *zap.Logger
	AccrualSvc   commissiondomain.AccrualService
	SettleSvc    commissiondomain.SettlementService
	ReportingSvc commissiondomain.ReportingService
	ExportSvc    commissiondomain.ExportService
}

func NewServer(p ServerParam) *Server {
	return &Server{
		cfg:          p.Config,
		db:           p.DB,
		log:          p.Log.Named("server"),
		accrualSvc:   p.AccrualSvc,
		settleSvc:    p.SettleSvc,
		reportingSvc: p.ReportingSvc,
		exportSvc:    p.ExportSvc,
	}
}

func (s *Server) Router() *gin.Engine {
	gin.SetMode(s.cfg.GinMode)

	r := gin.New()
	r.Use(gin.Recovery(), s.RequestID(), s.Metrics())

	r.GET("/readyz", s.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	{
		events := v1.Group("/events")
		events.POST("/order-item-paid", s.OrderItemPaid)
		events.POST("/ticket-paid", s.TicketPaid)

		commissions := v1.Group("/commissions", s.AdminKeyRequired())
		commissions.GET("", s.ListCommissions)
		commissions.GET("/summary", s.CommissionSummary)
		commissions.GET("/beneficiaries-pending", s.BeneficiariesPending)
		commissions.GET("/preview", s.PreviewCommission)
		commissions.GET("/export", s.ExportCommissions)
		commissions.PATCH("/pay-all", s.PayAll)
	}
	return r
}

func Start(lc fx.Lifecycle, s *Server) {
	srv := &http.Server{
		Addr:    s.cfg.HTTPAddr,
		Handler: s.Router(),
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					s.log.Error("http server stopped", zap.Error(err))
				}
			}()
			s.log.Info("http server listening", zap.String("addr", s.cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
