package commission

import (
	"github.com/palcolabs/palco/internal/commission/repository"
	"github.com/palcolabs/palco/internal/commission/service"
	"go.uber.org/fx"
)

var Module = fx.Module("commission.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewAccrualService),
	fx.Provide(service.NewSettlementService),
	fx.Provide(service.NewReportingService),
	fx.Provide(service.NewExportService),
)
