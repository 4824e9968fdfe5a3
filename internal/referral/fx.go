package referral

import (
	"github.com/palcolabs/palco/internal/referral/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("referral.repository",
	fx.Provide(repository.NewRepository),
)
