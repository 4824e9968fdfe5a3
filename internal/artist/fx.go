package artist

import (
	"github.com/palcolabs/palco/internal/artist/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("artist.repository",
	fx.Provide(repository.NewRepository),
)
