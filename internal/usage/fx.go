package usage

import (
	"github.com/smallbiznis/tollgate/internal/usage/repository"
	"github.com/smallbiznis/tollgate/internal/usage/service"
	"go.uber.org/fx"
)

var Module = fx.Module("usage",
	fx.Provide(
		repository.NewRepository,
		service.NewService,
	),
)
