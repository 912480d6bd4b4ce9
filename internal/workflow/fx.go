package workflow

import (
	"github.com/smallbiznis/tollgate/internal/workflow/service"
	"go.uber.org/fx"
)

var Module = fx.Module("workflow",
	fx.Provide(NewClient),
	fx.Provide(NewNotifier),
	fx.Provide(service.NewService),
)
