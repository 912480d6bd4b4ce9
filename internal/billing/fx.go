package billing

import (
	"github.com/smallbiznis/tollgate/internal/billing/service"
	"github.com/smallbiznis/tollgate/internal/billing/stripe"
	"go.uber.org/fx"
)

var Module = fx.Module("billing",
	fx.Provide(
		stripe.NewClient,
		func(c *stripe.Client) service.Gateway { return c },
		service.NewService,
	),
)
