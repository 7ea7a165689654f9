package supplier

import (
	"github.com/smallbiznis/billflow/internal/supplier/repository"
	"github.com/smallbiznis/billflow/internal/supplier/service"
	"go.uber.org/fx"
)

var Module = fx.Module("supplier.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
