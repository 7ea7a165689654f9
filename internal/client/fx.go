package client

import (
	"github.com/smallbiznis/billflow/internal/client/repository"
	"github.com/smallbiznis/billflow/internal/client/service"
	"go.uber.org/fx"
)

var Module = fx.Module("client.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
