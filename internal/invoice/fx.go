package invoice

import (
	"github.com/smallbiznis/billflow/internal/invoice/repository"
	"github.com/smallbiznis/billflow/internal/invoice/service"
	"github.com/smallbiznis/billflow/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	pdf.Module,
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
