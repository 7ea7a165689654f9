package migration

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billflow/internal/config"
	"github.com/smallbiznis/billflow/internal/seed"
	"github.com/smallbiznis/billflow/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type params struct {
	fx.In

	Conn  *gorm.DB
	DBCfg db.Config
	Cfg   config.Config
	Log   *zap.Logger
	GenID *snowflake.Node `optional:"true"`
}

var Module = fx.Module("migrations",
	fx.Invoke(func(p params) error {
		if err := Apply(p.Conn, p.DBCfg.Type); err != nil {
			return err
		}
		p.Log.Info("database schema up to date", zap.String("type", p.DBCfg.Type))

		if !p.Cfg.Bootstrap.SeedDemoData || p.GenID == nil {
			return nil
		}
		if err := seed.EnsureDemoData(p.Conn, p.GenID); err != nil {
			return err
		}
		p.Log.Info("demo data seeded")
		return nil
	}),
)
