package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/d60-Lab/gin-contest/pkg/database"
	"github.com/d60-Lab/gin-contest/pkg/logger"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "建立或更新表结构与唯一索引",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Sync()

			// InitDB 内部完成迁移
			db, err := database.InitDB(cfg)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
			logger.Info("migration complete", zap.String("driver", cfg.Database.Driver))
			return nil
		},
	}
}
