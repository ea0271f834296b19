package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"weekend-planner/backend/config"
	"weekend-planner/backend/internal/model"
	"weekend-planner/backend/pkg/database"
	applogger "weekend-planner/backend/pkg/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "周末课程排课服务",
	Long: `server 提供周末课程排课的 HTTP API，
并附带数据库迁移与冲突检查等运维子命令。不带子命令时等同于 serve。`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径（默认查找 ./config/config.yaml）")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(conflictsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app 子命令共享的基础依赖
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
}

// bootstrap 加载配置、初始化日志并连接数据库
func bootstrap() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		logger.Error("数据库连接失败", zap.Error(err))
		return nil, err
	}
	logger.Info("数据库连接成功", zap.String("driver", cfg.Database.Driver))

	return &app{cfg: cfg, logger: logger, db: db}, nil
}

func (a *app) migrate() error {
	return database.Migrate(a.db, a.logger, &model.User{}, &model.Course{}, &model.Session{})
}

func (a *app) close() {
	if sqlDB, _ := a.db.DB(); sqlDB != nil {
		sqlDB.Close()
	}
	_ = a.logger.Sync()
}
