package service

import (
	"go.uber.org/zap"

	"weekend-planner/backend/config"
	"weekend-planner/backend/internal/repository"
	"weekend-planner/backend/pkg/jwt"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth    AuthService
	Course  CourseService
	Session SessionService
	Planner PlannerService
	Data    DataService
}

// NewService 创建 Service 聚合
// blacklist 可为 nil（未配置 Redis 时 Token 黑名单降级为不可用）
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:    NewAuthService(cfg, repo, jwtMgr, blacklist, logger),
		Course:  NewCourseService(repo, logger),
		Session: NewSessionService(&cfg.Planner, repo, logger),
		Planner: NewPlannerService(&cfg.Planner, repo, logger),
		Data:    NewDataService(&cfg.Planner, repo, logger),
	}
}
