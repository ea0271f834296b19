package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"weekend-planner/backend/config"
	"weekend-planner/backend/internal/dto"
	"weekend-planner/backend/internal/model"
	"weekend-planner/backend/internal/planner"
	"weekend-planner/backend/internal/repository"
)

// ── 排课视图业务错误 ──

var (
	ErrWeekNotFound      = errors.New("该周末没有课次")
	ErrResolveSameCourse = errors.New("保留与归档的课程不能相同")
)

// PlannerService 排课视图业务接口
//
// 所有结果都在每次请求时由当前快照重新计算，不做缓存也不落库：
//   - 快照仅包含调用者名下未归档课程的课次
//   - 解决冲突 = 归档其中一门课程，随后重新计算
type PlannerService interface {
	Weeks(ctx context.Context, userID string) ([]planner.Week, error)
	// WeekGrid week 为周内任意日期；为空时取第一个有数据的周末
	WeekGrid(ctx context.Context, userID, week string) (*dto.WeekGridResponse, error)
	Matrix(ctx context.Context, userID string, courseNames []string) ([]planner.MatrixRow, error)
	Conflicts(ctx context.Context, userID, week string) (*dto.ConflictListResponse, error)
	Stats(ctx context.Context, userID string) (*dto.StatsResponse, error)
	Resolve(ctx context.Context, userID string, req *dto.ResolveConflictRequest) (*dto.ConflictListResponse, error)
}

type plannerService struct {
	repo   *repository.Repository
	window planner.Window
	logger *zap.Logger
}

// NewPlannerService 创建 PlannerService 实例
func NewPlannerService(cfg *config.PlannerConfig, repo *repository.Repository, logger *zap.Logger) PlannerService {
	return &plannerService{repo: repo, window: windowOf(cfg), logger: logger}
}

// snapshot 单次请求的一致性视图
type snapshot struct {
	courses  map[string]planner.Course // 未归档
	all      []planner.Course          // 含已归档（学分统计）
	sessions []planner.Session
	rows     []model.Session
}

func (s *plannerService) loadSnapshot(ctx context.Context, userID string) (*snapshot, error) {
	courses, err := s.repo.Course.ListAll(ctx, userID)
	if err != nil {
		s.logger.Error("查询课程失败", zap.Error(err))
		return nil, err
	}
	rows, err := s.repo.Session.ListActive(ctx, userID)
	if err != nil {
		s.logger.Error("查询课次失败", zap.Error(err))
		return nil, err
	}

	snap := &snapshot{
		courses:  make(map[string]planner.Course, len(courses)),
		all:      make([]planner.Course, 0, len(courses)),
		sessions: make([]planner.Session, 0, len(rows)),
		rows:     rows,
	}
	for i := range courses {
		c := toPlannerCourse(&courses[i])
		snap.all = append(snap.all, c)
		if !c.Archived {
			snap.courses[c.ID] = c
		}
	}
	for i := range rows {
		snap.sessions = append(snap.sessions, toPlannerSession(&rows[i]))
	}
	return snap, nil
}

func (s *plannerService) Weeks(ctx context.Context, userID string) ([]planner.Week, error) {
	snap, err := s.loadSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return planner.WeeksFromSessions(snap.sessions), nil
}

func (s *plannerService) WeekGrid(ctx context.Context, userID, week string) (*dto.WeekGridResponse, error) {
	snap, err := s.loadSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	weeks := planner.WeeksFromSessions(snap.sessions)
	resp := &dto.WeekGridResponse{
		Sessions:  []dto.SessionResponse{},
		Conflicts: []planner.Conflict{},
		MinHour:   s.window.MinHour,
		MaxHour:   s.window.MaxHour,
	}

	var target *planner.Week
	if week == "" {
		if len(weeks) == 0 {
			return resp, nil
		}
		target = &weeks[0]
	} else {
		key, err := planner.WeekKeyForDate(week)
		if err != nil {
			return nil, ErrInvalidDate
		}
		for i := range weeks {
			if weeks[i].Key == key {
				target = &weeks[i]
				break
			}
		}
		if target == nil {
			return nil, ErrWeekNotFound
		}
	}

	resp.Grid = planner.BuildWeekGrid(snap.sessions, *target, s.window)
	for i := range snap.rows {
		r := toSessionResponse(&snap.rows[i], snap.courses[snap.rows[i].CourseID].Name)
		if r.WeekKey == target.Key {
			resp.Sessions = append(resp.Sessions, r)
		}
	}
	resp.Conflicts = conflictList(snap, target.Key).Conflicts
	return resp, nil
}

func (s *plannerService) Matrix(ctx context.Context, userID string, courseNames []string) ([]planner.MatrixRow, error) {
	snap, err := s.loadSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return planner.BuildMatrix(snap.sessions, snap.courses, courseNames), nil
}

func (s *plannerService) Conflicts(ctx context.Context, userID, week string) (*dto.ConflictListResponse, error) {
	weekKey := ""
	if week != "" {
		key, err := planner.WeekKeyForDate(week)
		if err != nil {
			return nil, ErrInvalidDate
		}
		weekKey = key
	}

	snap, err := s.loadSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return conflictList(snap, weekKey), nil
}

func (s *plannerService) Stats(ctx context.Context, userID string) (*dto.StatsResponse, error) {
	snap, err := s.loadSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats := planner.CountConflictPairs(snap.sessions)
	return &dto.StatsResponse{
		SessionCount:    len(snap.sessions),
		WeekCount:       len(planner.WeeksFromSessions(snap.sessions)),
		GlobalConflicts: stats.Global,
		WeekConflicts:   stats.PerWeek,
		Credits:         planner.CreditSummary(snap.all),
	}, nil
}

func (s *plannerService) Resolve(ctx context.Context, userID string, req *dto.ResolveConflictRequest) (*dto.ConflictListResponse, error) {
	if req.KeepCourseID != "" {
		if req.KeepCourseID == req.ArchiveCourseID {
			return nil, ErrResolveSameCourse
		}
		if _, err := s.repo.Course.GetByID(ctx, userID, req.KeepCourseID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCourseNotFound
			}
			s.logger.Error("查询课程失败", zap.String("course_id", req.KeepCourseID), zap.Error(err))
			return nil, err
		}
	}

	snap, err := s.loadSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Course.SetArchived(ctx, userID, req.ArchiveCourseID, true); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("归档课程失败", zap.String("course_id", req.ArchiveCourseID), zap.Error(err))
		return nil, err
	}
	s.logger.Info("冲突已解决",
		zap.String("user_id", userID),
		zap.String("archived", req.ArchiveCourseID),
		zap.String("kept", req.KeepCourseID))

	// 其余课程对的最早冲突不受影响，只需去掉涉及被归档课程的条目
	remaining := planner.WithoutCourse(conflictList(snap, "").Conflicts, req.ArchiveCourseID)
	return &dto.ConflictListResponse{Total: len(remaining), Conflicts: remaining}, nil
}

// conflictList weekKey 非空时只在该周末的课次内检测，每个课程对保留该周最早一次
func conflictList(snap *snapshot, weekKey string) *dto.ConflictListResponse {
	sessions := snap.sessions
	if weekKey != "" {
		sessions = planner.SessionsInWeek(sessions, weekKey)
	}
	conflicts := planner.GetConflicts(sessions, snap.courses)
	if conflicts == nil {
		conflicts = []planner.Conflict{}
	}
	return &dto.ConflictListResponse{
		Week:      weekKey,
		Total:     len(conflicts),
		Conflicts: conflicts,
	}
}
