package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"weekend-planner/backend/config"
	"weekend-planner/backend/internal/dto"
	"weekend-planner/backend/internal/model"
	"weekend-planner/backend/internal/planner"
	"weekend-planner/backend/internal/repository"
)

// ── 课次模块业务错误 ──

var (
	ErrSessionNotFound  = errors.New("课次不存在")
	ErrInvalidDate      = errors.New("日期格式必须为 YYYY-MM-DD")
	ErrInvalidTimeRange = errors.New("时间格式必须为 HH:MM 且结束时间晚于开始时间")
	ErrOutsideWindow    = errors.New("课次超出可排课时间范围")
)

// SessionService 课次业务接口
type SessionService interface {
	// Save id 为空时新建，否则修改；课程按名称 upsert
	Save(ctx context.Context, userID, id string, req *dto.SaveSessionRequest) (*dto.SessionResponse, error)
	BulkCreate(ctx context.Context, userID string, req *dto.BulkCreateSessionsRequest) (*dto.BulkCreateResponse, error)
	Delete(ctx context.Context, userID, id string) error
	// List week 为任意日期时只返回其所属周末的课次
	List(ctx context.Context, userID, week string) ([]dto.SessionResponse, error)
}

type sessionService struct {
	repo   *repository.Repository
	window planner.Window
	logger *zap.Logger
}

// NewSessionService 创建 SessionService 实例
func NewSessionService(cfg *config.PlannerConfig, repo *repository.Repository, logger *zap.Logger) SessionService {
	return &sessionService{repo: repo, window: windowOf(cfg), logger: logger}
}

func (s *sessionService) Save(ctx context.Context, userID, id string, req *dto.SaveSessionRequest) (*dto.SessionResponse, error) {
	name := strings.TrimSpace(req.CourseName)
	if name == "" {
		return nil, ErrCourseNameEmpty
	}
	if err := checkSlot(req.Date, req.Start, req.End, s.window); err != nil {
		return nil, err
	}

	// 修改时先确认课次归属，避免为不存在的课次创建课程
	var session *model.Session
	if id != "" {
		existing, err := s.repo.Session.GetByID(ctx, userID, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrSessionNotFound
			}
			s.logger.Error("查询课次失败", zap.String("session_id", id), zap.Error(err))
			return nil, err
		}
		session = existing
	}

	course, err := s.repo.Course.UpsertByName(ctx, &model.Course{
		UserID:  &userID,
		Name:    name,
		Credits: req.Credits,
		Color:   optional(req.Color),
	})
	if err != nil {
		s.logger.Error("保存课程失败", zap.String("name", name), zap.Error(err))
		return nil, err
	}

	if session == nil {
		session = &model.Session{UserID: &userID}
	}
	session.CourseID = course.ID
	session.Date = req.Date
	session.StartTime = req.Start
	session.EndTime = req.End

	if id == "" {
		err = s.repo.Session.Create(ctx, session)
	} else {
		err = s.repo.Session.Update(ctx, session)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("保存课次失败", zap.String("session_id", id), zap.Error(err))
		return nil, err
	}

	resp := toSessionResponse(session, course.Name)
	return &resp, nil
}

func (s *sessionService) BulkCreate(ctx context.Context, userID string, req *dto.BulkCreateSessionsRequest) (*dto.BulkCreateResponse, error) {
	name := strings.TrimSpace(req.CourseName)
	if name == "" {
		return nil, ErrCourseNameEmpty
	}
	for _, slot := range req.Sessions {
		if err := checkSlot(slot.Date, slot.Start, slot.End, s.window); err != nil {
			return nil, err
		}
	}

	course, sessions, err := createSessionsForCourse(ctx, s.repo, &model.Course{
		UserID:     &userID,
		Name:       name,
		Credits:    req.Credits,
		Color:      optional(req.Color),
		CourseType: optional(req.Type),
	}, req.Sessions)
	if err != nil {
		s.logger.Error("批量创建课次失败", zap.String("name", name), zap.Error(err))
		return nil, err
	}

	resp := &dto.BulkCreateResponse{
		Course:   toCourseResponse(course, int64(len(sessions))),
		Sessions: make([]dto.SessionResponse, 0, len(sessions)),
	}
	for _, ss := range sessions {
		resp.Sessions = append(resp.Sessions, toSessionResponse(ss, course.Name))
	}
	return resp, nil
}

func (s *sessionService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Session.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		s.logger.Error("删除课次失败", zap.String("session_id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *sessionService) List(ctx context.Context, userID, week string) ([]dto.SessionResponse, error) {
	weekKey := ""
	if week != "" {
		key, err := planner.WeekKeyForDate(week)
		if err != nil {
			return nil, ErrInvalidDate
		}
		weekKey = key
	}

	sessions, err := s.repo.Session.ListActive(ctx, userID)
	if err != nil {
		s.logger.Error("查询课次失败", zap.Error(err))
		return nil, err
	}
	courses, err := s.repo.Course.ListAll(ctx, userID)
	if err != nil {
		s.logger.Error("查询课程失败", zap.Error(err))
		return nil, err
	}
	names := make(map[string]string, len(courses))
	for _, c := range courses {
		names[c.ID] = c.Name
	}

	result := make([]dto.SessionResponse, 0, len(sessions))
	for i := range sessions {
		resp := toSessionResponse(&sessions[i], names[sessions[i].CourseID])
		if weekKey != "" && resp.WeekKey != weekKey {
			continue
		}
		result = append(result, resp)
	}
	return result, nil
}

// ── 辅助函数 ──

// checkSlot 边界校验：日期合法、HH:MM 合法、结束晚于开始、落在可排课范围内
func checkSlot(date, start, end string, w planner.Window) error {
	if _, err := planner.ParseDate(date); err != nil {
		return ErrInvalidDate
	}
	if err := planner.ValidTimeRange(start, end); err != nil {
		return ErrInvalidTimeRange
	}
	a, _ := planner.TimeToMinutes(start)
	b, _ := planner.TimeToMinutes(end)
	if !w.Contains(a, b) {
		return ErrOutsideWindow
	}
	return nil
}

// createSessionsForCourse upsert 课程后为其追加课次（不替换已有课次）
func createSessionsForCourse(
	ctx context.Context,
	repo *repository.Repository,
	course *model.Course,
	slots []dto.SessionSlot,
) (*model.Course, []*model.Session, error) {
	saved, err := repo.Course.UpsertByName(ctx, course)
	if err != nil {
		return nil, nil, err
	}

	sessions := make([]*model.Session, 0, len(slots))
	for _, slot := range slots {
		sessions = append(sessions, &model.Session{
			UserID:    course.UserID,
			CourseID:  saved.ID,
			Date:      slot.Date,
			StartTime: slot.Start,
			EndTime:   slot.End,
		})
	}
	if err := repo.Session.BatchCreate(ctx, sessions); err != nil {
		return nil, nil, err
	}
	return saved, sessions, nil
}
