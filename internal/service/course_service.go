package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"weekend-planner/backend/internal/dto"
	"weekend-planner/backend/internal/model"
	"weekend-planner/backend/internal/planner"
	"weekend-planner/backend/internal/repository"
	pkgerrors "weekend-planner/backend/pkg/errors"
)

// ── 课程模块业务错误 ──

var (
	ErrCourseNotFound  = errors.New("课程不存在")
	ErrCourseNameTaken = errors.New("课程名称已存在")
	ErrCourseNameEmpty = errors.New("课程名称不能为空")
	ErrMergeSameCourse = errors.New("不能将课程合并到自身")
)

// CourseService 课程业务接口
type CourseService interface {
	// Create 按名称 upsert：同名课程更新学分，颜色与类型仅在传入时覆盖
	Create(ctx context.Context, userID string, req *dto.CreateCourseRequest) (*dto.CourseResponse, error)
	Update(ctx context.Context, userID, id string, req *dto.UpdateCourseRequest) (*dto.CourseResponse, error)
	SetColorByName(ctx context.Context, userID string, req *dto.SetColorRequest) error
	SetArchived(ctx context.Context, userID, id string, archived bool) error
	Merge(ctx context.Context, userID string, req *dto.MergeCoursesRequest) (*dto.MergeResponse, error)
	List(ctx context.Context, userID string, archived bool) ([]dto.CourseResponse, error)
	Credits(ctx context.Context, userID string) (*planner.Credits, error)
}

type courseService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCourseService 创建 CourseService 实例
func NewCourseService(repo *repository.Repository, logger *zap.Logger) CourseService {
	return &courseService{repo: repo, logger: logger}
}

func (s *courseService) Create(ctx context.Context, userID string, req *dto.CreateCourseRequest) (*dto.CourseResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrCourseNameEmpty
	}
	course, err := s.repo.Course.UpsertByName(ctx, &model.Course{
		UserID:     &userID,
		Name:       name,
		Credits:    req.Credits,
		Color:      optional(req.Color),
		CourseType: optional(req.Type),
	})
	if err != nil {
		s.logger.Error("保存课程失败", zap.String("name", name), zap.Error(err))
		return nil, err
	}
	resp := toCourseResponse(course, 0)
	return &resp, nil
}

func (s *courseService) Update(ctx context.Context, userID, id string, req *dto.UpdateCourseRequest) (*dto.CourseResponse, error) {
	fields := make(map[string]interface{})
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrCourseNameEmpty
		}
		fields["name"] = name
	}
	if req.Credits != nil {
		fields["credits"] = *req.Credits
	}
	// 空串表示清除
	if req.Color != nil {
		fields["color"] = optional(req.Color)
	}
	if req.Type != nil {
		fields["course_type"] = optional(req.Type)
	}

	if err := s.repo.Course.Update(ctx, userID, id, fields); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrCourseNotFound
		case pkgerrors.IsUniqueViolation(err):
			return nil, ErrCourseNameTaken
		}
		s.logger.Error("更新课程失败", zap.String("course_id", id), zap.Error(err))
		return nil, err
	}

	course, err := s.repo.Course.GetByID(ctx, userID, id)
	if err != nil {
		s.logger.Error("查询课程失败", zap.String("course_id", id), zap.Error(err))
		return nil, err
	}
	resp := toCourseResponse(course, 0)
	return &resp, nil
}

func (s *courseService) SetColorByName(ctx context.Context, userID string, req *dto.SetColorRequest) error {
	err := s.repo.Course.SetColorByName(ctx, userID, strings.TrimSpace(req.Name), optional(&req.Color))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		s.logger.Error("设置课程颜色失败", zap.String("name", req.Name), zap.Error(err))
		return err
	}
	return nil
}

func (s *courseService) SetArchived(ctx context.Context, userID, id string, archived bool) error {
	if err := s.repo.Course.SetArchived(ctx, userID, id, archived); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		s.logger.Error("更新归档状态失败", zap.String("course_id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *courseService) Merge(ctx context.Context, userID string, req *dto.MergeCoursesRequest) (*dto.MergeResponse, error) {
	if req.FromID == req.ToID {
		return nil, ErrMergeSameCourse
	}

	moved, err := s.repo.Course.Merge(ctx, userID, req.FromID, req.ToID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("合并课程失败",
			zap.String("from", req.FromID), zap.String("to", req.ToID), zap.Error(err))
		return nil, err
	}

	target, err := s.repo.Course.GetByID(ctx, userID, req.ToID)
	if err != nil {
		s.logger.Error("查询合并目标失败", zap.String("course_id", req.ToID), zap.Error(err))
		return nil, err
	}
	return &dto.MergeResponse{
		Target:        toCourseResponse(target, 0),
		MovedSessions: moved,
	}, nil
}

func (s *courseService) List(ctx context.Context, userID string, archived bool) ([]dto.CourseResponse, error) {
	rows, err := s.repo.Course.List(ctx, userID, archived)
	if err != nil {
		s.logger.Error("查询课程列表失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.CourseResponse, 0, len(rows))
	for i := range rows {
		result = append(result, toCourseResponse(&rows[i].Course, rows[i].SessionCount))
	}
	return result, nil
}

func (s *courseService) Credits(ctx context.Context, userID string) (*planner.Credits, error) {
	courses, err := s.repo.Course.ListAll(ctx, userID)
	if err != nil {
		s.logger.Error("查询课程失败", zap.Error(err))
		return nil, err
	}
	views := make([]planner.Course, 0, len(courses))
	for i := range courses {
		views = append(views, toPlannerCourse(&courses[i]))
	}
	credits := planner.CreditSummary(views)
	return &credits, nil
}
