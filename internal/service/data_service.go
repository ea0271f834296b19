package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"weekend-planner/backend/config"
	"weekend-planner/backend/internal/dto"
	"weekend-planner/backend/internal/model"
	"weekend-planner/backend/internal/planner"
	"weekend-planner/backend/internal/repository"
)

// ── 导入导出业务错误 ──

var (
	ErrImportInvalid      = errors.New("导入数据无效")
	ErrImportEmpty        = errors.New("导入文件中没有可用数据")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// exportVersion JSON 导出格式版本
const exportVersion = 1

// DataService 导入导出业务接口，全部限定在调用者名下
//
//   - JSON：完整备份，导入时在单个事务内替换调用者全部数据
//   - CSV / ICS：按课程名分组追加，无效行跳过并在结果中说明
//   - XLSX：只读导出，周次 × 周五/周六/周日总览
type DataService interface {
	ExportJSON(ctx context.Context, userID string) (*dto.ExportData, error)
	ImportJSON(ctx context.Context, userID string, data *dto.ExportData) (*dto.ImportResult, error)
	ExportCSV(ctx context.Context, userID string) (*bytes.Buffer, string, error)
	ImportCSV(ctx context.Context, userID string, r io.Reader) (*dto.ImportResult, error)
	ExportXLSX(ctx context.Context, userID string) (*bytes.Buffer, string, error)
	ExportICS(ctx context.Context, userID string) (*bytes.Buffer, string, error)
	ImportICS(ctx context.Context, userID string, r io.Reader) (*dto.ImportResult, error)
}

type dataService struct {
	repo     *repository.Repository
	location *time.Location
	logger   *zap.Logger
	validate *validator.Validate
	now      func() time.Time
}

// NewDataService 创建 DataService 实例
func NewDataService(cfg *config.PlannerConfig, repo *repository.Repository, logger *zap.Logger) DataService {
	return &dataService{
		repo:     repo,
		location: locationOf(cfg),
		logger:   logger,
		validate: validator.New(),
		now:      time.Now,
	}
}

// ═══════════════════════════════════════════════════════════
// JSON
// ═══════════════════════════════════════════════════════════

func (s *dataService) ExportJSON(ctx context.Context, userID string) (*dto.ExportData, error) {
	courses, sessions, err := s.loadAll(ctx, userID)
	if err != nil {
		return nil, err
	}

	data := &dto.ExportData{
		Version:    exportVersion,
		ExportedAt: s.now().UTC().Format(time.RFC3339),
		Courses:    make([]dto.ExportCourse, 0, len(courses)),
		Sessions:   make([]dto.ExportSession, 0, len(sessions)),
	}
	for _, c := range courses {
		data.Courses = append(data.Courses, dto.ExportCourse{
			ID:       c.ID,
			Name:     c.Name,
			Credits:  c.Credits,
			Color:    c.Color,
			Type:     c.CourseType,
			Archived: c.Archived,
		})
	}
	for _, ss := range sessions {
		data.Sessions = append(data.Sessions, dto.ExportSession{
			ID:       ss.SessionID,
			CourseID: ss.CourseID,
			Date:     ss.Date,
			Start:    ss.StartTime,
			End:      ss.EndTime,
		})
	}
	return data, nil
}

// ImportJSON 整体校验通过后才写入；任何一条无效即整体拒绝
func (s *dataService) ImportJSON(ctx context.Context, userID string, data *dto.ExportData) (*dto.ImportResult, error) {
	if err := s.checkExport(data); err != nil {
		return nil, err
	}

	// 重新生成主键，避免与其他用户的记录冲突
	ids := make(map[string]string, len(data.Courses))
	courses := make([]*model.Course, 0, len(data.Courses))
	for _, c := range data.Courses {
		id := uuid.NewString()
		ids[c.ID] = id
		courses = append(courses, &model.Course{
			ID:         id,
			UserID:     &userID,
			Name:       strings.TrimSpace(c.Name),
			Credits:    c.Credits,
			Color:      optional(c.Color),
			CourseType: optional(c.Type),
			Archived:   c.Archived,
		})
	}
	sessions := make([]*model.Session, 0, len(data.Sessions))
	for _, ss := range data.Sessions {
		sessions = append(sessions, &model.Session{
			UserID:    &userID,
			CourseID:  ids[ss.CourseID],
			Date:      ss.Date,
			StartTime: ss.Start,
			EndTime:   ss.End,
		})
	}

	if err := s.repo.Course.ReplaceAll(ctx, userID, courses, sessions); err != nil {
		s.logger.Error("导入 JSON 失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("JSON 导入完成",
		zap.String("user_id", userID),
		zap.Int("courses", len(courses)),
		zap.Int("sessions", len(sessions)))
	return &dto.ImportResult{Courses: len(courses), Sessions: len(sessions)}, nil
}

func (s *dataService) checkExport(data *dto.ExportData) error {
	if data == nil {
		return fmt.Errorf("%w: 内容为空", ErrImportInvalid)
	}
	if data.Version != 0 && data.Version != exportVersion {
		return fmt.Errorf("%w: 不支持的版本 %d", ErrImportInvalid, data.Version)
	}

	ids := make(map[string]bool, len(data.Courses))
	names := make(map[string]bool, len(data.Courses))
	for i, c := range data.Courses {
		name := strings.TrimSpace(c.Name)
		switch {
		case c.ID == "":
			return fmt.Errorf("%w: 第 %d 门课程缺少 id", ErrImportInvalid, i+1)
		case ids[c.ID]:
			return fmt.Errorf("%w: 课程 id %q 重复", ErrImportInvalid, c.ID)
		case name == "":
			return fmt.Errorf("%w: 第 %d 门课程缺少名称", ErrImportInvalid, i+1)
		case names[name]:
			return fmt.Errorf("%w: 课程名称 %q 重复", ErrImportInvalid, name)
		case c.Credits < 0:
			return fmt.Errorf("%w: 课程 %q 学分为负数", ErrImportInvalid, name)
		}
		if color := optional(c.Color); color != nil && s.validate.Var(*color, "hexcolor") != nil {
			return fmt.Errorf("%w: 课程 %q 颜色 %q 无效", ErrImportInvalid, name, *color)
		}
		if t := optional(c.Type); t != nil && *t != model.CourseTypeMandatory && *t != model.CourseTypeMO {
			return fmt.Errorf("%w: 课程 %q 类型 %q 无效", ErrImportInvalid, name, *t)
		}
		ids[c.ID] = true
		names[name] = true
	}

	for i, ss := range data.Sessions {
		if !ids[ss.CourseID] {
			return fmt.Errorf("%w: 第 %d 个课次引用了不存在的课程 %q", ErrImportInvalid, i+1, ss.CourseID)
		}
		if _, err := planner.ParseDate(ss.Date); err != nil {
			return fmt.Errorf("%w: 第 %d 个课次日期 %q 无效", ErrImportInvalid, i+1, ss.Date)
		}
		if err := planner.ValidTimeRange(ss.Start, ss.End); err != nil {
			return fmt.Errorf("%w: 第 %d 个课次时间 %s-%s 无效", ErrImportInvalid, i+1, ss.Start, ss.End)
		}
	}
	return nil
}

// ═══════════════════════════════════════════════════════════
// 共用
// ═══════════════════════════════════════════════════════════

// loadAll 调用者全部课程与课次（含已归档）
func (s *dataService) loadAll(ctx context.Context, userID string) ([]model.Course, []model.Session, error) {
	courses, err := s.repo.Course.ListAll(ctx, userID)
	if err != nil {
		s.logger.Error("查询课程失败", zap.Error(err))
		return nil, nil, err
	}
	sessions, err := s.repo.Session.ListAll(ctx, userID)
	if err != nil {
		s.logger.Error("查询课次失败", zap.Error(err))
		return nil, nil, err
	}
	return courses, sessions, nil
}

// importGroup 同一课程名下待追加的课次
type importGroup struct {
	name    string
	credits float64
	color   *string
	slots   []dto.SessionSlot
}

// groupCollector 按首次出现顺序聚合课程
type groupCollector struct {
	order  []string
	groups map[string]*importGroup
}

func newGroupCollector() *groupCollector {
	return &groupCollector{groups: make(map[string]*importGroup)}
}

// add 学分取最后一个非零值，颜色取最后一个非空值
func (g *groupCollector) add(name string, credits float64, color string, slot dto.SessionSlot) {
	grp, ok := g.groups[name]
	if !ok {
		grp = &importGroup{name: name}
		g.groups[name] = grp
		g.order = append(g.order, name)
	}
	if credits > 0 {
		grp.credits = credits
	}
	if color != "" {
		grp.color = strPtr(color)
	}
	grp.slots = append(grp.slots, slot)
}

// save 逐组 upsert 课程并追加课次。
// 组内未给出学分时沿用已有课程的学分，避免导入把学分清零。
func (s *dataService) save(ctx context.Context, userID string, g *groupCollector, result *dto.ImportResult) error {
	for _, name := range g.order {
		grp := g.groups[name]
		credits := grp.credits
		if credits == 0 {
			if existing, err := s.repo.Course.GetByName(ctx, userID, name); err == nil {
				credits = existing.Credits
			}
		}
		_, sessions, err := createSessionsForCourse(ctx, s.repo, &model.Course{
			UserID:  &userID,
			Name:    name,
			Credits: credits,
			Color:   grp.color,
		}, grp.slots)
		if err != nil {
			s.logger.Error("导入课程失败", zap.String("name", name), zap.Error(err))
			return err
		}
		result.Courses++
		result.Sessions += len(sessions)
	}
	return nil
}

func exportFilename(now time.Time, ext string) string {
	return fmt.Sprintf("weekend-planner-%s.%s", now.Format("2006-01-02"), ext)
}
