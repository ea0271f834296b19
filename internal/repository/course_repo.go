package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"weekend-planner/backend/internal/model"
)

// CourseRepository 课程数据访问接口，所有查询均限定在 userID 名下
type CourseRepository interface {
	// UpsertByName 按 (user_id, name) 插入或更新：已存在时更新学分，颜色与类型仅在传入时覆盖
	UpsertByName(ctx context.Context, course *model.Course) (*model.Course, error)
	GetByID(ctx context.Context, userID, id string) (*model.Course, error)
	GetByName(ctx context.Context, userID, name string) (*model.Course, error)
	Update(ctx context.Context, userID, id string, fields map[string]interface{}) error
	List(ctx context.Context, userID string, archived bool) ([]model.CourseWithCount, error)
	ListAll(ctx context.Context, userID string) ([]model.Course, error)
	SetArchived(ctx context.Context, userID, id string, archived bool) error
	SetColorByName(ctx context.Context, userID, name string, color *string) error
	Count(ctx context.Context, userID string) (int64, error)
	// Merge 将 fromID 的全部课次移到 toID 名下并删除 fromID，返回移动的课次数
	Merge(ctx context.Context, userID, fromID, toID string) (int64, error)
	// ReplaceAll 清空用户全部课程与课次后写入新数据
	ReplaceAll(ctx context.Context, userID string, courses []*model.Course, sessions []*model.Session) error
	// ClaimLegacy 将 user_id 为空的历史课程与课次归属给 userID
	ClaimLegacy(ctx context.Context, userID string) (int64, error)
}

// courseRepo CourseRepository 的 GORM 实现
type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo 创建 CourseRepository 实例
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) UpsertByName(ctx context.Context, course *model.Course) (*model.Course, error) {
	if course.UserID == nil {
		return nil, errors.New("upsert 课程缺少 user_id")
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "name"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"credits":     gorm.Expr("excluded.credits"),
			"color":       gorm.Expr("COALESCE(excluded.color, courses.color)"),
			"course_type": gorm.Expr("COALESCE(excluded.course_type, courses.course_type)"),
			"updated_at":  gorm.Expr("excluded.updated_at"),
		}),
	}).Create(course).Error
	if err != nil {
		return nil, err
	}
	// 冲突更新时主键仍为已有记录，回读获取真实 ID
	return r.GetByName(ctx, *course.UserID, course.Name)
}

func (r *courseRepo) GetByID(ctx context.Context, userID, id string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) GetByName(ctx context.Context, userID, name string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND name = ?", userID, name).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) Update(ctx context.Context, userID, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		_, err := r.GetByID(ctx, userID, id)
		return err
	}
	res := r.db.WithContext(ctx).Model(&model.Course{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *courseRepo) List(ctx context.Context, userID string, archived bool) ([]model.CourseWithCount, error) {
	var rows []model.CourseWithCount
	err := r.db.WithContext(ctx).
		Table("courses").
		Select("courses.*, COUNT(sessions.id) AS session_count").
		Joins("LEFT JOIN sessions ON sessions.course_id = courses.id").
		Where("courses.user_id = ? AND courses.archived = ?", userID, archived).
		Group("courses.id").
		Order("courses.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *courseRepo) ListAll(ctx context.Context, userID string) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name ASC").
		Find(&courses).Error
	if err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepo) SetArchived(ctx context.Context, userID, id string, archived bool) error {
	res := r.db.WithContext(ctx).Model(&model.Course{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("archived", archived)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *courseRepo) SetColorByName(ctx context.Context, userID, name string, color *string) error {
	res := r.db.WithContext(ctx).Model(&model.Course{}).
		Where("user_id = ? AND name = ?", userID, name).
		Update("color", color)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *courseRepo) Count(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Course{}).
		Where("user_id = ?", userID).
		Count(&n).Error
	return n, err
}

func (r *courseRepo) Merge(ctx context.Context, userID, fromID, toID string) (int64, error) {
	var moved int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.Course{}).
			Where("id IN ? AND user_id = ?", []string{fromID, toID}, userID).
			Count(&n).Error; err != nil {
			return err
		}
		if n != 2 {
			return gorm.ErrRecordNotFound
		}

		res := tx.Model(&model.Session{}).
			Where("course_id = ?", fromID).
			Update("course_id", toID)
		if res.Error != nil {
			return res.Error
		}
		moved = res.RowsAffected

		return tx.Where("id = ? AND user_id = ?", fromID, userID).Delete(&model.Course{}).Error
	})
	return moved, err
}

func (r *courseRepo) ReplaceAll(ctx context.Context, userID string, courses []*model.Course, sessions []*model.Session) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// ── 清空 ──
		if err := tx.Where("course_id IN (?)",
			tx.Model(&model.Course{}).Select("id").Where("user_id = ?", userID),
		).Delete(&model.Session{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&model.Course{}).Error; err != nil {
			return err
		}

		// ── 写入 ──
		if len(courses) > 0 {
			if err := tx.CreateInBatches(courses, 200).Error; err != nil {
				return err
			}
		}
		if len(sessions) > 0 {
			if err := tx.CreateInBatches(sessions, 200).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *courseRepo) ClaimLegacy(ctx context.Context, userID string) (int64, error) {
	var claimed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Course{}).
			Where("user_id IS NULL").
			Update("user_id", userID)
		if res.Error != nil {
			return res.Error
		}
		claimed = res.RowsAffected

		return tx.Model(&model.Session{}).
			Where("user_id IS NULL").
			Update("user_id", userID).Error
	})
	return claimed, err
}
