package repository

import (
	"context"

	"gorm.io/gorm"

	"weekend-planner/backend/internal/model"
)

// SessionRepository 课次数据访问接口
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	BatchCreate(ctx context.Context, sessions []*model.Session) error
	GetByID(ctx context.Context, userID, id string) (*model.Session, error)
	Update(ctx context.Context, session *model.Session) error
	Delete(ctx context.Context, userID, id string) error
	// ListActive 未归档课程的全部课次，按 (日期, 开始时间) 升序
	ListActive(ctx context.Context, userID string) ([]model.Session, error)
	// ListAll 含已归档课程的全部课次（导出用），预加载课程
	ListAll(ctx context.Context, userID string) ([]model.Session, error)
}

// sessionRepo SessionRepository 的 GORM 实现
type sessionRepo struct {
	db *gorm.DB
}

// NewSessionRepo 创建 SessionRepository 实例
func NewSessionRepo(db *gorm.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) Create(ctx context.Context, session *model.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepo) BatchCreate(ctx context.Context, sessions []*model.Session) error {
	if len(sessions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(sessions, 200).Error
}

func (r *sessionRepo) GetByID(ctx context.Context, userID, id string) (*model.Session, error) {
	var session model.Session
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) Update(ctx context.Context, session *model.Session) error {
	res := r.db.WithContext(ctx).Model(&model.Session{}).
		Where("id = ? AND user_id = ?", session.SessionID, session.UserID).
		Updates(map[string]interface{}{
			"course_id":    session.CourseID,
			"session_date": session.Date,
			"start_time":   session.StartTime,
			"end_time":     session.EndTime,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *sessionRepo) Delete(ctx context.Context, userID, id string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.Session{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *sessionRepo) ListActive(ctx context.Context, userID string) ([]model.Session, error) {
	var sessions []model.Session
	err := r.db.WithContext(ctx).
		Joins("JOIN courses ON courses.id = sessions.course_id").
		Where("courses.user_id = ? AND courses.archived = ?", userID, false).
		Order("sessions.session_date ASC, sessions.start_time ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepo) ListAll(ctx context.Context, userID string) ([]model.Session, error) {
	var sessions []model.Session
	err := r.db.WithContext(ctx).
		Preload("Course").
		Joins("JOIN courses ON courses.id = sessions.course_id").
		Where("courses.user_id = ?", userID).
		Order("sessions.session_date ASC, sessions.start_time ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}
