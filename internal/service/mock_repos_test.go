package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"weekend-planner/backend/internal/model"
	"weekend-planner/backend/internal/repository"
)

// ── 内存存储 ──
// 三个 mock 仓库共享同一份数据，以便合并、列表计数等跨表操作

type memStore struct {
	users    map[string]*model.User
	courses  map[string]*model.Course
	sessions map[string]*model.Session
	seq      int
	failWith error // 非 nil 时所有读写直接返回该错误
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[string]*model.User),
		courses:  make(map[string]*model.Course),
		sessions: make(map[string]*model.Session),
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func newTestRepo(store *memStore) *repository.Repository {
	return &repository.Repository{
		User:    &mockUserRepo{store},
		Course:  &mockCourseRepo{store},
		Session: &mockSessionRepo{store},
	}
}

var errUniqueViolation = errors.New("UNIQUE constraint failed")

func ownedBy(userID *string, id string) bool {
	return userID != nil && *userID == id
}

// ── Mock UserRepository ──

type mockUserRepo struct{ *memStore }

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if m.failWith != nil {
		return m.failWith
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return fmt.Errorf("%w: users.email", errUniqueViolation)
		}
	}
	if user.UserID == "" {
		user.UserID = m.nextID("user")
	}
	user.CreatedAt = time.Now()
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

// ── Mock CourseRepository ──

type mockCourseRepo struct{ *memStore }

func (m *mockCourseRepo) UpsertByName(ctx context.Context, course *model.Course) (*model.Course, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	if course.UserID == nil {
		return nil, errors.New("missing user_id")
	}
	if existing, err := m.GetByName(ctx, *course.UserID, course.Name); err == nil {
		existing.Credits = course.Credits
		if course.Color != nil {
			existing.Color = course.Color
		}
		if course.CourseType != nil {
			existing.CourseType = course.CourseType
		}
		return existing, nil
	}
	if course.ID == "" {
		course.ID = m.nextID("course")
	}
	m.courses[course.ID] = course
	return course, nil
}

func (m *mockCourseRepo) GetByID(_ context.Context, userID, id string) (*model.Course, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	if c, ok := m.courses[id]; ok && ownedBy(c.UserID, userID) {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) GetByName(_ context.Context, userID, name string) (*model.Course, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, c := range m.courses {
		if ownedBy(c.UserID, userID) && c.Name == name {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) Update(ctx context.Context, userID, id string, fields map[string]interface{}) error {
	c, err := m.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}
	if name, ok := fields["name"].(string); ok {
		if other, err := m.GetByName(ctx, userID, name); err == nil && other.ID != id {
			return fmt.Errorf("%w: courses.user_id, courses.name", errUniqueViolation)
		}
		c.Name = name
	}
	if credits, ok := fields["credits"].(float64); ok {
		c.Credits = credits
	}
	if v, ok := fields["color"]; ok {
		c.Color, _ = v.(*string)
	}
	if v, ok := fields["course_type"]; ok {
		c.CourseType, _ = v.(*string)
	}
	return nil
}

func (m *mockCourseRepo) List(_ context.Context, userID string, archived bool) ([]model.CourseWithCount, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	var result []model.CourseWithCount
	for _, c := range m.courses {
		if !ownedBy(c.UserID, userID) || c.Archived != archived {
			continue
		}
		row := model.CourseWithCount{Course: *c}
		for _, s := range m.sessions {
			if s.CourseID == c.ID {
				row.SessionCount++
			}
		}
		result = append(result, row)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockCourseRepo) ListAll(_ context.Context, userID string) ([]model.Course, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	var result []model.Course
	for _, c := range m.courses {
		if ownedBy(c.UserID, userID) {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockCourseRepo) SetArchived(ctx context.Context, userID, id string, archived bool) error {
	c, err := m.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}
	c.Archived = archived
	return nil
}

func (m *mockCourseRepo) SetColorByName(ctx context.Context, userID, name string, color *string) error {
	c, err := m.GetByName(ctx, userID, name)
	if err != nil {
		return err
	}
	c.Color = color
	return nil
}

func (m *mockCourseRepo) Count(_ context.Context, userID string) (int64, error) {
	if m.failWith != nil {
		return 0, m.failWith
	}
	var n int64
	for _, c := range m.courses {
		if ownedBy(c.UserID, userID) {
			n++
		}
	}
	return n, nil
}

func (m *mockCourseRepo) Merge(ctx context.Context, userID, fromID, toID string) (int64, error) {
	if _, err := m.GetByID(ctx, userID, fromID); err != nil {
		return 0, err
	}
	if _, err := m.GetByID(ctx, userID, toID); err != nil {
		return 0, err
	}
	var moved int64
	for _, s := range m.sessions {
		if s.CourseID == fromID {
			s.CourseID = toID
			moved++
		}
	}
	delete(m.courses, fromID)
	return moved, nil
}

func (m *mockCourseRepo) ReplaceAll(_ context.Context, userID string, courses []*model.Course, sessions []*model.Session) error {
	if m.failWith != nil {
		return m.failWith
	}
	for id, c := range m.courses {
		if ownedBy(c.UserID, userID) {
			delete(m.courses, id)
			for sid, s := range m.sessions {
				if s.CourseID == id {
					delete(m.sessions, sid)
				}
			}
		}
	}
	for _, c := range courses {
		m.courses[c.ID] = c
	}
	for _, s := range sessions {
		if s.SessionID == "" {
			s.SessionID = m.nextID("session")
		}
		m.sessions[s.SessionID] = s
	}
	return nil
}

func (m *mockCourseRepo) ClaimLegacy(_ context.Context, userID string) (int64, error) {
	if m.failWith != nil {
		return 0, m.failWith
	}
	var n int64
	for _, c := range m.courses {
		if c.UserID == nil {
			c.UserID = &userID
			n++
		}
	}
	for _, s := range m.sessions {
		if s.UserID == nil {
			s.UserID = &userID
		}
	}
	return n, nil
}

// ── Mock SessionRepository ──

type mockSessionRepo struct{ *memStore }

func (m *mockSessionRepo) Create(_ context.Context, session *model.Session) error {
	if m.failWith != nil {
		return m.failWith
	}
	if session.SessionID == "" {
		session.SessionID = m.nextID("session")
	}
	m.sessions[session.SessionID] = session
	return nil
}

func (m *mockSessionRepo) BatchCreate(ctx context.Context, sessions []*model.Session) error {
	for _, s := range sessions {
		if err := m.Create(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockSessionRepo) GetByID(_ context.Context, userID, id string) (*model.Session, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	if s, ok := m.sessions[id]; ok && ownedBy(s.UserID, userID) {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSessionRepo) Update(ctx context.Context, session *model.Session) error {
	if _, err := m.GetByID(ctx, *session.UserID, session.SessionID); err != nil {
		return err
	}
	m.sessions[session.SessionID] = session
	return nil
}

func (m *mockSessionRepo) Delete(ctx context.Context, userID, id string) error {
	if _, err := m.GetByID(ctx, userID, id); err != nil {
		return err
	}
	delete(m.sessions, id)
	return nil
}

func (m *mockSessionRepo) list(userID string, includeArchived bool) []model.Session {
	var result []model.Session
	for _, s := range m.sessions {
		c, ok := m.courses[s.CourseID]
		if !ok || !ownedBy(c.UserID, userID) || (c.Archived && !includeArchived) {
			continue
		}
		row := *s
		if includeArchived {
			row.Course = c
		}
		result = append(result, row)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date < result[j].Date
		}
		return result[i].StartTime < result[j].StartTime
	})
	return result
}

func (m *mockSessionRepo) ListActive(_ context.Context, userID string) ([]model.Session, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	return m.list(userID, false), nil
}

func (m *mockSessionRepo) ListAll(_ context.Context, userID string) ([]model.Session, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	return m.list(userID, true), nil
}

// ── Mock TokenBlacklist ──

type mockBlacklist struct {
	tokens map[string]time.Duration
	err    error
}

func newMockBlacklist() *mockBlacklist {
	return &mockBlacklist{tokens: make(map[string]time.Duration)}
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.tokens[jti] = ttl
	return nil
}

func (m *mockBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.tokens[jti]
	return ok, nil
}

// ── 种子数据 ──

func seedCourse(store *memStore, userID, name string, credits float64) *model.Course {
	c := &model.Course{ID: store.nextID("course"), UserID: &userID, Name: name, Credits: credits}
	store.courses[c.ID] = c
	return c
}

func seedSession(store *memStore, course *model.Course, date, start, end string) *model.Session {
	s := &model.Session{
		SessionID: store.nextID("session"),
		UserID:    course.UserID,
		CourseID:  course.ID,
		Date:      date,
		StartTime: start,
		EndTime:   end,
	}
	store.sessions[s.SessionID] = s
	return s
}
