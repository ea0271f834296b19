package repository_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"weekend-planner/backend/config"
	"weekend-planner/backend/internal/model"
	"weekend-planner/backend/internal/repository"
	"weekend-planner/backend/pkg/database"
	pkgerrors "weekend-planner/backend/pkg/errors"
)

func newSQLiteRepo(t *testing.T) (*repository.Repository, *gorm.DB) {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "planner.db") + "?_pragma=foreign_keys(1)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Course{}, &model.Session{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return repository.NewRepository(db), db
}

func ptr[T any](v T) *T { return &v }

func seedCourse(t *testing.T, repo *repository.Repository, userID, name string) *model.Course {
	t.Helper()
	c, err := repo.Course.UpsertByName(context.Background(), &model.Course{UserID: ptr(userID), Name: name, Credits: 3})
	require.NoError(t, err)
	return c
}

func seedSession(t *testing.T, repo *repository.Repository, userID, courseID, date, start, end string) *model.Session {
	t.Helper()
	s := &model.Session{UserID: ptr(userID), CourseID: courseID, Date: date, StartTime: start, EndTime: end}
	require.NoError(t, repo.Session.Create(context.Background(), s))
	return s
}

// ── 建表 ──

// 按服务启动的方式打开 SQLite 并迁移：课次外键指向课程，删除课程级联删除课次
func TestSQLiteMigrate_SessionReferencesCourse(t *testing.T) {
	db, err := database.NewDB(&config.DatabaseConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "planner.db"),
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, database.Migrate(db, zap.NewNop(), &model.User{}, &model.Course{}, &model.Session{}))

	var coursesDDL, sessionsDDL string
	require.NoError(t, db.Raw("SELECT sql FROM sqlite_master WHERE type = 'table' AND name = 'courses'").Scan(&coursesDDL).Error)
	require.NoError(t, db.Raw("SELECT sql FROM sqlite_master WHERE type = 'table' AND name = 'sessions'").Scan(&sessionsDDL).Error)
	assert.NotContains(t, coursesDDL, "REFERENCES")
	assert.Contains(t, sessionsDDL, "REFERENCES `courses`(`id`)")

	repo := repository.NewRepository(db)
	ctx := context.Background()
	c := seedCourse(t, repo, "u1", "Statistika")
	seedSession(t, repo, "u1", c.ID, "2024-05-18", "09:00", "10:30")

	// 外键已生效：引用不存在的课程会失败
	err = repo.Session.Create(ctx, &model.Session{UserID: ptr("u1"), CourseID: "missing", Date: "2024-05-18", StartTime: "11:00", EndTime: "12:00"})
	assert.Error(t, err)

	require.NoError(t, db.Where("id = ?", c.ID).Delete(&model.Course{}).Error)
	var left int64
	require.NoError(t, db.Model(&model.Session{}).Count(&left).Error)
	assert.Zero(t, left)
}

// ── 用户 ──

func TestUserRepo_CreateAndGet(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()

	u := &model.User{Email: "anna@example.com", Name: "Anna", PasswordHash: "x"}
	require.NoError(t, repo.User.Create(ctx, u))
	assert.NotEmpty(t, u.UserID)

	got, err := repo.User.GetByEmail(ctx, "anna@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.UserID, got.UserID)

	exists, err := repo.User.EmailExists(ctx, "anna@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.User.EmailExists(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.User.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	err = repo.User.Create(ctx, &model.User{Email: "anna@example.com", Name: "Dup", PasswordHash: "x"})
	assert.True(t, pkgerrors.IsUniqueViolation(err), "期望唯一约束冲突，得到 %v", err)
}

// ── 课程 ──

func TestCourseRepo_UpsertByName(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()

	first, err := repo.Course.UpsertByName(ctx, &model.Course{
		UserID: ptr("u1"), Name: "Statistika", Credits: 5, Color: ptr("#ff0000"), CourseType: ptr(model.CourseTypeMandatory),
	})
	require.NoError(t, err)

	// 再次 upsert：学分更新，未传入的颜色与类型保留
	second, err := repo.Course.UpsertByName(ctx, &model.Course{UserID: ptr("u1"), Name: "Statistika", Credits: 6})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 6.0, second.Credits)
	require.NotNil(t, second.Color)
	assert.Equal(t, "#ff0000", *second.Color)
	assert.Equal(t, model.CourseTypeMandatory, second.TypeOrEmpty())

	// 传入颜色时覆盖
	third, err := repo.Course.UpsertByName(ctx, &model.Course{UserID: ptr("u1"), Name: "Statistika", Credits: 6, Color: ptr("#00ff00")})
	require.NoError(t, err)
	assert.Equal(t, "#00ff00", *third.Color)

	// 其他用户同名课程互不影响
	other, err := repo.Course.UpsertByName(ctx, &model.Course{UserID: ptr("u2"), Name: "Statistika", Credits: 1})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestCourseRepo_ScopedByUser(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()
	c := seedCourse(t, repo, "u1", "Ekonomie")

	_, err := repo.Course.GetByID(ctx, "u2", c.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.Course.SetArchived(ctx, "u2", c.ID, true), gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.Course.Update(ctx, "u2", c.ID, map[string]interface{}{"credits": 1}), gorm.ErrRecordNotFound)
}

func TestCourseRepo_UpdateRenameConflict(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()
	a := seedCourse(t, repo, "u1", "A")
	seedCourse(t, repo, "u1", "B")

	require.NoError(t, repo.Course.Update(ctx, "u1", a.ID, map[string]interface{}{"credits": 4.5, "color": "#123456"}))
	got, err := repo.Course.GetByID(ctx, "u1", a.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.5, got.Credits)

	err = repo.Course.Update(ctx, "u1", a.ID, map[string]interface{}{"name": "B"})
	assert.True(t, pkgerrors.IsUniqueViolation(err), "期望唯一约束冲突，得到 %v", err)
}

func TestCourseRepo_ListWithCountsAndArchive(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()
	a := seedCourse(t, repo, "u1", "A")
	b := seedCourse(t, repo, "u1", "B")
	seedSession(t, repo, "u1", a.ID, "2024-05-17", "09:00", "10:00")
	seedSession(t, repo, "u1", a.ID, "2024-05-18", "09:00", "10:00")

	active, err := repo.Course.List(ctx, "u1", false)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "A", active[0].Name)
	assert.EqualValues(t, 2, active[0].SessionCount)
	assert.EqualValues(t, 0, active[1].SessionCount)

	require.NoError(t, repo.Course.SetArchived(ctx, "u1", b.ID, true))
	active, err = repo.Course.List(ctx, "u1", false)
	require.NoError(t, err)
	assert.Len(t, active, 1)
	archived, err := repo.Course.List(ctx, "u1", true)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, "B", archived[0].Name)
}

func TestCourseRepo_SetColorByName(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()
	seedCourse(t, repo, "u1", "A")

	require.NoError(t, repo.Course.SetColorByName(ctx, "u1", "A", ptr("#abcdef")))
	got, err := repo.Course.GetByName(ctx, "u1", "A")
	require.NoError(t, err)
	assert.Equal(t, "#abcdef", *got.Color)

	assert.ErrorIs(t, repo.Course.SetColorByName(ctx, "u1", "Nope", ptr("#000000")), gorm.ErrRecordNotFound)
}

func TestCourseRepo_Merge(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()
	from := seedCourse(t, repo, "u1", "Stat")
	to := seedCourse(t, repo, "u1", "Statistika")
	seedSession(t, repo, "u1", from.ID, "2024-05-17", "09:00", "10:00")
	seedSession(t, repo, "u1", from.ID, "2024-05-18", "09:00", "10:00")
	seedSession(t, repo, "u1", to.ID, "2024-05-19", "09:00", "10:00")

	moved, err := repo.Course.Merge(ctx, "u1", from.ID, to.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, moved)

	_, err = repo.Course.GetByID(ctx, "u1", from.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	sessions, err := repo.Session.ListActive(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	for _, s := range sessions {
		assert.Equal(t, to.ID, s.CourseID)
	}
}

func TestCourseRepo_MergeOtherUsersCourse(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()
	mine := seedCourse(t, repo, "u1", "A")
	theirs := seedCourse(t, repo, "u2", "B")

	_, err := repo.Course.Merge(ctx, "u1", mine.ID, theirs.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = repo.Course.GetByID(ctx, "u1", mine.ID)
	assert.NoError(t, err)
}

func TestCourseRepo_ReplaceAll(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()
	old := seedCourse(t, repo, "u1", "Old")
	seedSession(t, repo, "u1", old.ID, "2024-05-17", "09:00", "10:00")
	keep := seedCourse(t, repo, "u2", "Other")
	seedSession(t, repo, "u2", keep.ID, "2024-05-17", "09:00", "10:00")

	c := &model.Course{ID: "new-course", UserID: ptr("u1"), Name: "New", Credits: 2}
	s := &model.Session{SessionID: "new-session", UserID: ptr("u1"), CourseID: "new-course", Date: "2024-06-07", StartTime: "10:00", EndTime: "11:00"}
	require.NoError(t, repo.Course.ReplaceAll(ctx, "u1", []*model.Course{c}, []*model.Session{s}))

	courses, err := repo.Course.ListAll(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "New", courses[0].Name)

	sessions, err := repo.Session.ListAll(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.NotNil(t, sessions[0].Course)
	assert.Equal(t, "New", sessions[0].Course.Name)

	// 其他用户数据不受影响
	others, err := repo.Session.ListAll(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, others, 1)
}

func TestCourseRepo_ClaimLegacy(t *testing.T) {
	repo, db := newSQLiteRepo(t)
	ctx := context.Background()
	legacy := &model.Course{Name: "Legacy", Credits: 1}
	require.NoError(t, db.Create(legacy).Error)
	require.NoError(t, db.Create(&model.Session{CourseID: legacy.ID, Date: "2024-05-17", StartTime: "09:00", EndTime: "10:00"}).Error)

	n, err := repo.Course.Count(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	claimed, err := repo.Course.ClaimLegacy(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, claimed)

	sessions, err := repo.Session.ListActive(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.NotNil(t, sessions[0].UserID)
	assert.Equal(t, "u1", *sessions[0].UserID)
}

// ── 课次 ──

func TestSessionRepo_ListActiveSortedAndFiltered(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()
	a := seedCourse(t, repo, "u1", "A")
	b := seedCourse(t, repo, "u1", "B")
	seedSession(t, repo, "u1", a.ID, "2024-05-18", "09:00", "10:00")
	seedSession(t, repo, "u1", a.ID, "2024-05-17", "13:00", "14:00")
	seedSession(t, repo, "u1", a.ID, "2024-05-17", "09:00", "10:00")
	seedSession(t, repo, "u1", b.ID, "2024-05-17", "09:30", "10:30")
	require.NoError(t, repo.Course.SetArchived(ctx, "u1", b.ID, true))

	sessions, err := repo.Session.ListActive(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, "2024-05-17", sessions[0].Date)
	assert.Equal(t, "09:00", sessions[0].StartTime)
	assert.Equal(t, "13:00", sessions[1].StartTime)
	assert.Equal(t, "2024-05-18", sessions[2].Date)

	all, err := repo.Session.ListAll(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestSessionRepo_UpdateDelete(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()
	a := seedCourse(t, repo, "u1", "A")
	s := seedSession(t, repo, "u1", a.ID, "2024-05-17", "09:00", "10:00")

	s.StartTime, s.EndTime = "11:00", "12:30"
	require.NoError(t, repo.Session.Update(ctx, s))
	got, err := repo.Session.GetByID(ctx, "u1", s.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "12:30", got.EndTime)

	assert.ErrorIs(t, repo.Session.Delete(ctx, "u2", s.SessionID), gorm.ErrRecordNotFound)
	require.NoError(t, repo.Session.Delete(ctx, "u1", s.SessionID))
	_, err = repo.Session.GetByID(ctx, "u1", s.SessionID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSessionRepo_BatchCreate(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()
	a := seedCourse(t, repo, "u1", "A")

	batch := []*model.Session{
		{UserID: ptr("u1"), CourseID: a.ID, Date: "2024-05-17", StartTime: "09:00", EndTime: "10:00"},
		{UserID: ptr("u1"), CourseID: a.ID, Date: "2024-05-24", StartTime: "09:00", EndTime: "10:00"},
	}
	require.NoError(t, repo.Session.BatchCreate(ctx, batch))
	assert.NotEqual(t, batch[0].SessionID, batch[1].SessionID)
	require.NoError(t, repo.Session.BatchCreate(ctx, nil))

	sessions, err := repo.Session.ListActive(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}
