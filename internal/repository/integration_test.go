//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"weekend-planner/backend/internal/model"
	"weekend-planner/backend/internal/repository"
	"weekend-planner/backend/pkg/database"
	pkgerrors "weekend-planner/backend/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=planner password=planner dbname=planner_test sslmode=disable TimeZone=Europe/Prague"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 使用与生产一致的 SQL 迁移建表
	if err := database.Migrate(testDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "迁移失败: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

// setupUser 创建测试用户并返回清理函数（级联删除其课程与课次）
func setupUser(t *testing.T) (*model.User, func()) {
	t.Helper()
	u := &model.User{
		Email:        fmt.Sprintf("test%d@example.com", time.Now().UnixNano()),
		Name:         "测试用户",
		PasswordHash: "$2a$10$placeholder",
	}
	if err := testDB.Create(u).Error; err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}
	return u, func() {
		testDB.Where("id = ?", u.UserID).Delete(&model.User{})
	}
}

// ═══════════════════════════════════════════════════════════
// Tests
// ═══════════════════════════════════════════════════════════

func TestPostgres_UpsertKeepsColor(t *testing.T) {
	u, cleanup := setupUser(t)
	defer cleanup()
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	color := "#ff0000"
	first, err := repo.Course.UpsertByName(ctx, &model.Course{UserID: &u.UserID, Name: "Statistika", Credits: 5, Color: &color})
	if err != nil {
		t.Fatalf("UpsertByName 失败: %v", err)
	}
	second, err := repo.Course.UpsertByName(ctx, &model.Course{UserID: &u.UserID, Name: "Statistika", Credits: 6})
	if err != nil {
		t.Fatalf("UpsertByName 失败: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("期望同一课程，得到 %s / %s", first.ID, second.ID)
	}
	if second.Credits != 6 || second.Color == nil || *second.Color != color {
		t.Errorf("upsert 结果不符合预期: %+v", second)
	}
}

func TestPostgres_RenameUniqueViolation(t *testing.T) {
	u, cleanup := setupUser(t)
	defer cleanup()
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	a, _ := repo.Course.UpsertByName(ctx, &model.Course{UserID: &u.UserID, Name: "A"})
	_, _ = repo.Course.UpsertByName(ctx, &model.Course{UserID: &u.UserID, Name: "B"})

	err := repo.Course.Update(ctx, u.UserID, a.ID, map[string]interface{}{"name": "B"})
	if !pkgerrors.IsUniqueViolation(err) {
		t.Fatalf("期望唯一约束冲突 (23505)，得到 %v", err)
	}
}

func TestPostgres_EndAfterStartCheck(t *testing.T) {
	u, cleanup := setupUser(t)
	defer cleanup()
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	c, _ := repo.Course.UpsertByName(ctx, &model.Course{UserID: &u.UserID, Name: "A"})
	err := repo.Session.Create(ctx, &model.Session{
		UserID: &u.UserID, CourseID: c.ID, Date: "2024-05-17", StartTime: "10:00", EndTime: "09:00",
	})
	if err == nil {
		t.Fatal("期望 CHECK (end_time > start_time) 拒绝写入")
	}
}

func TestPostgres_MergeTransaction(t *testing.T) {
	u, cleanup := setupUser(t)
	defer cleanup()
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	from, _ := repo.Course.UpsertByName(ctx, &model.Course{UserID: &u.UserID, Name: "Stat"})
	to, _ := repo.Course.UpsertByName(ctx, &model.Course{UserID: &u.UserID, Name: "Statistika"})
	_ = repo.Session.Create(ctx, &model.Session{UserID: &u.UserID, CourseID: from.ID, Date: "2024-05-17", StartTime: "09:00", EndTime: "10:00"})

	moved, err := repo.Course.Merge(ctx, u.UserID, from.ID, to.ID)
	if err != nil {
		t.Fatalf("Merge 失败: %v", err)
	}
	if moved != 1 {
		t.Errorf("期望移动 1 个课次，得到 %d", moved)
	}
	list, _ := repo.Course.List(ctx, u.UserID, false)
	if len(list) != 1 || list[0].SessionCount != 1 {
		t.Errorf("合并后列表异常: %+v", list)
	}
}
