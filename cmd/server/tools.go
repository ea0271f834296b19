package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"weekend-planner/backend/internal/dto"
	"weekend-planner/backend/internal/repository"
	"weekend-planner/backend/internal/service"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "执行数据库迁移后退出",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()
		return a.migrate()
	},
}

var (
	conflictsUser string
	conflictsWeek string
)

var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "在终端列出某用户的课程冲突",
	Example: `  server conflicts --user jana@example.com
  server conflicts --user jana@example.com --week 2024-05-18`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		ctx := cmd.Context()
		repo := repository.NewRepository(a.db)
		userID, err := resolveUser(ctx, repo, conflictsUser)
		if err != nil {
			return err
		}

		planner := service.NewPlannerService(&a.cfg.Planner, repo, a.logger)
		list, err := planner.Conflicts(ctx, userID, conflictsWeek)
		if err != nil {
			return err
		}
		a.logger.Debug("冲突查询完成", zap.String("user_id", userID), zap.Int("total", list.Total))

		fmt.Fprintln(cmd.OutOrStdout(), renderConflicts(list))
		return nil
	},
}

func init() {
	conflictsCmd.Flags().StringVarP(&conflictsUser, "user", "u", "", "用户邮箱或 ID")
	conflictsCmd.Flags().StringVarP(&conflictsWeek, "week", "w", "", "周内任意日期 YYYY-MM-DD，为空时检查全部周末")
	_ = conflictsCmd.MarkFlagRequired("user")
}

// resolveUser 含 @ 按邮箱查找，否则按 ID
func resolveUser(ctx context.Context, repo *repository.Repository, ref string) (string, error) {
	if !strings.Contains(ref, "@") {
		if _, err := repo.User.GetByID(ctx, ref); err != nil {
			return "", userLookupError(ref, err)
		}
		return ref, nil
	}
	u, err := repo.User.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(ref)))
	if err != nil {
		return "", userLookupError(ref, err)
	}
	return u.UserID, nil
}

func userLookupError(ref string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("用户 %q 不存在", ref)
	}
	return err
}

// ── 终端渲染 ──

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

func renderConflicts(list *dto.ConflictListResponse) string {
	if list.Total == 0 {
		return okStyle.Render("没有冲突")
	}

	rows := make([][]string, 0, len(list.Conflicts))
	for _, c := range list.Conflicts {
		rows = append(rows, []string{c.Date, c.Start + "–" + c.End, c.A.CourseName, c.B.CourseName})
	}

	t := table.New().
		Headers("日期", "时间", "课程 A", "课程 B").
		Border(lipgloss.RoundedBorder()).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	return warnStyle.Render(fmt.Sprintf("共 %d 个冲突", list.Total)) + "\n" + t.String()
}
