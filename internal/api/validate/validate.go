// Package validate 注册 gin 绑定使用的自定义校验标签
package validate

import (
	"errors"
	"sort"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"weekend-planner/backend/internal/model"
	"weekend-planner/backend/internal/planner"
)

// Register 向 gin 默认校验引擎注册 hhmm / isodate / coursetype
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin 校验引擎不是 validator/v10")
	}
	return RegisterOn(v)
}

// RegisterOn 在指定实例上注册自定义标签
func RegisterOn(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"hhmm":       isHHMM,
		"isodate":    isISODate,
		"coursetype": isCourseType,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

func isHHMM(fl validator.FieldLevel) bool {
	_, err := planner.TimeToMinutes(fl.Field().String())
	return err == nil
}

func isISODate(fl validator.FieldLevel) bool {
	_, err := planner.ParseDate(fl.Field().String())
	return err == nil
}

// isCourseType 空串合法：更新时表示清除类型
func isCourseType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "", model.CourseTypeMandatory, model.CourseTypeMO:
		return true
	}
	return false
}

// Details 把校验错误整理为 "字段:标签" 列表，用于响应 details
func Details(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return ""
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		parts = append(parts, fe.Field()+":"+fe.Tag())
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}
