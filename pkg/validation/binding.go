package validation

import (
	"errors"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterBindings 向 gin 的 validator 引擎注册课表字段标签：units / days / timerange
// days 与 timerange 仅在对应规则开启时生效
func RegisterBindings(rules Rules) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding 引擎不是 validator/v10")
	}
	return Register(v, rules)
}

// Register 在指定 validator 实例上注册自定义标签
func Register(v *validator.Validate, rules Rules) error {
	if err := v.RegisterValidation("units", func(fl validator.FieldLevel) bool {
		return ValidUnits(fl.Field().String())
	}); err != nil {
		return err
	}
	if err := v.RegisterValidation("days", func(fl validator.FieldLevel) bool {
		return !rules.StrictDays || ValidDays(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("timerange", func(fl validator.FieldLevel) bool {
		if !rules.StrictTime {
			return true
		}
		_, _, err := ParseTimeRange(fl.Field().String())
		return err == nil
	})
}

// MessageFor 将 validator 的校验错误映射为对外的静态文案
func MessageFor(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return MsgMissingFields
	}
	switch verrs[0].Tag() {
	case "units":
		return MsgInvalidUnits
	case "days":
		return MsgInvalidDays
	case "timerange":
		return MsgInvalidTime
	default:
		return MsgMissingFields
	}
}
