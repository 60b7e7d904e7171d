package service

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/d60-Lab/gin-contest/internal/apperr"
)

var (
	ErrMissingFields = apperr.Validation("missing_fields", "缺少必填欄位")
	ErrInvalidField  = apperr.Validation("invalid_field", "欄位格式錯誤")
)

// isAbsoluteURL 只接受带主机名的 http/https 地址
func isAbsoluteURL(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("absurl", isAbsoluteURL)
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// translateValidation 取第一条违反的规则，给出具体字段
func translateValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return ErrInvalidField.Wrap(err)
	}
	fe := verrs[0]
	if fe.Tag() == "required" {
		return ErrMissingFields.WithMessage("缺少必填欄位: %s", fe.Field())
	}
	return ErrInvalidField.WithMessage("%s 不符合規則 %s", fe.Field(), ruleName(fe))
}

func ruleName(fe validator.FieldError) string {
	if fe.Param() != "" {
		return fmt.Sprintf("%s=%s", fe.Tag(), fe.Param())
	}
	return fe.Tag()
}
