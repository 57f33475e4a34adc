// Package binding decodes request bodies and query strings into structs,
// fills `default` tags and runs validator/v10 over the result. Failures are
// invalid_argument errors carrying per-field details.
package binding

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/creasty/defaults"
	validatorV10 "github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"

	apperrors "github.com/leeforge/mediakit/errors"
	"github.com/leeforge/mediakit/json"
)

// FieldError 单个字段的校验错误
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// JSON 解析请求体到 v 并校验，拒绝未知字段
func JSON(r *http.Request, v any) error {
	if r == nil || r.Body == nil || r.Body == http.NoBody {
		return bindError("request body is empty", nil)
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return bindError("request body is empty", nil)
		}
		return bindError("malformed JSON body", err)
	}
	return Validate(v)
}

// Query 使用 `query` 标签绑定查询参数到结构体
// 每个 key 只取第一个值，字符串弱类型转换为字段类型
func Query(r *http.Request, v any) error {
	if err := defaults.Set(v); err != nil {
		return apperrors.WrapWithType(err, apperrors.ErrorTypeInternal, "apply query defaults")
	}

	values := make(map[string]any, len(r.URL.Query()))
	for k, vs := range r.URL.Query() {
		if len(vs) > 0 && vs[0] != "" {
			values[k] = vs[0]
		}
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "query",
		WeaklyTypedInput: true,
		Result:           v,
	})
	if err != nil {
		return apperrors.WrapWithType(err, apperrors.ErrorTypeInternal, "build query decoder")
	}
	if err := dec.Decode(values); err != nil {
		return bindError("malformed query string", err)
	}
	return Validate(v)
}

// Validate 校验结构体，失败时返回带 "fields" 详情的 invalid_argument 错误
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validatorV10.ValidationErrors
	if !errors.As(err, &verrs) {
		return bindError("validation failed", err)
	}
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Message: validationMessage(fe)})
	}
	return apperrors.New(apperrors.ErrorTypeInvalidArgument, fmt.Sprintf("%s %s", fields[0].Field, fields[0].Message)).
		WithDetail("fields", fields)
}

func bindError(msg string, cause error) error {
	e := apperrors.New(apperrors.ErrorTypeInvalidArgument, msg)
	if cause != nil {
		e.WithInnerError(cause)
	}
	return e
}
