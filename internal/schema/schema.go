package schema

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// Type — тип значения параметра.
type Type string

// Поддерживаемые типы.
const (
	TypeAny     Type = "any"
	TypeString  Type = "string"
	TypeInteger Type = "integer"
	TypeNumber  Type = "number"
	TypeBoolean Type = "boolean"
	TypeObject  Type = "object"
	TypeArray   Type = "array"
)

// Valid проверяет, что тип известен. Пустой тип трактуется как any.
func (t Type) Valid() bool {
	switch t {
	case "", TypeAny, TypeString, TypeInteger, TypeNumber, TypeBoolean, TypeObject, TypeArray:
		return true
	default:
		return false
	}
}

// validate — общий экземпляр validator, потокобезопасен.
var validate = validator.New()

// Param — объявление одного параметра.
type Param struct {
	// Name — имя параметра (ключ в mapping аргументов).
	Name string `json:"name" yaml:"name"`

	// Type — ожидаемый тип, к которому приводится значение.
	Type Type `json:"type,omitempty" yaml:"type,omitempty"`

	// Required — обязательный ли параметр.
	Required bool `json:"required,omitempty" yaml:"required,omitempty"`

	// Default — значение по умолчанию для необязательного параметра.
	Default any `json:"default,omitempty" yaml:"default,omitempty"`

	// Rules — правила validator, например "gte=0,lte=100" или "oneof=GET POST".
	Rules string `json:"rules,omitempty" yaml:"rules,omitempty"`

	// Description — описание для CLI и документации.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Validate приводит значение к типу параметра и проверяет правила.
//
// nil означает отсутствие значения: для обязательного параметра это ошибка,
// для необязательного подставляется Default (если задан).
func (p Param) Validate(value any) (any, error) {
	if value == nil {
		if p.Required {
			return nil, newFieldError(p.Name, nil, ErrMissingParam, "")
		}
		if p.Default == nil {
			return nil, nil
		}
		value = p.Default
	}

	coerced, err := coerce(p.Type, value)
	if err != nil {
		return nil, newFieldError(p.Name, value, ErrTypeMismatch,
			fmt.Sprintf("expected %s, got %T", p.typeName(), value))
	}

	if err := checkRules(p.Rules, coerced); err != nil {
		return nil, newFieldError(p.Name, value, err, p.Rules)
	}

	return coerced, nil
}

func (p Param) typeName() string {
	if p.Type == "" {
		return string(TypeAny)
	}
	return string(p.Type)
}

// coerce приводит значение к типу через mapstructure.
func coerce(t Type, value any) (any, error) {
	switch t {
	case "", TypeAny:
		return value, nil

	case TypeString:
		var out string
		if err := mapstructure.WeakDecode(value, &out); err != nil {
			return nil, err
		}
		return out, nil

	case TypeInteger:
		// Дробные числа не усекаем молча
		switch f := value.(type) {
		case float64:
			if f != math.Trunc(f) {
				return nil, fmt.Errorf("fractional value %v", f)
			}
		case float32:
			if float64(f) != math.Trunc(float64(f)) {
				return nil, fmt.Errorf("fractional value %v", f)
			}
		}
		var out int
		if err := mapstructure.WeakDecode(value, &out); err != nil {
			return nil, err
		}
		return out, nil

	case TypeNumber:
		var out float64
		if err := mapstructure.WeakDecode(value, &out); err != nil {
			return nil, err
		}
		return out, nil

	case TypeBoolean:
		var out bool
		if err := mapstructure.WeakDecode(value, &out); err != nil {
			return nil, err
		}
		return out, nil

	case TypeObject:
		var out map[string]any
		if err := mapstructure.Decode(value, &out); err != nil {
			return nil, err
		}
		if out == nil {
			return nil, fmt.Errorf("not an object")
		}
		return out, nil

	case TypeArray:
		var out []any
		if err := mapstructure.WeakDecode(value, &out); err != nil {
			return nil, err
		}
		return out, nil

	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidSchema, t)
	}
}

// checkRules проверяет значение правилами validator.
// validator паникует на неизвестных тегах — переводим это в ErrInvalidSchema.
func checkRules(rules string, value any) (err error) {
	if rules == "" {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInvalidSchema, r)
		}
	}()

	if verr := validate.Var(value, rules); verr != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(verr, &validationErrors) {
			tags := make([]string, 0, len(validationErrors))
			for _, fe := range validationErrors {
				tags = append(tags, fe.Tag())
			}
			return fmt.Errorf("%w: failed %s", ErrRuleViolation, strings.Join(tags, ", "))
		}
		return fmt.Errorf("%w: %v", ErrRuleViolation, verr)
	}
	return nil
}

// Schema — упорядоченный набор параметров.
type Schema []Param

// Lookup возвращает параметр по имени.
func (s Schema) Lookup(name string) (Param, bool) {
	for _, p := range s {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Names возвращает имена параметров в порядке объявления.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, p := range s {
		names[i] = p.Name
	}
	return names
}

// Verify проверяет само объявление: имена, уникальность, типы.
func (s Schema) Verify() error {
	seen := make(map[string]struct{}, len(s))
	for _, p := range s {
		if p.Name == "" {
			return fmt.Errorf("%w: parameter with empty name", ErrInvalidSchema)
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("%w: duplicate parameter %q", ErrInvalidSchema, p.Name)
		}
		seen[p.Name] = struct{}{}

		if !p.Type.Valid() {
			return fmt.Errorf("%w: parameter %q has unknown type %q", ErrInvalidSchema, p.Name, p.Type)
		}
		if p.Required && p.Default != nil {
			return fmt.Errorf("%w: required parameter %q has a default", ErrInvalidSchema, p.Name)
		}
	}
	return nil
}

// Check проверяет mapping аргументов по схеме.
//
// deferred — имена аргументов, значения которых станут известны позже
// (ссылки на выходы других шагов). Они считаются присутствующими,
// но не проверяются и не попадают в результат.
//
// Возвращает приведённые значения с подставленными defaults.
// Все ошибки полей объединяются через errors.Join.
func (s Schema) Check(args map[string]any, deferred ...string) (map[string]any, error) {
	pending := make(map[string]struct{}, len(deferred))
	for _, name := range deferred {
		pending[name] = struct{}{}
	}

	var errs []error

	// Сначала неизвестные имена — в отсортированном порядке
	unknown := make([]string, 0)
	for name := range args {
		if _, ok := s.Lookup(name); !ok {
			unknown = append(unknown, name)
		}
	}
	for name := range pending {
		if _, ok := s.Lookup(name); !ok {
			if _, dup := args[name]; !dup {
				unknown = append(unknown, name)
			}
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		errs = append(errs, newFieldError(name, args[name], ErrUnknownParam, ""))
	}

	result := make(map[string]any, len(s))
	for _, p := range s {
		if _, ok := pending[p.Name]; ok {
			continue
		}

		value, present := args[p.Name]
		coerced, err := p.Validate(value)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if present || coerced != nil {
			result[p.Name] = coerced
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return result, nil
}
