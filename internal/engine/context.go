package engine

import "github.com/shaiso/Flagship/internal/domain"

// Accumulator — хранилище выходов ранее выполненных шагов.
//
// Принадлежит владельцу workflow; engine и step только читают его
// и никогда не пишут. Синхронизацию обеспечивает владелец.
type Accumulator interface {
	// Output возвращает последний выход шага.
	// false — шаг отсутствует или ещё не выдал результат.
	Output(step string) (any, bool)
}

// Outputs — простейший аккумулятор: имя шага → выход.
type Outputs map[string]any

// Output реализует Accumulator.
func (o Outputs) Output(step string) (any, bool) {
	v, ok := o[step]
	return v, ok
}

// Context — аккумулятор run с данными для шаблонов.
//
// Используется в Go templates:
//   - {{ .Inputs.param_name }}
//   - {{ .Steps.step_id.Output }}
//   - {{ .Env.VAR_NAME }}
type Context struct {
	// Inputs — входные параметры run.
	Inputs map[string]any `json:"inputs"`

	// Steps — результаты выполненных шагов.
	Steps map[string]*StepContext `json:"steps"`

	// Env — переменные окружения.
	Env map[string]string `json:"env"`
}

// StepContext — результат вызова шага.
type StepContext struct {
	// Output — выход шага в том виде, в каком его вернул action.
	Output any `json:"output"`

	// Status — статус вызова: "PENDING", "SUCCEEDED", "FAILED".
	Status domain.InvocationStatus `json:"status"`
}

// NewContext создаёт новый контекст с входными параметрами.
func NewContext(inputs map[string]any) *Context {
	if inputs == nil {
		inputs = make(map[string]any)
	}
	return &Context{
		Inputs: inputs,
		Steps:  make(map[string]*StepContext),
		Env:    make(map[string]string),
	}
}

// AddStepResult добавляет результат вызова шага в контекст.
func (c *Context) AddStepResult(stepID string, output any, status domain.InvocationStatus) {
	c.Steps[stepID] = &StepContext{
		Output: output,
		Status: status,
	}
}

// SetEnv устанавливает переменную окружения.
func (c *Context) SetEnv(key, value string) {
	c.Env[key] = value
}

// Output реализует Accumulator.
// Шаг в статусе PENDING выхода ещё не выдал.
func (c *Context) Output(step string) (any, bool) {
	if c == nil {
		return nil, false
	}
	sc, ok := c.Steps[step]
	if !ok || sc == nil || sc.Status == domain.InvocationPending {
		return nil, false
	}
	return sc.Output, true
}
