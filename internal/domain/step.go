package domain

// StepDoc — объектная форма шага.
//
// Используется для хранения в БД, передачи через RabbitMQ и в CLI.
// Семантики выполнения не несёт: это чисто структурное представление.
//
// Пример:
//
//	{
//	  "id": "5d0c...",
//	  "action": "compare",
//	  "args": [
//	    {"name": "operator", "value": ">"},
//	    {"name": "operand", "ref": {"step": "fetch", "path": "body.limit"}}
//	  ],
//	  "filters": [
//	    {"action": "length", "args": []}
//	  ]
//	}
type StepDoc struct {
	// ID — идентификатор шага. Пустой ID при загрузке означает "выдать новый".
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// Action — имя action из каталога.
	Action string `json:"action" yaml:"action"`

	// Args — аргументы в стабильном порядке (по имени).
	Args []ArgDoc `json:"args" yaml:"args"`

	// Filters — цепочка фильтров, порядок значим.
	Filters []FilterDoc `json:"filters" yaml:"filters"`
}

// ArgDoc — пара имя/значение.
// Ровно одно из Value или Ref имеет смысл: если Ref задан, аргумент — ссылка.
type ArgDoc struct {
	Name  string  `json:"name" yaml:"name"`
	Value any     `json:"value,omitempty" yaml:"value,omitempty"`
	Ref   *RefDoc `json:"ref,omitempty" yaml:"ref,omitempty"`
}

// IsReference возвращает true, если аргумент ссылается на выход другого шага.
func (a ArgDoc) IsReference() bool {
	return a.Ref != nil
}

// RefDoc — ссылка на выход шага.
type RefDoc struct {
	// Step — имя или ID шага в аккумуляторе.
	Step string `json:"step" yaml:"step"`

	// Path — путь внутри выхода, через точку: "body.items.0.id".
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// FilterDoc — объявление фильтра в цепочке.
type FilterDoc struct {
	Action string   `json:"action" yaml:"action"`
	Args   []ArgDoc `json:"args" yaml:"args"`
}
