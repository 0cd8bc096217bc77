// Package step реализует шаг workflow: объявленный action с аргументами
// и цепочкой фильтров, вызываемый над входным значением.
//
// Создание (New, Builder.FromDocument) атомарно и проверяет аргументы
// по схеме action. Вызов (Invoke) никогда не паникует и не возвращает
// error: любая неудача сворачивается в Result.Failure и событие
// events.KindFailed. Классы неудачи:
//
//	invalid_input      — вход после фильтров не прошёл схему primary input
//	resolution_failed  — не разрешилась ссылка на выход другого шага
//	execution_error    — всё остальное, включая панику
//
// codec.go переводит шаг в объектную (JSON/YAML) и древовидную (XML) формы.
package step
