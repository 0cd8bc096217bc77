// Package filter реализует цепочку фильтров шага.
//
// Фильтр — объявленный элемент со своими аргументами (как и action):
// Definition хранится в Registry, Filter привязывает её к аргументам.
// Аргументы могут ссылаться на выходы других шагов и разрешаются
// при каждом Apply.
//
// Стандартные фильтры: add, multiply, length, lower, upper, trim,
// select (gabs), expr (expr-lang), template (Go templates).
package filter
