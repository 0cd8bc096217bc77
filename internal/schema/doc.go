// Package schema описывает контракты параметров действий и фильтров
// и проверяет значения на соответствие им.
//
// Param — одно объявление параметра: имя, тип, обязательность, значение
// по умолчанию и правила go-playground/validator (например "gte=0,lte=10").
// Schema — упорядоченный список Param.
//
// Проверка значения выполняется в два этапа:
//  1. Приведение типа через mapstructure (weak decoding): "5" → 5 для integer.
//  2. Проверка правил через validator.Var.
//
// Ошибки возвращаются как *FieldError с именем поля и исходным значением.
package schema
