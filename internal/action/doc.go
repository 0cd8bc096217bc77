// Package action содержит каталог actions.
//
// Action — фиксированная функция плюс пара схем: Params для аргументов
// шага и Input для primary input. Каталог заполняется при старте
// процесса, dispatch идёт по имени без reflection.
//
// Стандартные actions:
//   - http        — HTTP запрос, вход url
//   - delay       — задержка, вход пропускается без изменений
//   - compare     — сравнение чисел
//   - regex_match — проверка строки регулярным выражением
//   - expr        — выражение expr-lang над входом
package action
