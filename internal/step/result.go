package step

// Result — исход одного вызова шага.
//
// Для вызывающего исход двоичный: либо Output, либо Failed().
// Failure хранит класс неудачи для наблюдателей и логов.
type Result struct {
	// Output — то, что вернул action, без изменений.
	Output any

	// Failure — причина неудачи; nil при успехе.
	Failure *Failure
}

// Failed возвращает true, если вызов завершился неудачей.
func (r Result) Failed() bool {
	return r.Failure != nil
}

// Err возвращает Failure как error или nil.
func (r Result) Err() error {
	if r.Failure == nil {
		return nil
	}
	return r.Failure
}
