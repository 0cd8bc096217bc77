// Package worker вызывает сохранённые шаги по сообщениям из RabbitMQ.
//
// # Обзор
//
// Worker потребляет очередь steps.invoke. Каждое сообщение называет шаг
// (ID в репозитории), run и входное значение. Worker:
//
//  1. Загружает объявление шага и собирает его через step.Builder
//  2. Загружает аккумулятор run (выходы уже выполненных шагов)
//  3. Помечает выход шага как PENDING
//  4. Вызывает шаг с таймаутом InvokeTimeout
//  5. Записывает выход (SUCCEEDED или FAILED) и публикует step.completed
//
//	w := worker.New(worker.Config{
//	    Steps:     repo.NewStepRepo(pool),
//	    Outputs:   repo.NewOutputRepo(pool),
//	    Publisher: publisher,
//	    Builder:   builder,
//	    Conn:      mqConn,
//	    Logger:    logger,
//	})
//
//	if err := w.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//
// # Ошибки
//
// Неудача шага (invalid_input, resolution_failed, execution_error) и битое
// объявление (invalid_declaration, step_not_found) — это результат: сообщение
// подтверждается. Сбой БД возвращается как ошибка, сообщение уходит обратно
// в очередь. Неразбираемое сообщение отправляется в DLQ.
package worker
