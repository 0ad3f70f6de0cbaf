// Package scheduler повторно запускает планы по расписанию.
//
// Структура:
//   - scheduler.go — Scheduler (Tick, Run) и Loop
//   - cron.go      — парсинг cron-выражений и вычисление следующего времени
//
// Использование:
//
//	err := scheduler.Loop(ctx, "*/30 * * * *", func(ctx context.Context) (uuid.UUID, error) {
//	    run, err := r.Run(ctx, plan)
//	    if run == nil {
//	        return uuid.Nil, err
//	    }
//	    return run.ID, err
//	}, logger)
//
// Запуски не пересекаются: следующий тик вычисляется после
// завершения предыдущего run.
package scheduler
