// Package cli реализует инструмент командной строки Perftool.
//
// # Обзор
//
// CLI выполняет планы локально, проверяет их и отправляет воркерам
// через RabbitMQ. Соединения с PostgreSQL и RabbitMQ открываются только
// для команд и флагов, которым они нужны.
//
// # Ключевые компоненты
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) и логи — в stderr.
// Это позволяет использовать pipe: perftool --json run plan.json | jq .summary
//
// ## Commands
//
//   - run PLAN [--schedule CRON] [--persist] [--publish]
//   - validate PLAN
//   - submit PLAN [--persist]
//   - steps
//
// Команды создаются фабричными функциями (NewRunCmd и т.д.), принимающими
// Deps и outputFn — замыкание для создания Output после парсинга
// PersistentFlags.
package cli
