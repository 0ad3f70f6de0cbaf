// Perftool CLI — выполнение и проверка планов бенчмарка.
//
// Использование:
//
//	perftool [--json] <command> [flags]
//
// Команды:
//
//	run       Выполнить план и вывести сводку
//	validate  Проверить план
//	submit    Отправить план воркерам
//	steps     Список типов шагов
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shaiso/Perftool/internal/cli"
	"github.com/shaiso/Perftool/internal/client"
	"github.com/shaiso/Perftool/internal/mq"
	"github.com/shaiso/Perftool/internal/repo"
	"github.com/shaiso/Perftool/internal/runner"
	"github.com/shaiso/Perftool/internal/steps"
	"github.com/shaiso/Perftool/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	// Логи идут в stderr, stdout остаётся для данных
	logger := telemetry.SetupLoggerTo(os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	deps := cli.Deps{
		Registry: func() *steps.Registry {
			return steps.DefaultRegistry(client.New(client.ConfigFromEnv()))
		},
		Store: func(ctx context.Context) (runner.Store, func(), error) {
			pool, err := repo.NewPool(ctx)
			if err != nil {
				return nil, nil, err
			}
			if err := repo.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, nil, err
			}
			return repo.NewStore(pool), pool.Close, nil
		},
		Publisher: func(ctx context.Context) (cli.Publisher, func(), error) {
			conn, err := mq.Dial(mq.ConnectionConfig{Name: "perftool-cli", Logger: logger})
			if err != nil {
				return nil, nil, err
			}
			if err := mq.SetupTopology(ctx, conn); err != nil {
				conn.Close()
				return nil, nil, err
			}
			return mq.NewPublisher(conn, logger), func() { conn.Close() }, nil
		},
		Logger: logger,
	}

	if err := cli.NewRootCmd(version, deps).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
