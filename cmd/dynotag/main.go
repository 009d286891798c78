// dynotag — инструмент командной строки для управления тегами Dyno.
//
// Использование:
//
//	dynotag [--config FILE] [--base-url URL] [--metrics-file FILE] [--json] <command> [args]
//
// Команды:
//
//	list                   Вывести все теги сервера
//	create NAME CONTENT    Создать тег
//	delete NAME            Удалить тег по имени
//
// Cookie и server читаются из DynoTagManagerConfig.json
// или переменных окружения DYNOTAG_COOKIE, DYNOTAG_SERVER.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/shaiso/dynotag/internal/cli"
	"github.com/shaiso/dynotag/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	logger := telemetry.SetupLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app := cli.NewApp(version, logger)

	if err := app.Execute(ctx, os.Args[1:]); err != nil {
		app.ReportError(err)
		cancel()
		os.Exit(cli.ExitCode(err))
	}
}
