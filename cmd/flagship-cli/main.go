// Flagship CLI — локальная работа с шагами: каталоги actions и фильтров,
// перевод объявлений между json, xml и yaml, проверка и вызов.
//
// Использование:
//
//	flagship [--json] <command> [flags]
//
// Команды:
//
//	actions   Каталог actions
//	filters   Каталог фильтров
//	convert   Перевод шага в другую форму
//	validate  Проверка объявления шага
//	invoke    Локальный вызов шага
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/shaiso/Flagship/internal/cli"
	"github.com/shaiso/Flagship/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	// Логи шагов — в stderr, чтобы не мешать выводу данных
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "WARN"
	}
	slog.SetDefault(telemetry.NewLogger(os.Stderr, level, "text"))

	rootCmd := cli.NewRootCmd(version, cli.DefaultCatalog(), os.Stdout, os.Stderr)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
