package utils

import (
	"io"
	"log/slog"
	"os"
)

var (
	InfoLog  *slog.Logger
	ErrorLog *slog.Logger
)

// InicializarLogger configura los loggers globales. Si destino es nil,
// escribe en stdout.
func InicializarLogger(logLevel string, moduleName string, destino io.Writer) {
	var level slog.Level

	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	if destino == nil {
		destino = os.Stdout
	}

	handler := slog.NewTextHandler(destino, &slog.HandlerOptions{
		Level: level,
	})

	logger := slog.New(handler).With("modulo", moduleName)

	InfoLog = logger
	ErrorLog = logger
}

// AbrirArchivoLog abre (o crea) el archivo de log del emulador.
func AbrirArchivoLog(ruta string) (*os.File, error) {
	return os.OpenFile(ruta, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}
