package logging

import (
	"context"
	"maps"

	"github.com/goliatone/go-l10n/pkg/interfaces"
)

const (
	rootModule     = "l10n"
	statsModule    = "l10n.stats"
	catalogModule  = "l10n.catalog"
	commandsModule = "l10n.commands"
	storageModule  = "l10n.storage"
)

const (
	fieldContainerKind = "container_kind"
	fieldContainerID   = "container_id"
)

// ModuleLogger returns the logger registered for module, tagged with a module
// field. A nil provider, or one that has no logger for the name, yields NoOp.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}
	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}
	return WithFields(logger, map[string]any{"module": module})
}

// StatsLogger returns the logger used by the snapshot store.
func StatsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, statsModule)
}

// CatalogLogger returns the logger used by the catalog service.
func CatalogLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, catalogModule)
}

// CommandsLogger returns the logger used by command handlers.
func CommandsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, commandsModule)
}

// StorageLogger returns the logger used while opening databases.
func StorageLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, storageModule)
}

// WithFields attaches fields when the logger supports FieldsLogger and
// returns it unchanged otherwise.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}
	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		return fieldsLogger.WithFields(maps.Clone(fields))
	}
	return logger
}

// WithContainer tags entries with the container being processed.
func WithContainer(logger interfaces.Logger, kind, id string) interfaces.Logger {
	fields := map[string]any{}
	if kind != "" {
		fields[fieldContainerKind] = kind
	}
	if id != "" {
		fields[fieldContainerID] = id
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that discards every entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var (
	_ interfaces.Logger       = noopLogger{}
	_ interfaces.FieldsLogger = noopLogger{}
)

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger { return n }

func (n noopLogger) WithContext(context.Context) interfaces.Logger { return n }
