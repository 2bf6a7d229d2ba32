package backend

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/microsoft/durabletask-go/backend"
	"github.com/microsoft/durabletask-go/backend/sqlite"
	"github.com/microsoft/durabletask-go/task"

	"github.com/artisanmarket/inventory/internal/infrastructure/config"
)

// NewSQLiteBackend creates the durable task hub backend on its own SQLite
// file, separate from the inventory store
func NewSQLiteBackend(cfg *config.WorkflowConfig, logger backend.Logger) (backend.Backend, error) {
	dir := filepath.Dir(cfg.SQLiteFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create workflow data directory: %w", err)
	}

	return sqlite.NewSqliteBackend(sqlite.NewSqliteOptions(cfg.SQLiteFile), logger), nil
}

// NewInMemoryBackend creates a throwaway task hub backend for tests. An
// empty file path puts the sqlite backend in memory.
func NewInMemoryBackend(logger backend.Logger) backend.Backend {
	return sqlite.NewSqliteBackend(sqlite.NewSqliteOptions(""), logger)
}

// NewTaskHub assembles the worker and client for a registry of orchestrators
// and activities. The caller starts the worker and shuts it down.
func NewTaskHub(be backend.Backend, registry *task.TaskRegistry, logger backend.Logger) (backend.TaskHubWorker, backend.TaskHubClient) {
	executor := task.NewTaskExecutor(registry)
	orchestrationWorker := backend.NewOrchestrationWorker(be, executor, logger)
	activityWorker := backend.NewActivityTaskWorker(be, executor, logger)
	worker := backend.NewTaskHubWorker(be, orchestrationWorker, activityWorker, logger)
	client := backend.NewTaskHubClient(be)
	return worker, client
}
