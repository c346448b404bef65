// Package app provides application initialization and dependency wiring.
//
// App is the container that holds every long-lived component: the
// database pool, the Genkit embedder, the knowledge stores and the
// conversation memory service. Commands build an App once and pull what
// they need from it.
package app

import (
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khetrent/khetrent/internal/config"
	"github.com/khetrent/khetrent/internal/embedding"
	"github.com/khetrent/khetrent/internal/knowledge"
	"github.com/khetrent/khetrent/internal/memory"
	"github.com/khetrent/khetrent/internal/rag"
)

// App is the application container.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Genkit   *genkit.Genkit
	Embedder ai.Embedder
	Client   embedding.Client
	DBPool   *pgxpool.Pool

	Knowledge *knowledge.Store
	Sources   *knowledge.SourceStore
	Queue     *knowledge.QueueStore
	Processor *knowledge.Processor
	Syncer    *knowledge.Syncer
	Builder   *rag.Builder
	Memory    *memory.Service
}

// Close releases all resources.
func (a *App) Close() error {
	if a.DBPool != nil {
		a.DBPool.Close()
		a.Logger.Debug("database pool closed")
	}
	return nil
}
