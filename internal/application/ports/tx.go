package ports

import (
	"context"

	"github.com/jhoicas/Remitos-api/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción, con todos los repositorios atados a ella.
// Si fn devuelve error se hace Rollback; si no, Commit.
type TxRunner interface {
	Run(ctx context.Context, fn func(r repository.Repos) error) error
}
