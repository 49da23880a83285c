// Package numbering asigna los números visibles de compras, pedidos y remitos.
package numbering

import (
	"context"
	"time"

	"github.com/jhoicas/Remitos-api/internal/domain/repository"
	"github.com/jhoicas/Remitos-api/internal/domain/workflow"
)

// Next reserva la siguiente secuencia del año de at para prefix y la formatea.
// Debe llamarse con el SequenceRepository de la transacción que inserta el documento.
func Next(ctx context.Context, seq repository.SequenceRepository, prefix string, at time.Time) (string, error) {
	year := at.Year()
	n, err := seq.Next(ctx, prefix, year)
	if err != nil {
		return "", err
	}
	return workflow.FormatNumber(prefix, year, n), nil
}
