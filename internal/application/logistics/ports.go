package logistics

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Remitos-api/internal/domain/entity"
)

// RemitoLineForPDF ítem del remito enriquecido con los datos del producto para imprimir.
type RemitoLineForPDF struct {
	SKU               string
	ProductName       string
	Quantity          decimal.Decimal
	PreparedQuantity  decimal.Decimal
	DeliveredQuantity decimal.Decimal
	UnitPrice         decimal.Decimal
	TotalPrice        decimal.Decimal
}

// RemitoPDFGenerator genera la representación imprimible del remito.
type RemitoPDFGenerator interface {
	GenerateRemitoPDF(ctx context.Context, remito *entity.OutboundRemito, client *entity.Client, lines []RemitoLineForPDF) ([]byte, error)
}
