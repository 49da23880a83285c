// Package pdf genera la versión imprimible del remito de salida.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: REMITO + tipo         │  N° Remito + Fecha          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  CLIENTE: Nombre + NIT/CC + contacto                         │
//	│  ENTREGA: Dirección / Contacto / Transporte / Guía           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: SKU | Producto | Cant | Prep | Entr | P.Unit | Total │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Productos / Unidades / Valor                       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR del número + firma de recepción                  │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Remitos-api/internal/application/logistics"
	"github.com/jhoicas/Remitos-api/internal/domain/entity"
)

var _ logistics.RemitoPDFGenerator = (*MarotoRemitoPDFGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

var remitoTypeLabels = map[string]string{
	entity.RemitoTypeEntregaCliente:  "Entrega a cliente",
	entity.RemitoTypeTrasladoInterno: "Traslado interno",
	entity.RemitoTypeDevolucion:      "Devolución",
	entity.RemitoTypeConsignacion:    "Consignación",
}

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoRemitoPDFGenerator implementa logistics.RemitoPDFGenerator usando Maroto v2.
type MarotoRemitoPDFGenerator struct {
	company string
}

// NewMarotoRemitoPDFGenerator construye el generador. company aparece como autor del documento.
func NewMarotoRemitoPDFGenerator(company string) *MarotoRemitoPDFGenerator {
	return &MarotoRemitoPDFGenerator{company: company}
}

// GenerateRemitoPDF genera el PDF y devuelve sus bytes.
func (g *MarotoRemitoPDFGenerator) GenerateRemitoPDF(
	_ context.Context,
	remito *entity.OutboundRemito,
	client *entity.Client,
	lines []logistics.RemitoLineForPDF,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Remito "+remito.Number, true).
		WithAuthor(nonEmpty(g.company, "remitos-api"), true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(remito))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(clientRow(client))
	m.AddRows(deliveryRow(remito))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableDetailRows(lines)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(remito))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(remito))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(remito *entity.OutboundRemito) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New("REMITO DE SALIDA", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(remitoTypeLabels[remito.RemitoType], remito.RemitoType), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(remito.Number, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 1,
			}),
			text.New("Fecha: "+remito.GenerationDate.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: colorGray,
			}),
			text.New("Estado: "+remito.Status, props.Text{
				Size: 8, Align: align.Right, Top: 13, Color: colorGray,
			}),
		),
	)
}

func clientRow(client *entity.Client) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New("CLIENTE", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(client.Name, client.ID), props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("NIT/CC: %s   |   Email: %s   |   Tel: %s",
				nonEmpty(client.TaxID, "-"),
				nonEmpty(client.Email, "-"),
				nonEmpty(client.Phone, "-"),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

func deliveryRow(remito *entity.OutboundRemito) core.Row {
	return row.New(16).Add(
		col.New(12).Add(
			text.New("ENTREGA", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Dirección: %s   |   Contacto: %s   |   Tel: %s",
				nonEmpty(remito.DeliveryAddress, "-"),
				nonEmpty(remito.DeliveryContact, "-"),
				nonEmpty(remito.DeliveryPhone, "-"),
			), props.Text{Size: 8, Top: 6, Color: colorGray}),
			text.New(fmt.Sprintf("Transporte: %s   |   Guía: %s",
				nonEmpty(remito.TransportCompany, "-"),
				nonEmpty(remito.TrackingNumber, "-"),
			), props.Text{Size: 8, Top: 11, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("SKU", 2, align.Left),
		h("Producto", 4, align.Left),
		h("Cant.", 1, align.Center),
		h("Prep.", 1, align.Center),
		h("Entr.", 1, align.Center),
		h("P. Unit.", 1, align.Right),
		h("Total", 2, align.Right),
	)
}

func tableDetailRows(lines []logistics.RemitoLineForPDF) []core.Row {
	cell := func(s string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(s, props.Text{Size: 8, Align: a, Top: 1, Left: 1, Right: 1}))
	}
	out := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		out = append(out, row.New(7).Add(
			cell(nonEmpty(l.SKU, "-"), 2, align.Left),
			cell(l.ProductName, 4, align.Left),
			cell(formatQty(l.Quantity), 1, align.Center),
			cell(formatQty(l.PreparedQuantity), 1, align.Center),
			cell(formatQty(l.DeliveredQuantity), 1, align.Center),
			cell("$"+formatMoney(l.UnitPrice), 1, align.Right),
			cell("$"+formatMoney(l.TotalPrice), 2, align.Right),
		))
	}
	return out
}

func totalsRow(remito *entity.OutboundRemito) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1, Top: top})
	}
	return row.New(20).Add(
		col.New(6),
		col.New(3).Add(
			label("Productos:"),
			text.New("Unidades:", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: 5}),
			text.New("VALOR TOTAL:", props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2, Top: 10,
			}),
		),
		col.New(3).Add(
			value(strconv.Itoa(remito.TotalProducts), 0),
			value(formatQty(remito.TotalQuantity), 5),
			text.New("$"+formatMoney(remito.TotalValue), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1, Top: 10,
			}),
		),
	)
}

// footerRow QR con el número del remito y espacio de firma.
func footerRow(remito *entity.OutboundRemito) core.Row {
	received := "Recibí conforme: ____________________________"
	if remito.SignatureName != "" {
		received = fmt.Sprintf("Recibido por: %s  (%s)", remito.SignatureName, nonEmpty(remito.SignatureDocument, "-"))
	}
	return row.New(40).Add(
		col.New(3).Add(code.NewQr(remito.Number, props.Rect{Percent: 95, Center: true})),
		col.New(9).Add(
			text.New(received, props.Text{Size: 9, Top: 8, Left: 3}),
			text.New("Aclaración y documento: ____________________", props.Text{Size: 9, Top: 18, Left: 3}),
			text.New("Documento no válido como factura.", props.Text{Size: 7, Top: 30, Left: 3, Color: colorGray}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney redondea a entero e inserta puntos de miles. Ej: 1000000 → "1.000.000".
func formatMoney(d decimal.Decimal) string {
	s := d.StringFixed(0)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	n := len(s)
	buf := make([]byte, 0, n+n/3+1)
	if neg {
		buf = append(buf, '-')
	}
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return string(buf)
}

// formatQty sin ceros decimales sobrantes: 2.5000 → "2.5", 3 → "3".
func formatQty(d decimal.Decimal) string {
	return d.String()
}
