package entity

import "time"

// Etapas de trazabilidad.
const (
	StageFabricacion    = "fabricacion"
	StageControlCalidad = "control_calidad"
	StageAlmacenamiento = "almacenamiento"
	StagePreparacion    = "preparacion"
	StageDespacho       = "despacho"
	StageTransito       = "transito"
	StageEntrega        = "entrega"
	StageDevuelto       = "devuelto"
)

// TrazabilidadEntry registro de etapa por producto. Solo StageEnd se modifica tras crearse.
type TrazabilidadEntry struct {
	ID                string
	RemitoID          string
	ProductID         string
	Stage             string
	Location          string
	ResponsibleUserID *string // nil: originado por el sistema
	ResponsibleName   string
	StageStart        time.Time
	StageEnd          *time.Time
	Temperature       *float64
	Humidity          *float64
	QualityNotes      *string
	IsAutomatic       bool
	Notes             *string
}
