package dto

import "encoding/json"

// Optional campo de actualización parcial con tres estados:
// ausente (Set=false), null explícito (Set=true, Null=true) o con valor.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// UnmarshalJSON solo se invoca si la clave está presente en el cuerpo.
func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Null = true
		return nil
	}
	return json.Unmarshal(b, &o.Value)
}

// HasValue indica que se envió un valor no nulo.
func (o Optional[T]) HasValue() bool { return o.Set && !o.Null }

// Ptr devuelve nil para null explícito y un puntero al valor en otro caso.
func (o Optional[T]) Ptr() *T {
	if o.Null {
		return nil
	}
	v := o.Value
	return &v
}

// Some construye un Optional con valor.
func Some[T any](v T) Optional[T] { return Optional[T]{Set: true, Value: v} }

// Null construye un Optional con null explícito.
func Null[T any]() Optional[T] { return Optional[T]{Set: true, Null: true} }
