package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ordena-bot/server/internal/agent/catalog"
	"github.com/ordena-bot/server/internal/agent/model"
	errx "github.com/ordena-bot/server/internal/core/error"
)

// Field declares one required order slot: how to ask for it, when it is
// required, and how to validate an answer. RequiredWhen must be deterministic
// given the current partial order so completeness never depends on the order
// fields were extracted in.
type Field struct {
	Name         string
	Prompt       func(cat *catalog.Catalog, order model.PartialOrder) string
	RequiredWhen func(order model.PartialOrder) bool
	Validate     func(value string, cat *catalog.Catalog, order model.PartialOrder) (string, error)
}

// FieldError is a field-level validation failure carrying the corrective
// prompt to send back to the customer.
type FieldError struct {
	Field      string
	Corrective string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %s", e.Field, e.Corrective)
}

// Unwrap ties every FieldError to the validation sentinel.
func (e *FieldError) Unwrap() error {
	return errx.ErrValidation
}

// Schema is the ordered slot set for a complete order. Declared order is the
// canonical question order.
type Schema struct {
	fields []Field
}

// New returns the order-capture schema: flavor, size, quantity, fulfillment
// mode, then address (required only for delivery).
func New() *Schema {
	return &Schema{fields: []Field{
		{
			Name: model.FieldFlavor,
			Prompt: func(cat *catalog.Catalog, _ model.PartialOrder) string {
				return fmt.Sprintf("¿Qué sabor deseas? (%s)", strings.Join(cat.Items(), ", "))
			},
			RequiredWhen: always,
			Validate: func(value string, cat *catalog.Catalog, _ model.PartialOrder) (string, error) {
				v := catalog.Normalize(value)
				if !cat.HasItem(v) {
					return "", &FieldError{
						Field:      model.FieldFlavor,
						Corrective: fmt.Sprintf("Sabor no válido. Prueba: %s.", strings.Join(cat.Items(), ", ")),
					}
				}
				return v, nil
			},
		},
		{
			Name: model.FieldSize,
			Prompt: func(cat *catalog.Catalog, order model.PartialOrder) string {
				return fmt.Sprintf("¿Qué tamaño deseas? (%s)", strings.Join(cat.Sizes(order.Get(model.FieldFlavor)), ", "))
			},
			RequiredWhen: always,
			Validate: func(value string, cat *catalog.Catalog, order model.PartialOrder) (string, error) {
				v := catalog.Normalize(value)
				item := order.Get(model.FieldFlavor)
				if !cat.HasSize(item, v) {
					return "", &FieldError{
						Field:      model.FieldSize,
						Corrective: fmt.Sprintf("Tamaño no válido. Prueba: %s.", strings.Join(cat.Sizes(item), ", ")),
					}
				}
				return v, nil
			},
		},
		{
			Name: model.FieldQuantity,
			Prompt: func(_ *catalog.Catalog, _ model.PartialOrder) string {
				return "¿Cuántas unidades deseas?"
			},
			RequiredWhen: always,
			Validate: func(value string, _ *catalog.Catalog, _ model.PartialOrder) (string, error) {
				n, err := strconv.Atoi(strings.TrimSpace(value))
				if err != nil || n <= 0 {
					return "", &FieldError{
						Field:      model.FieldQuantity,
						Corrective: "Por favor, indica un número válido de unidades.",
					}
				}
				return strconv.Itoa(n), nil
			},
		},
		{
			Name: model.FieldMode,
			Prompt: func(_ *catalog.Catalog, _ model.PartialOrder) string {
				return "¿Es para recoger o a domicilio?"
			},
			RequiredWhen: always,
			Validate: func(value string, _ *catalog.Catalog, _ model.PartialOrder) (string, error) {
				switch catalog.Normalize(value) {
				case model.ModePickup, "para recoger":
					return model.ModePickup, nil
				case model.ModeDelivery, "a domicilio", "delivery":
					return model.ModeDelivery, nil
				}
				return "", &FieldError{
					Field:      model.FieldMode,
					Corrective: "Responde con 'recoger' o 'a domicilio'.",
				}
			},
		},
		{
			Name: model.FieldAddress,
			Prompt: func(_ *catalog.Catalog, _ model.PartialOrder) string {
				return "Por favor, indícame tu dirección completa 🏠"
			},
			RequiredWhen: func(order model.PartialOrder) bool {
				return order.Get(model.FieldMode) == model.ModeDelivery
			},
			Validate: func(value string, _ *catalog.Catalog, _ model.PartialOrder) (string, error) {
				v := strings.TrimSpace(value)
				if v == "" {
					return "", &FieldError{
						Field:      model.FieldAddress,
						Corrective: "Por favor, indícame tu dirección completa 🏠",
					}
				}
				return v, nil
			},
		},
	}}
}

func always(model.PartialOrder) bool { return true }

// Names returns the declared field order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name
	}
	return out
}

// ByName returns the field definition for name.
func (s *Schema) ByName(name string) (Field, bool) {
	for _, f := range s.fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// MissingFields returns the unsatisfied required fields in declared order.
// This is the canonical "what to ask next" list for both strategies.
func (s *Schema) MissingFields(order model.PartialOrder) []string {
	var missing []string
	for _, f := range s.fields {
		if f.RequiredWhen(order) && !order.Has(f.Name) {
			missing = append(missing, f.Name)
		}
	}
	return missing
}

// IsComplete reports whether every required field is present and non-empty.
func (s *Schema) IsComplete(order model.PartialOrder) bool {
	return len(s.MissingFields(order)) == 0
}
