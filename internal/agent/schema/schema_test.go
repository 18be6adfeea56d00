package schema_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ordena-bot/server/internal/agent/catalog"
	"github.com/ordena-bot/server/internal/agent/model"
	"github.com/ordena-bot/server/internal/agent/schema"
	errx "github.com/ordena-bot/server/internal/core/error"
)

func menu(t *testing.T) *catalog.Catalog {
	t.Helper()
	return catalog.DefaultMenu()
}

func TestMissingFieldsDeclaredOrder(t *testing.T) {
	s := schema.New()

	missing := s.MissingFields(model.PartialOrder{})
	assert.Equal(t, []string{"sabor", "tamano", "cantidad", "modalidad"}, missing)

	order := model.PartialOrder{
		model.FieldFlavor: "margarita",
		model.FieldMode:   model.ModeDelivery,
	}
	missing = s.MissingFields(order)
	assert.Equal(t, []string{"tamano", "cantidad", "direccion"}, missing)
}

func TestIsCompleteDependsOnFulfillmentMode(t *testing.T) {
	s := schema.New()

	order := model.PartialOrder{
		model.FieldFlavor:   "margarita",
		model.FieldSize:     "large",
		model.FieldQuantity: "2",
		model.FieldMode:     model.ModeDelivery,
	}
	assert.False(t, s.IsComplete(order), "delivery without address must be incomplete")

	order[model.FieldMode] = model.ModePickup
	assert.True(t, s.IsComplete(order), "pickup without address must be complete")

	order[model.FieldMode] = model.ModeDelivery
	order[model.FieldAddress] = "calle 10 # 5-20"
	assert.True(t, s.IsComplete(order))
}

func TestEmptyValueIsNeverProvided(t *testing.T) {
	s := schema.New()
	order := model.PartialOrder{
		model.FieldFlavor:   "margarita",
		model.FieldSize:     "large",
		model.FieldQuantity: "2",
		model.FieldMode:     "  ",
	}
	assert.False(t, s.IsComplete(order))
	assert.Contains(t, s.MissingFields(order), model.FieldMode)
}

func TestFlavorValidator(t *testing.T) {
	s := schema.New()
	field, ok := s.ByName(model.FieldFlavor)
	require.True(t, ok)

	v, err := field.Validate("  Margarita ", menu(t), model.PartialOrder{})
	require.NoError(t, err)
	assert.Equal(t, "margarita", v)

	_, err = field.Validate("anchoas", menu(t), model.PartialOrder{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errx.ErrValidation)

	var fe *schema.FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, model.FieldFlavor, fe.Field)
	assert.NotEmpty(t, fe.Corrective)
}

func TestSizeValidatorUsesSelectedFlavor(t *testing.T) {
	s := schema.New()
	field, ok := s.ByName(model.FieldSize)
	require.True(t, ok)
	order := model.PartialOrder{model.FieldFlavor: "margarita"}

	v, err := field.Validate("LARGE", menu(t), order)
	require.NoError(t, err)
	assert.Equal(t, "large", v)

	_, err = field.Validate("gigante", menu(t), order)
	assert.ErrorIs(t, err, errx.ErrValidation)
}

func TestQuantityValidator(t *testing.T) {
	s := schema.New()
	field, ok := s.ByName(model.FieldQuantity)
	require.True(t, ok)

	for _, bad := range []string{"cero", "0", "-3", "2.5", ""} {
		_, err := field.Validate(bad, menu(t), model.PartialOrder{})
		assert.ErrorIs(t, err, errx.ErrValidation, "quantity %q", bad)
	}

	v, err := field.Validate(" 3 ", menu(t), model.PartialOrder{})
	require.NoError(t, err)
	assert.Equal(t, "3", v)
}

func TestModeValidatorNormalises(t *testing.T) {
	s := schema.New()
	field, ok := s.ByName(model.FieldMode)
	require.True(t, ok)

	cases := map[string]string{
		"recoger":     model.ModePickup,
		"A Domicilio": model.ModeDelivery,
		"domicilio":   model.ModeDelivery,
		"delivery":    model.ModeDelivery,
	}
	for in, want := range cases {
		v, err := field.Validate(in, menu(t), model.PartialOrder{})
		require.NoError(t, err, in)
		assert.Equal(t, want, v)
	}

	_, err := field.Validate("en bicicleta", menu(t), model.PartialOrder{})
	assert.ErrorIs(t, err, errx.ErrValidation)
}
