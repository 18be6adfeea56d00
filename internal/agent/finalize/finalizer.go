package finalize

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ordena-bot/server/internal/agent/catalog"
	"github.com/ordena-bot/server/internal/agent/model"
	errx "github.com/ordena-bot/server/internal/core/error"
	logx "github.com/ordena-bot/server/pkg/logger"
)

// Finalizer prices a complete slot set and appends exactly one row to the
// ledger. The engine must only call it once IsComplete holds, and must reset
// the session in the same critical section that a successful finalize runs
// in, so at most one finalized order exists per completed partial order.
type Finalizer struct {
	ledger model.LedgerRepository
}

// New creates a finalizer writing to the given ledger.
func New(ledger model.LedgerRepository) *Finalizer {
	return &Finalizer{ledger: ledger}
}

// Finalize prices the order against the catalog in effect now and appends
// the snapshot to the ledger. The catalog may have been reloaded since the
// session started, so lookups can legitimately miss. The ledger append must
// succeed before the caller resets the session; a failed append returns an
// error and the completed slots survive for a retry.
func (f *Finalizer) Finalize(
	ctx context.Context,
	order model.PartialOrder,
	cat *catalog.Catalog,
	customerName string,
) (*model.FinalizedOrder, error) {
	price, err := cat.Price(order.Get(model.FieldFlavor), order.Get(model.FieldSize))
	if err != nil {
		return nil, err
	}

	quantity, err := strconv.Atoi(order.Get(model.FieldQuantity))
	if err != nil || quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity %q", errx.ErrValidation, order.Get(model.FieldQuantity))
	}

	address := order.Get(model.FieldAddress)
	if address == "" {
		address = "-"
	}

	fo := &model.FinalizedOrder{
		ID:           uuid.New(),
		CustomerName: customerName,
		Flavor:       order.Get(model.FieldFlavor),
		Size:         order.Get(model.FieldSize),
		Quantity:     quantity,
		Mode:         order.Get(model.FieldMode),
		Address:      address,
		Total:        price * quantity,
		CreatedAt:    time.Now().UTC(),
	}

	if err := f.ledger.Append(ctx, fo); err != nil {
		logx.Error().Err(err).Str("order_id", fo.ID.String()).Msg("ledger append failed")
		return nil, fmt.Errorf("%w: %v", errx.ErrLedger, err)
	}

	logx.Info().
		Str("order_id", fo.ID.String()).
		Str("customer", customerName).
		Int("total", fo.Total).
		Msg("order finalized")
	return fo, nil
}

// Summary renders the customer-facing confirmation for a finalized order.
func Summary(fo *model.FinalizedOrder) string {
	return fmt.Sprintf(`🧾 Pedido confirmado:
- %d Pizza %s (%s)
- Modalidad: %s
- Dirección: %s
- Total: $%s`,
		fo.Quantity,
		title(fo.Flavor),
		title(fo.Size),
		fo.Mode,
		fo.Address,
		formatThousands(fo.Total),
	)
}

func title(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] = r[0] - 'a' + 'A'
	}
	return string(r)
}

// formatThousands renders 56000 as "56,000".
func formatThousands(n int) string {
	s := strconv.Itoa(n)
	if n < 0 {
		return s
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return string(out)
}
