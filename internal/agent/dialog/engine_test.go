package dialog_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ordena-bot/server/internal/agent/catalog"
	"github.com/ordena-bot/server/internal/agent/dialog"
	"github.com/ordena-bot/server/internal/agent/finalize"
	"github.com/ordena-bot/server/internal/agent/model"
	"github.com/ordena-bot/server/internal/agent/schema"
	"github.com/ordena-bot/server/internal/agent/session"
	errx "github.com/ordena-bot/server/internal/core/error"
)

type fixedCatalog struct {
	mu  sync.Mutex
	cat *catalog.Catalog
}

func (f *fixedCatalog) Current() *catalog.Catalog {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cat
}

func (f *fixedCatalog) swap(c *catalog.Catalog) {
	f.mu.Lock()
	f.cat = c
	f.mu.Unlock()
}

type fakeExtractor struct {
	ext   *model.Extraction
	err   error
	calls int
}

func (f *fakeExtractor) Extract(_ context.Context, _ string, _ []string, _ *catalog.Catalog, _ model.PartialOrder, _ []string) (*model.Extraction, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.ext, nil
}

type fakeResponder struct {
	reply string
	calls int
}

func (f *fakeResponder) Respond(_ context.Context, _ string, _ *catalog.Catalog) string {
	f.calls++
	return f.reply
}

type countingLedger struct {
	mu   sync.Mutex
	rows []*model.FinalizedOrder
	err  error
}

func (l *countingLedger) Append(_ context.Context, order *model.FinalizedOrder) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.rows = append(l.rows, order)
	return nil
}

func (l *countingLedger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rows)
}

type fixture struct {
	engine    *dialog.Engine
	store     *session.Store
	catalogs  *fixedCatalog
	extractor *fakeExtractor
	responder *fakeResponder
	ledger    *countingLedger
}

func newFixture(strategy model.Strategy) *fixture {
	f := &fixture{
		store:     session.NewStore(strategy),
		catalogs:  &fixedCatalog{cat: catalog.DefaultMenu()},
		extractor: &fakeExtractor{ext: &model.Extraction{Reply: "ok"}},
		responder: &fakeResponder{reply: "Atendemos todos los días de 5:30pm a 10:30pm."},
		ledger:    &countingLedger{},
	}
	f.engine = dialog.New(dialog.Config{
		Store:        f.store,
		Schema:       schema.New(),
		Catalogs:     f.catalogs,
		Extractor:    f.extractor,
		Responder:    f.responder,
		Finalizer:    finalize.New(f.ledger),
		MaxHistory:   6,
		BusinessName: "Ustariz Pizza",
		MenuImageURL: "https://example.com/menu.png",
	})
	return f
}

func (f *fixture) send(t *testing.T, text string) string {
	t.Helper()
	reply := f.engine.Handle(context.Background(), model.Inbound{
		CustomerID:   "cust-1",
		CustomerName: "Ana",
		Message:      text,
	})
	require.NotEmpty(t, reply.Segments)
	return reply.Segments[0].Text
}

func (f *fixture) order(t *testing.T) model.PartialOrder {
	t.Helper()
	var order model.PartialOrder
	require.NoError(t, f.store.Do(context.Background(), "cust-1", func(sess *model.Session) error {
		order = sess.Order.Clone()
		return nil
	}))
	return order
}

func TestUnreadableInput(t *testing.T) {
	f := newFixture(model.StrategyDeterministic)

	for _, in := range []model.Inbound{
		{CustomerID: "", Message: "hola"},
		{CustomerID: "cust-1", Message: "   "},
	} {
		reply := f.engine.Handle(context.Background(), in)
		require.Len(t, reply.Segments, 1)
		assert.Equal(t, "No pude leer tu mensaje. Intenta de nuevo, por favor.", reply.Segments[0].Text)
	}
	assert.Equal(t, 0, f.store.Len(), "hard input errors must not create sessions")
}

func TestEmptyCatalogRefusesOrders(t *testing.T) {
	f := newFixture(model.StrategyDeterministic)
	empty, err := catalog.New(map[string]map[string]int{})
	require.NoError(t, err)
	f.catalogs.swap(empty)

	text := f.send(t, "hola")
	assert.Contains(t, text, "no estamos tomando pedidos")
	assert.Equal(t, 0, f.store.Len())
}

func TestGreetingStartsCapture(t *testing.T) {
	f := newFixture(model.StrategyDeterministic)

	reply := f.engine.Handle(context.Background(), model.Inbound{CustomerID: "cust-1", Message: "Hola!"})
	require.Len(t, reply.Segments, 1)
	assert.Contains(t, reply.Segments[0].Text, "¡Bienvenido a Ustariz Pizza!")
	assert.Contains(t, reply.Segments[0].Text, "¿Qué sabor deseas?")
	assert.Equal(t, "https://example.com/menu.png", reply.Segments[0].MediaURL)
	assert.Equal(t, 0, f.responder.calls, "greeting fast path bypasses the responder")
}

func TestGreetingFallsThroughToResponder(t *testing.T) {
	f := newFixture(model.StrategyDeterministic)

	text := f.send(t, "¿a qué hora abren?")
	assert.Equal(t, f.responder.reply, text)
	assert.Equal(t, 1, f.responder.calls)
	assert.Empty(t, f.order(t), "FAQ turns must not mutate order state")
}

func TestDeterministicHappyPath(t *testing.T) {
	f := newFixture(model.StrategyDeterministic)

	f.send(t, "quiero pizza")
	assert.Contains(t, f.send(t, "margarita"), "¿Qué tamaño deseas?")
	assert.Contains(t, f.send(t, "large"), "¿Cuántas unidades deseas?")
	assert.Contains(t, f.send(t, "2"), "¿Es para recoger o a domicilio?")
	assert.Contains(t, f.send(t, "a domicilio"), "dirección")

	text := f.send(t, "calle 10 # 5-20")
	assert.Contains(t, text, "Pedido confirmado")
	assert.Contains(t, text, "Total: $56,000")

	require.Equal(t, 1, f.ledger.count())
	row := f.ledger.rows[0]
	assert.Equal(t, "margarita", row.Flavor)
	assert.Equal(t, "large", row.Size)
	assert.Equal(t, 2, row.Quantity)
	assert.Equal(t, model.ModeDelivery, row.Mode)
	assert.Equal(t, 56000, row.Total)

	// session reset: a greeting is welcomed again instead of being treated
	// as an answer
	assert.Contains(t, f.send(t, "hola"), "¡Bienvenido")
}

func TestDeterministicInvalidAnswerDoesNotAdvance(t *testing.T) {
	f := newFixture(model.StrategyDeterministic)
	f.send(t, "hola")

	assert.Contains(t, f.send(t, "anchoas"), "Sabor no válido")
	assert.Empty(t, f.order(t))

	// same field accepts a corrected answer
	assert.Contains(t, f.send(t, "margarita"), "¿Qué tamaño deseas?")
	assert.Equal(t, "margarita", f.order(t).Get(model.FieldFlavor))
}

func TestDeterministicPickupSkipsAddress(t *testing.T) {
	f := newFixture(model.StrategyDeterministic)
	f.send(t, "hola")
	f.send(t, "pepperoni")
	f.send(t, "small")
	f.send(t, "1")

	text := f.send(t, "recoger")
	assert.Contains(t, text, "Pedido confirmado")
	assert.Contains(t, text, "Total: $20,000")

	require.Equal(t, 1, f.ledger.count())
	assert.Equal(t, "-", f.ledger.rows[0].Address)
}

func TestCancelResetsFromAnyState(t *testing.T) {
	f := newFixture(model.StrategyDeterministic)
	f.send(t, "hola")
	f.send(t, "margarita")
	f.send(t, "large")

	assert.Contains(t, f.send(t, "cancelar"), "cancelado")
	assert.Empty(t, f.order(t))
	assert.Contains(t, f.send(t, "hola"), "¡Bienvenido")
	assert.Equal(t, 0, f.ledger.count())
}

func TestExtractorMergeNeverRegressesKnownField(t *testing.T) {
	f := newFixture(model.StrategyExtractor)
	f.send(t, "hola")

	f.extractor.ext = &model.Extraction{
		Reply:   "¿Qué tamaño deseas?",
		Updates: map[string]string{model.FieldFlavor: "margarita"},
	}
	assert.Equal(t, "¿Qué tamaño deseas?", f.send(t, "quiero una margarita"))
	assert.Equal(t, "margarita", f.order(t).Get(model.FieldFlavor))

	// an extraction omitting sabor (and sending empty values) must leave it
	f.extractor.ext = &model.Extraction{
		Reply:   "¿Cuántas?",
		Updates: map[string]string{model.FieldFlavor: "", model.FieldSize: "large"},
	}
	f.send(t, "large")
	order := f.order(t)
	assert.Equal(t, "margarita", order.Get(model.FieldFlavor))
	assert.Equal(t, "large", order.Get(model.FieldSize))
}

func TestExtractorRejectsInvalidUpdates(t *testing.T) {
	f := newFixture(model.StrategyExtractor)
	f.send(t, "hola")

	f.extractor.ext = &model.Extraction{
		Reply: "anotado",
		Updates: map[string]string{
			model.FieldFlavor:   "calzone", // not on the menu
			model.FieldQuantity: "2",
		},
	}
	f.send(t, "un calzone y 2 unidades")

	order := f.order(t)
	assert.False(t, order.Has(model.FieldFlavor))
	assert.Equal(t, "2", order.Get(model.FieldQuantity))
}

func TestExtractorFailureLeavesOrderUntouched(t *testing.T) {
	f := newFixture(model.StrategyExtractor)
	f.send(t, "hola")

	f.extractor.ext = &model.Extraction{
		Reply:   "ok",
		Updates: map[string]string{model.FieldFlavor: "margarita"},
	}
	f.send(t, "una margarita")

	f.extractor.err = errx.ErrTransport
	text := f.send(t, "grande por favor")
	assert.Equal(t, "Lo siento, hubo un error procesando tu solicitud.", text)
	assert.Equal(t, "margarita", f.order(t).Get(model.FieldFlavor), "failed turn must not mutate the order")
}

func TestExtractorMergeCompletesAndFinalizes(t *testing.T) {
	f := newFixture(model.StrategyExtractor)
	f.send(t, "hola")

	// the extractor fills the slots across several turns
	turns := []map[string]string{
		{model.FieldFlavor: "margarita", model.FieldQuantity: "2"},
		{model.FieldSize: "large"},
		{model.FieldMode: "domicilio"},
		{model.FieldAddress: "calle 10 # 5-20"},
	}
	msgs := []string{"quiero 2 pizzas margarita", "large", "domicilio", "calle 10 # 5-20"}

	var last string
	for i, updates := range turns {
		f.extractor.ext = &model.Extraction{Reply: "sigo anotando", Updates: updates}
		last = f.send(t, msgs[i])
	}

	// the finalizer's confirmation overrides the strategy reply
	assert.Contains(t, last, "Pedido confirmado")
	assert.Contains(t, last, "Total: $56,000")
	require.Equal(t, 1, f.ledger.count())
	assert.Equal(t, 56000, f.ledger.rows[0].Total)
	assert.Empty(t, f.order(t), "session resets after finalization")
}

func TestFinalizeAtMostOnceUnderDuplicateDelivery(t *testing.T) {
	f := newFixture(model.StrategyDeterministic)
	f.send(t, "hola")
	f.send(t, "margarita")
	f.send(t, "large")
	f.send(t, "2")
	f.send(t, "a domicilio")

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.engine.Handle(context.Background(), model.Inbound{
				CustomerID:   "cust-1",
				CustomerName: "Ana",
				Message:      "calle 10 # 5-20",
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, f.ledger.count(), "duplicate delivery must not double-finalize")
}

func TestPricingFailureResetsSession(t *testing.T) {
	f := newFixture(model.StrategyDeterministic)
	f.send(t, "hola")
	f.send(t, "margarita")
	f.send(t, "large")
	f.send(t, "2")

	// the catalog is re-ingested without margarita while the session is live
	reloaded, err := catalog.New(map[string]map[string]int{
		"pepperoni": {"large": 30000},
	})
	require.NoError(t, err)
	f.catalogs.swap(reloaded)

	text := f.send(t, "recoger")
	assert.Contains(t, text, "ya no está disponible")
	assert.Equal(t, 0, f.ledger.count())
	assert.Empty(t, f.order(t), "stale orders are not resumed")
}

func TestLedgerFailureKeepsSessionForRetry(t *testing.T) {
	f := newFixture(model.StrategyDeterministic)
	f.send(t, "hola")
	f.send(t, "margarita")
	f.send(t, "large")
	f.send(t, "2")

	f.ledger.err = errors.New("sheet unavailable")
	text := f.send(t, "recoger")
	assert.Equal(t, "Lo siento, hubo un error procesando tu solicitud.", text)
	assert.Equal(t, 0, f.ledger.count())
	assert.True(t, f.order(t).Has(model.FieldFlavor), "completed slots survive a failed append")

	// once the ledger recovers, the next message retries finalization
	f.ledger.err = nil
	text = f.send(t, "listo?")
	assert.Contains(t, text, "Pedido confirmado")
	assert.Equal(t, 1, f.ledger.count())
}
