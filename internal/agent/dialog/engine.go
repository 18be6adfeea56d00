package dialog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ordena-bot/server/internal/agent/catalog"
	"github.com/ordena-bot/server/internal/agent/finalize"
	"github.com/ordena-bot/server/internal/agent/model"
	"github.com/ordena-bot/server/internal/agent/schema"
	"github.com/ordena-bot/server/internal/agent/session"
	errx "github.com/ordena-bot/server/internal/core/error"
	logx "github.com/ordena-bot/server/pkg/logger"
)

// Fixed user-facing texts for the conditions no strategy handles.
const (
	msgUnreadable    = "No pude leer tu mensaje. Intenta de nuevo, por favor."
	msgUnavailable   = "Lo sentimos, por el momento no estamos tomando pedidos. 🙏"
	msgCanceled      = "Tu pedido fue cancelado. Escríbenos cuando quieras empezar de nuevo. 👋"
	msgPricingFailed = "Lo sentimos, ese producto ya no está disponible. Tu pedido fue reiniciado. 🙏"
	msgSystemApology = "Lo siento, hubo un error procesando tu solicitud."
)

// greeting / purchase-intent tokens that start order capture from the
// greeting state.
var intentTokens = []string{"hola", "pizza", "quiero"}

// cancel control messages, recognized before any field processing.
var cancelTokens = []string{"cancelar", "cancel"}

// CatalogProvider yields the catalog in effect for the current turn. The
// engine re-fetches it every turn because the backing document can be
// re-ingested while sessions are in flight.
type CatalogProvider interface {
	Current() *catalog.Catalog
}

// Extractor is the language-model order extraction boundary.
type Extractor interface {
	Extract(
		ctx context.Context,
		customerName string,
		history []string,
		cat *catalog.Catalog,
		current model.PartialOrder,
		missing []string,
	) (*model.Extraction, error)
}

// Responder answers free-form messages while no order is underway.
type Responder interface {
	Respond(ctx context.Context, message string, cat *catalog.Catalog) string
}

// Config wires the engine's collaborators.
type Config struct {
	Store        *session.Store
	Schema       *schema.Schema
	Catalogs     CatalogProvider
	Extractor    Extractor
	Responder    Responder
	Finalizer    *finalize.Finalizer
	MaxHistory   int
	BusinessName string
	MenuImageURL string
}

// Engine advances per-customer sessions one inbound message at a time. Both
// strategies converge on the same completion test and finalize path; the
// whole turn runs under the session store's per-customer lock, so duplicate
// deliveries of a final message cannot double-finalize.
type Engine struct {
	store        *session.Store
	schema       *schema.Schema
	catalogs     CatalogProvider
	extractor    Extractor
	responder    Responder
	finalizer    *finalize.Finalizer
	maxHistory   int
	businessName string
	menuImageURL string
}

// New builds the engine from its collaborators.
func New(cfg Config) *Engine {
	maxHistory := cfg.MaxHistory
	if maxHistory <= 0 {
		maxHistory = 6
	}
	return &Engine{
		store:        cfg.Store,
		schema:       cfg.Schema,
		catalogs:     cfg.Catalogs,
		extractor:    cfg.Extractor,
		responder:    cfg.Responder,
		finalizer:    cfg.Finalizer,
		maxHistory:   maxHistory,
		businessName: cfg.BusinessName,
		menuImageURL: cfg.MenuImageURL,
	}
}

// Handle processes one inbound turn and always returns a well-formed reply;
// every failure class maps to a fixed user-facing text.
func (e *Engine) Handle(ctx context.Context, in model.Inbound) model.Reply {
	message := strings.TrimSpace(in.Message)
	if strings.TrimSpace(in.CustomerID) == "" || message == "" {
		return model.TextReply(msgUnreadable)
	}

	cat := e.catalogs.Current()
	if cat.Empty() {
		logx.Warn().Str("customer_id", in.CustomerID).Msg("refusing order, catalog is empty")
		return model.TextReply(msgUnavailable)
	}

	lower := strings.ToLower(message)
	reply := model.TextReply(msgSystemApology)

	err := e.store.Do(ctx, in.CustomerID, func(sess *model.Session) error {
		sess.Touch(time.Now())

		if isCancel(lower) {
			sess.Reset()
			reply = model.TextReply(msgCanceled)
			return nil
		}

		if sess.State == model.StateGreeting {
			reply = e.greetingTurn(ctx, sess, message, lower, cat)
			return nil
		}

		switch sess.Strategy {
		case model.StrategyExtractor:
			reply = e.extractorTurn(ctx, sess, in.CustomerName, message, cat)
		default:
			reply = e.deterministicTurn(ctx, sess, in.CustomerName, lower, cat)
		}
		return nil
	})
	if err != nil {
		logx.Error().Err(err).Str("customer_id", in.CustomerID).Msg("session turn aborted")
		return model.TextReply(msgSystemApology)
	}
	return reply
}

// greetingTurn gives a deterministic, fast first response: a recognized
// greeting or purchase intent starts order capture with a fixed welcome
// prompt; anything else goes to the FAQ responder without touching order
// state.
func (e *Engine) greetingTurn(ctx context.Context, sess *model.Session, message, lower string, cat *catalog.Catalog) model.Reply {
	sess.Record(message, e.maxHistory)

	if !hasIntentToken(lower) {
		return model.TextReply(e.responder.Respond(ctx, message, cat))
	}

	sess.State = model.StateCollecting
	missing := e.schema.MissingFields(sess.Order)
	sess.Pending = missing[0]
	field, _ := e.schema.ByName(missing[0])

	welcome := model.Segment{
		Text:     "🍕 ¡Bienvenido a " + e.businessName + "! " + field.Prompt(cat, sess.Order),
		MediaURL: e.menuImageURL,
	}
	return model.Reply{Segments: []model.Segment{welcome}}
}

// completionCheck is the shared tail of both strategies: finalize when the
// slot set is complete, otherwise advance the cursor and return the
// strategy's reply (or the next prompt when the strategy has none).
func (e *Engine) completionCheck(ctx context.Context, sess *model.Session, customerName string, cat *catalog.Catalog, strategyReply *model.Reply) model.Reply {
	missing := e.schema.MissingFields(sess.Order)
	if len(missing) == 0 {
		return e.complete(ctx, sess, customerName, cat)
	}

	sess.Pending = missing[0]
	if strategyReply != nil {
		return *strategyReply
	}
	field, _ := e.schema.ByName(missing[0])
	return model.TextReply(field.Prompt(cat, sess.Order))
}

// complete prices, persists and resets in one step. The reset happens in the
// same critical section as the ledger append, which is what makes
// finalization at-most-once under duplicate delivery.
func (e *Engine) complete(ctx context.Context, sess *model.Session, customerName string, cat *catalog.Catalog) model.Reply {
	fo, err := e.finalizer.Finalize(ctx, sess.Order, cat, customerName)
	switch {
	case err == nil:
		sess.Reset()
		return model.TextReply(finalize.Summary(fo))
	case errors.Is(err, errx.ErrLedger):
		// the order was not durably recorded; keep the completed slots so the
		// next message retries finalization instead of silently losing it
		return model.TextReply(msgSystemApology)
	case errors.Is(err, errx.ErrUnknownItem), errors.Is(err, errx.ErrUnknownSize), errors.Is(err, errx.ErrCatalogEmpty):
		// the catalog moved under the session; resuming against stale keys is
		// not attempted
		sess.Reset()
		return model.TextReply(msgPricingFailed)
	default:
		sess.Reset()
		return model.TextReply(msgSystemApology)
	}
}

func isCancel(lower string) bool {
	for _, t := range cancelTokens {
		if lower == t {
			return true
		}
	}
	return false
}

func hasIntentToken(lower string) bool {
	for _, t := range intentTokens {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}
