package dialog

import (
	"context"
	"strings"

	"github.com/ordena-bot/server/internal/agent/catalog"
	"github.com/ordena-bot/server/internal/agent/model"
	logx "github.com/ordena-bot/server/pkg/logger"
)

// extractorTurn hands the whole message to the extractor adapter and merges
// the returned updates additively: a field already known survives unless the
// extractor supplies a new, valid, non-empty value for it. The adapter's
// reply is relayed verbatim unless this turn completed the order.
func (e *Engine) extractorTurn(ctx context.Context, sess *model.Session, customerName, message string, cat *catalog.Catalog) model.Reply {
	sess.Record(message, e.maxHistory)

	missing := e.schema.MissingFields(sess.Order)
	ext, err := e.extractor.Extract(ctx, customerName, sess.History, cat, sess.Order.Clone(), missing)
	if err != nil {
		// the turn stays in history but the partial order is untouched
		logx.Warn().Err(err).Msg("extraction failed, order state unchanged")
		return model.TextReply(msgSystemApology)
	}

	e.applyUpdates(sess.Order, ext.Updates, cat)

	strategyReply := model.TextReply(ext.Reply)
	return e.completionCheck(ctx, sess, customerName, cat, &strategyReply)
}

// applyUpdates merges extractor updates in schema order so that dependent
// validators (size depends on flavor) see upstream values from the same
// pass. An update that fails validation is skipped, never clearing what is
// already known.
func (e *Engine) applyUpdates(order model.PartialOrder, updates map[string]string, cat *catalog.Catalog) {
	for _, name := range e.schema.Names() {
		value, ok := updates[name]
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		field, _ := e.schema.ByName(name)
		normalized, err := field.Validate(value, cat, order)
		if err != nil {
			logx.Debug().Str("field", name).Str("value", value).Msg("extractor update rejected by validator")
			continue
		}
		order.Set(name, normalized)
	}
}
