package dialog

import (
	"context"
	"errors"

	"github.com/ordena-bot/server/internal/agent/catalog"
	"github.com/ordena-bot/server/internal/agent/model"
	"github.com/ordena-bot/server/internal/agent/schema"
	logx "github.com/ordena-bot/server/pkg/logger"
)

// deterministicTurn treats the message as the answer to the single pending
// field. A failed validation re-prompts the same field without advancing;
// success stores the value and moves the cursor to the next missing field,
// re-evaluating which fields are required (choosing pickup skips the
// address).
func (e *Engine) deterministicTurn(ctx context.Context, sess *model.Session, customerName, answer string, cat *catalog.Catalog) model.Reply {
	sess.Record(answer, e.maxHistory)

	pending := sess.Pending
	if _, ok := e.schema.ByName(pending); !ok || !fieldStillMissing(e.schema, sess.Order, pending) {
		// cursor drifted (catalog reload or replayed traffic); recompute
		missing := e.schema.MissingFields(sess.Order)
		if len(missing) == 0 {
			return e.completionCheck(ctx, sess, customerName, cat, nil)
		}
		pending = missing[0]
		sess.Pending = pending
	}

	field, _ := e.schema.ByName(pending)
	normalized, err := field.Validate(answer, cat, sess.Order)
	if err != nil {
		var fe *schema.FieldError
		if errors.As(err, &fe) {
			return model.TextReply(fe.Corrective)
		}
		logx.Error().Err(err).Str("field", pending).Msg("validator failed unexpectedly")
		return model.TextReply(msgSystemApology)
	}

	sess.Order.Set(pending, normalized)
	return e.completionCheck(ctx, sess, customerName, cat, nil)
}

func fieldStillMissing(s *schema.Schema, order model.PartialOrder, name string) bool {
	for _, missing := range s.MissingFields(order) {
		if missing == name {
			return true
		}
	}
	return false
}
