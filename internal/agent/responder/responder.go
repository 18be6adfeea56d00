package responder

import (
	"context"
	_ "embed"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/ordena-bot/server/internal/agent/catalog"
	logx "github.com/ordena-bot/server/pkg/logger"
)

//go:embed template/faq_prompt.txt
var faqPrompt string

// fallback answer when the model call fails; the FAQ path never surfaces an
// error to the customer.
const fallbackReply = "Lo siento, hubo un error procesando tu solicitud."

// Responder answers general questions (menu, opening hours, small talk) while
// no order is underway. It never mutates order state.
type Responder struct {
	cm      einomodel.BaseChatModel
	timeout time.Duration

	businessName string
	openingHours string
}

// New wraps the given chat model.
func New(cm einomodel.BaseChatModel, timeout time.Duration, businessName, openingHours string) *Responder {
	return &Responder{
		cm:           cm,
		timeout:      timeout,
		businessName: businessName,
		openingHours: openingHours,
	}
}

// Respond answers one free-form message against the live catalog.
func (r *Responder) Respond(ctx context.Context, message string, cat *catalog.Catalog) string {
	prompt := strings.NewReplacer(
		"{business_name}", r.businessName,
		"{menu}", cat.String(),
		"{opening_hours}", r.openingHours,
		"{message}", message,
	).Replace(faqPrompt)

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	out, err := r.cm.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		logx.Error().Err(err).Str("component", "responder").Msg("chat model call failed")
		return fallbackReply
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		return fallbackReply
	}
	return strings.TrimSpace(out.Content)
}
