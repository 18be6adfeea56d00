package extractor

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/ordena-bot/server/internal/agent/catalog"
	"github.com/ordena-bot/server/internal/agent/model"
	"github.com/ordena-bot/server/internal/agent/parsers"
	errx "github.com/ordena-bot/server/internal/core/error"
	logx "github.com/ordena-bot/server/pkg/logger"
)

//go:embed template/extract_prompt.txt
var extractPrompt string

// ApologyReply is sent when the model's reply segment is missing or the call
// failed; the structured payload itself is never shown to the customer.
const ApologyReply = "Lo siento, hubo un error procesando tu solicitud."

// Adapter is the only component that talks to the language-model boundary
// for order extraction. It builds a bounded prompt, enforces a timeout, and
// converts every failure into a typed extraction error.
type Adapter struct {
	cm      einomodel.BaseChatModel
	timeout time.Duration

	businessName string
	openingHours string
	fields       []string // schema field names the payload may set
}

// Config carries the prompt facts and bounds for the adapter.
type Config struct {
	Timeout      time.Duration
	BusinessName string
	OpeningHours string
	Fields       []string
}

// New wraps the given chat model.
func New(cm einomodel.BaseChatModel, cfg Config) *Adapter {
	return &Adapter{
		cm:           cm,
		timeout:      cfg.Timeout,
		businessName: cfg.BusinessName,
		openingHours: cfg.OpeningHours,
		fields:       cfg.Fields,
	}
}

// Extract runs one extraction turn. History must already be bounded to the
// most recent messages by the caller; missing is the schema's what-to-ask-next
// hint. The returned updates contain only non-empty values for known fields,
// so merging them can never regress the partial order.
func (a *Adapter) Extract(
	ctx context.Context,
	customerName string,
	history []string,
	cat *catalog.Catalog,
	current model.PartialOrder,
	missing []string,
) (*model.Extraction, error) {
	prompt := a.buildPrompt(customerName, history, cat, current, missing)

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	out, err := a.cm.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		logx.Error().Err(err).Str("component", "extractor").Msg("chat model call failed")
		return nil, fmt.Errorf("%w: %v", errx.ErrTransport, err)
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		return nil, fmt.Errorf("%w: empty completion", errx.ErrTransport)
	}

	payload, err := parsers.ExtractPayload(out.Content)
	if err != nil {
		logx.Warn().Err(err).Str("component", "extractor").Msg("no parseable payload in completion")
		return nil, err
	}

	updates := make(map[string]string, len(payload.Fields))
	for _, name := range a.fields {
		if v, ok := payload.Fields[name]; ok {
			updates[name] = v
		}
	}

	reply := payload.Reply
	if reply == "" {
		reply = ApologyReply
	}
	return &model.Extraction{Reply: reply, Updates: updates}, nil
}

func (a *Adapter) buildPrompt(
	customerName string,
	history []string,
	cat *catalog.Catalog,
	current model.PartialOrder,
	missing []string,
) string {
	known := make([]string, 0, len(a.fields))
	for _, name := range a.fields {
		if current.Has(name) {
			known = append(known, fmt.Sprintf("%s: %s", name, current.Get(name)))
		}
	}
	if len(known) == 0 {
		known = append(known, "(ninguno)")
	}
	if len(missing) == 0 {
		missing = []string{"(ninguno)"}
	}
	if customerName == "" {
		customerName = "cliente"
	}

	return strings.NewReplacer(
		"{business_name}", a.businessName,
		"{opening_hours}", a.openingHours,
		"{menu}", cat.String(),
		"{customer_name}", customerName,
		"{known_fields}", strings.Join(known, "\n"),
		"{missing_fields}", strings.Join(missing, ", "),
		"{history}", "- "+strings.Join(history, "\n- "),
	).Replace(extractPrompt)
}
