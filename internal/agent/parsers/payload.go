package parsers

import (
	"encoding/json"
	"fmt"
	"strings"

	errx "github.com/ordena-bot/server/internal/core/error"
	logx "github.com/ordena-bot/server/pkg/logger"
)

// safety limit to avoid pathological model output
const maxContentLen = 64 * 1024 // 64KB

// OrderPayload is the structured segment the extractor model is asked to
// embed in its reply. Field values may arrive as strings or numbers; empty
// and null values mean "no update".
type OrderPayload struct {
	Reply  string
	Fields map[string]string
}

// ExtractPayload locates the first top-level JSON object inside free-form
// model text and decodes it. Models routinely prepend and append prose, so
// the scan takes the first opening brace and the last closing brace; if that
// span does not decode, it falls back to the balanced span starting at the
// first opening brace. Any failure is a typed malformed-payload error, never
// a panic.
func ExtractPayload(content string) (p *OrderPayload, err error) {
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "payload_parser").Msgf("panic recovered: %v", r)
			p = nil
			err = fmt.Errorf("%w: parser panic", errx.ErrMalformedPayload)
		}
	}()

	if len(content) > maxContentLen {
		logx.Warn().
			Str("component", "payload_parser").
			Int("orig_len", len(content)).
			Msg("content truncated due to size limit")
		content = content[:maxContentLen]
	}

	start := strings.IndexByte(content, '{')
	end := strings.LastIndexByte(content, '}')
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no object delimiters", errx.ErrMalformedPayload)
	}

	raw, derr := decodeObject(content[start : end+1])
	if derr != nil {
		span, ok := balancedSpan(content, start)
		if !ok {
			return nil, fmt.Errorf("%w: %v", errx.ErrMalformedPayload, derr)
		}
		if raw, derr = decodeObject(span); derr != nil {
			return nil, fmt.Errorf("%w: %v", errx.ErrMalformedPayload, derr)
		}
	}

	out := &OrderPayload{Fields: map[string]string{}}
	for key, value := range raw {
		key = strings.ToLower(strings.TrimSpace(key))
		switch v := value.(type) {
		case nil:
			// null means "no update"
		case string:
			v = strings.TrimSpace(v)
			if v == "" || strings.EqualFold(v, "null") {
				continue
			}
			if key == "reply" {
				out.Reply = v
			} else {
				out.Fields[key] = v
			}
		case float64:
			// JSON numbers decode as float64; slot values are kept as text
			if v == float64(int64(v)) {
				out.Fields[key] = fmt.Sprintf("%d", int64(v))
			} else {
				out.Fields[key] = fmt.Sprintf("%v", v)
			}
		case bool:
			out.Fields[key] = fmt.Sprintf("%t", v)
		default:
			// nested structures are not part of the contract; skip
		}
	}
	return out, nil
}

func decodeObject(span string) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(span), &m); err != nil {
		return nil, err
	}
	return m, nil
}

// balancedSpan returns the substring from start to the brace matching
// content[start], tracking string literals and escapes.
func balancedSpan(content string, start int) (string, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		c := content[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[start : i+1], true
			}
		}
	}
	return "", false
}
