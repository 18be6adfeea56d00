package catalog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	logx "github.com/ordena-bot/server/pkg/logger"
)

// parse limits; a price-list document should never get near these.
const (
	maxLineLen = 1024
	maxLines   = 2000
)

// ParsePriceList reads a "name $price" style document, one entry per line:
//
//	margarita large $28000
//	limonada $5000
//
// The last whitespace-separated token must be the price prefixed with '$'.
// When two or more name tokens precede it, the final one is taken as the
// size; otherwise the unit sentinel is used. Blank lines and '#' comments are
// skipped.
func ParsePriceList(r io.Reader) (*Catalog, error) {
	prices := map[string]map[string]int{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, maxLineLen), maxLineLen)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo > maxLines {
			return nil, fmt.Errorf("price list: too many lines")
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		last := fields[len(fields)-1]
		if len(fields) < 2 || !strings.HasPrefix(last, "$") {
			return nil, fmt.Errorf("price list line %d: expected 'name $price', got %q", lineNo, line)
		}
		price, err := strconv.Atoi(strings.ReplaceAll(strings.TrimPrefix(last, "$"), ",", ""))
		if err != nil || price < 0 {
			return nil, fmt.Errorf("price list line %d: bad price %q", lineNo, last)
		}

		name := fields[:len(fields)-1]
		item, size := strings.Join(name, " "), UnitSize
		if len(name) >= 2 {
			item = strings.Join(name[:len(name)-1], " ")
			size = name[len(name)-1]
		}
		item, size = Normalize(item), Normalize(size)
		if prices[item] == nil {
			prices[item] = map[string]int{}
		}
		prices[item][size] = price
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("price list: %w", err)
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("price list: no entries")
	}
	return New(prices)
}

// Loader holds the process-wide catalog and supports document re-ingestion.
// A failed reload keeps the last-known-good catalog rather than leaving it
// empty.
type Loader struct {
	mu      sync.RWMutex
	current *Catalog
}

// NewLoader starts with the given catalog as last-known-good.
func NewLoader(initial *Catalog) *Loader {
	return &Loader{current: initial}
}

// Current returns the catalog in effect for this turn. Sessions must not
// cache it across turns; finalize-time lookups can legitimately miss after a
// reload.
func (l *Loader) Current() *Catalog {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Reload re-ingests the price-list document at path. On any failure the
// previous catalog stays in effect and the error is logged and returned.
func (l *Loader) Reload(path string) error {
	f, err := os.Open(path)
	if err != nil {
		logx.Error().Err(err).Str("path", path).Msg("catalog reload failed, keeping last known good")
		return err
	}
	defer f.Close()

	cat, err := ParsePriceList(f)
	if err != nil {
		logx.Error().Err(err).Str("path", path).Msg("catalog parse failed, keeping last known good")
		return err
	}

	l.mu.Lock()
	l.current = cat
	l.mu.Unlock()
	logx.Info().Str("path", path).Int("items", len(cat.Items())).Msg("catalog reloaded")
	return nil
}
