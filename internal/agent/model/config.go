package model

// ================ Config ================
type DialogConfig struct {
	Strategy     string `envconfig:"DIALOG_STRATEGY" default:"deterministic"`
	MaxHistory   int    `envconfig:"DIALOG_MAX_HISTORY" default:"6"`
	BusinessName string `envconfig:"DIALOG_BUSINESS_NAME" default:"Ustariz Pizza"`
	OpeningHours string `envconfig:"DIALOG_OPENING_HOURS" default:"todos los días de 5:30pm a 10:30pm"`
	MenuImageURL string `envconfig:"DIALOG_MENU_IMAGE_URL"`
}

type ExtractorModelConfig struct {
	Model       string  `envconfig:"EXTRACTOR_MODEL" default:"gpt-3.5-turbo"`
	MaxTokens   int     `envconfig:"EXTRACTOR_MAX_TOKENS" default:"600"`
	Temperature float32 `envconfig:"EXTRACTOR_TEMPERATURE" default:"0.2"`
	Timeout     string  `envconfig:"EXTRACTOR_TIMEOUT" default:"20s"`
}

type ResponderModelConfig struct {
	Model       string  `envconfig:"RESPONDER_MODEL" default:"gpt-3.5-turbo"`
	MaxTokens   int     `envconfig:"RESPONDER_MAX_TOKENS" default:"400"`
	Temperature float32 `envconfig:"RESPONDER_TEMPERATURE" default:"0.7"`
}

type CatalogConfig struct {
	// Path to an optional "name $price" price-list document. When empty the
	// built-in menu is used.
	Path string `envconfig:"CATALOG_PATH"`
}

type LedgerConfig struct {
	Key string `envconfig:"LEDGER_KEY" default:"orders:ledger"`
}
