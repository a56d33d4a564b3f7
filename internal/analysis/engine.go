// Package analysis folds ingested rows into the dashboard's summary views.
// Every function is pure: it reads the rows it is given and builds a fresh
// result, so callers recompute views whenever a filter or selection changes.
package analysis

import (
	"fmt"
	"strings"
)

// Actor class labels
const (
	ActorBot     = "Bot (Automação)"
	ActorWarRoom = "Sala de Guerra"
	ActorOther   = "Outros"
)

// Config holds ranking limits and the actor keyword sets
type Config struct {
	TopReasons      int      `json:"top_reasons" mapstructure:"top_reasons"`
	DrilldownTop    int      `json:"drilldown_top" mapstructure:"drilldown_top"`
	TopRecipients   int      `json:"top_recipients" mapstructure:"top_recipients"`
	BotKeywords     []string `json:"bot_keywords" mapstructure:"bot"`
	WarRoomKeywords []string `json:"war_room_keywords" mapstructure:"war_room"`
}

// DefaultConfig returns the dashboard's standard limits and keywords
func DefaultConfig() *Config {
	return &Config{
		TopReasons:      10,
		DrilldownTop:    5,
		TopRecipients:   5,
		BotKeywords:     []string{"NFERPABRAZIL", "S_RF_DFE", "RPA"},
		WarRoomKeywords: []string{"KATIANE", "CAROLAINE", "SOUZA"},
	}
}

// Validate checks if the analysis configuration is valid
func (c *Config) Validate() error {
	if c.TopReasons <= 0 {
		return fmt.Errorf("top reasons must be positive, got %d", c.TopReasons)
	}
	if c.DrilldownTop <= 0 {
		return fmt.Errorf("drill-down size must be positive, got %d", c.DrilldownTop)
	}
	if c.TopRecipients <= 0 {
		return fmt.Errorf("top recipients must be positive, got %d", c.TopRecipients)
	}
	if len(c.BotKeywords) == 0 {
		return fmt.Errorf("at least one bot keyword is required")
	}
	for _, k := range append(append([]string{}, c.BotKeywords...), c.WarRoomKeywords...) {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("actor keywords cannot be blank")
		}
	}
	return nil
}

// Engine computes the dashboard views under one configuration
type Engine struct {
	config  *Config
	bot     []string
	warRoom []string
}

// NewEngine creates an engine; a nil config uses DefaultConfig
func NewEngine(config *Config) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis configuration: %w", err)
	}
	return &Engine{
		config:  config,
		bot:     upper(config.BotKeywords),
		warRoom: upper(config.WarRoomKeywords),
	}, nil
}

// Config returns the engine's configuration
func (e *Engine) Config() *Config {
	return e.config
}

func upper(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToUpper(strings.TrimSpace(s))
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// ActorClass returns the actor label for a modifying-user identifier
func (e *Engine) ActorClass(modifiedBy string) string {
	who := strings.ToUpper(modifiedBy)
	switch {
	case containsAny(who, e.bot):
		return ActorBot
	case containsAny(who, e.warRoom):
		return ActorWarRoom
	default:
		return ActorOther
	}
}

// IsBot reports whether the identifier belongs to an automation account
func (e *Engine) IsBot(modifiedBy string) bool {
	return containsAny(strings.ToUpper(modifiedBy), e.bot)
}
