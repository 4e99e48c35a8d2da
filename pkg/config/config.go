package config

import (
	"errors"
	"time"

	"gamelink/internal/feed"
	"gamelink/internal/repository"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Repo     repository.Config `envPrefix:"REPO_"`
	Feed     feed.Config       `envPrefix:"FEED_"`
	Link     Link              `envPrefix:"LINK_"`
	Telegram Telegram          `envPrefix:"TELEGRAM_"`
	Sheets   Sheets            `envPrefix:"SHEETS_"`

	DiscordToken   string   `env:"DISCORD_TOKEN" envDefault:""`
	DiscordGuildID string   `env:"DISCORD_GUILD_ID" envDefault:""`
	AdminUserIDs   []string `env:"ADMIN_USER_IDS" envSeparator:"," envDefault:""`
	LogLevel       string   `env:"LOGGER_LEVEL" envDefault:"debug"`
}

// Link tunes the linking engine.
type Link struct {
	CodePrefix      string        `env:"CODE_PREFIX" envDefault:"BN"`
	CodeLength      int           `env:"CODE_LENGTH" envDefault:"6"`
	CodeTTL         time.Duration `env:"CODE_TTL" envDefault:"10m"`
	MaxCodeAttempts int           `env:"MAX_CODE_ATTEMPTS" envDefault:"5"`
	LookupTimeout   time.Duration `env:"LOOKUP_TIMEOUT" envDefault:"15s"`
	ChannelID       int64         `env:"CHANNEL_ID" envDefault:"2"`
	ChatTable       string        `env:"CHAT_TABLE" envDefault:"chat_message_state"`
	PlayerTable     string        `env:"PLAYER_TABLE" envDefault:"player_username_state"`
	SweepInterval   time.Duration `env:"SWEEP_INTERVAL" envDefault:"0s"`
}

type Telegram struct {
	Token        string  `env:"TOKEN" envDefault:""`
	AdminChatIDs []int64 `env:"ADMIN_CHAT_IDS" envSeparator:"," envDefault:""`
}

type Sheets struct {
	CredentialsFile string `env:"CREDENTIALS_FILE" envDefault:""`
	SpreadsheetID   string `env:"SPREADSHEET_ID" envDefault:""`
	OwnerEmail      string `env:"OWNER_EMAIL" envDefault:""`
}

func ReadEnvConfig(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return err
	}
	return cfg.Validate()
}

func (c *Config) Validate() error {
	switch {
	case c.Link.CodePrefix == "":
		return errors.New("LINK_CODE_PREFIX must not be empty")
	case c.Link.CodeLength <= 0:
		return errors.New("LINK_CODE_LENGTH must be positive")
	case c.Link.CodeTTL <= 0:
		return errors.New("LINK_CODE_TTL must be positive")
	case c.Link.MaxCodeAttempts <= 0:
		return errors.New("LINK_MAX_CODE_ATTEMPTS must be positive")
	case c.Link.LookupTimeout <= 0:
		return errors.New("LINK_LOOKUP_TIMEOUT must be positive")
	}
	return nil
}

// EffectiveSweepInterval falls back to half the code TTL.
func (l Link) EffectiveSweepInterval() time.Duration {
	if l.SweepInterval > 0 {
		return l.SweepInterval
	}
	return l.CodeTTL / 2
}
