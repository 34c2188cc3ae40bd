package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	ContactFromPayer  = "payer"
	ContactFromLedger = "ledger"
)

type Config struct {
	Port        string
	Environment string

	GatewayToken   string
	GatewayURL     string
	GatewayTimeout time.Duration

	ResendAPIKey  string
	FromEmail     string
	ContactURL    string
	ContactSource string

	SpreadsheetID       string
	SheetName           string
	ServiceAccountJSON  string
	ServiceAccountEmail string
	PrivateKey          string

	ReturnURLBase       string
	NotificationURL     string
	Currency            string
	StatementDescriptor string
	DefaultTaxIDType    string

	DailyRate   decimal.Decimal
	MonthlyRate decimal.Decimal
	HourlyRate  decimal.Decimal

	AllowedOrigins []string

	EventsDriver string
	KafkaBrokers string
	NatsURL      string
	OTLPEndpoint string

	Sandbox SandboxCard
}

// SandboxCard is the gateway test card charged by the sandbox payment route.
// Leaving the number empty disables the route.
type SandboxCard struct {
	Number          string
	ExpirationMonth string
	ExpirationYear  string
	SecurityCode    string
	HolderName      string
	HolderTaxID     string
	PaymentMethodID string
	PayerEmail      string
}

// Load reads .env files (when present) and then the process environment.
func Load() *Config {
	// godotenv never overrides variables that are already set, so
	// .env.local wins over .env and the real environment wins over both.
	for _, f := range []string{".env.local", ".env"} {
		_ = godotenv.Load(f)
	}

	env := getenv("ENVIRONMENT", getenv("NODE_ENV", EnvDevelopment))

	returnBase := "http://localhost:5173"
	if env == EnvProduction {
		returnBase = "https://coworking-navy.vercel.app"
	}

	return &Config{
		Port:        getenv("PORT", "5000"),
		Environment: env,

		GatewayToken:   os.Getenv("MERCADOPAGO_ACCESS_TOKEN"),
		GatewayURL:     getenv("MERCADOPAGO_API_URL", "https://api.mercadopago.com"),
		GatewayTimeout: getDuration("GATEWAY_TIMEOUT", 15*time.Second),

		ResendAPIKey:  os.Getenv("RESEND_API_KEY"),
		FromEmail:     getenv("FROM_EMAIL", "coworking@exemplo.com"),
		ContactURL:    os.Getenv("CONTACT_URL"),
		ContactSource: getenv("NOTIFY_CONTACT_SOURCE", ContactFromPayer),

		SpreadsheetID:       os.Getenv("GOOGLE_SPREADSHEET_ID"),
		SheetName:           getenv("GOOGLE_SHEET_NAME", "Reservas"),
		ServiceAccountJSON:  os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		ServiceAccountEmail: os.Getenv("GOOGLE_SERVICE_ACCOUNT_EMAIL"),
		PrivateKey:          strings.ReplaceAll(os.Getenv("GOOGLE_PRIVATE_KEY"), `\n`, "\n"),

		ReturnURLBase:       strings.TrimRight(getenv("RETURN_URL_BASE", returnBase), "/"),
		NotificationURL:     os.Getenv("NOTIFICATION_URL"),
		Currency:            getenv("CURRENCY", "BRL"),
		StatementDescriptor: getenv("STATEMENT_DESCRIPTOR", "COWORKING"),
		DefaultTaxIDType:    getenv("DEFAULT_TAX_ID_TYPE", "CPF"),

		DailyRate:   getDecimal("RATE_DAILY", decimal.NewFromInt(1)),
		MonthlyRate: getDecimal("RATE_MONTHLY", decimal.NewFromInt(1)),
		HourlyRate:  getDecimal("RATE_HOURLY", decimal.NewFromInt(1)),

		AllowedOrigins: splitList(getenv("ALLOWED_ORIGINS", "*")),

		EventsDriver: os.Getenv("EVENTS_DRIVER"),
		KafkaBrokers: os.Getenv("KAFKA_BROKERS"),
		NatsURL:      os.Getenv("NATS_URL"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),

		Sandbox: SandboxCard{
			Number:          os.Getenv("SANDBOX_CARD_NUMBER"),
			ExpirationMonth: os.Getenv("SANDBOX_CARD_EXPIRATION_MONTH"),
			ExpirationYear:  os.Getenv("SANDBOX_CARD_EXPIRATION_YEAR"),
			SecurityCode:    os.Getenv("SANDBOX_CARD_CVV"),
			HolderName:      getenv("SANDBOX_CARDHOLDER_NAME", "APRO"),
			HolderTaxID:     os.Getenv("SANDBOX_CARDHOLDER_TAX_ID"),
			PaymentMethodID: os.Getenv("SANDBOX_PAYMENT_METHOD"),
			PayerEmail:      os.Getenv("SANDBOX_PAYER_EMAIL"),
		},
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.GatewayToken == "" {
		errs = append(errs, errors.New("MERCADOPAGO_ACCESS_TOKEN is required"))
	}
	if c.ContactSource != ContactFromPayer && c.ContactSource != ContactFromLedger {
		errs = append(errs, errors.New("NOTIFY_CONTACT_SOURCE must be payer or ledger"))
	}
	if c.ContactSource == ContactFromLedger && !c.LedgerEnabled() {
		errs = append(errs, errors.New("NOTIFY_CONTACT_SOURCE=ledger requires GOOGLE_SPREADSHEET_ID"))
	}
	if c.LedgerEnabled() && c.ServiceAccountJSON == "" && (c.ServiceAccountEmail == "" || c.PrivateKey == "") {
		errs = append(errs, errors.New("ledger credentials missing: set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_EMAIL and GOOGLE_PRIVATE_KEY"))
	}
	switch c.EventsDriver {
	case "":
	case "kafka":
		if c.KafkaBrokers == "" {
			errs = append(errs, errors.New("EVENTS_DRIVER=kafka requires KAFKA_BROKERS"))
		}
	case "nats":
		if c.NatsURL == "" {
			errs = append(errs, errors.New("EVENTS_DRIVER=nats requires NATS_URL"))
		}
	default:
		errs = append(errs, errors.New("EVENTS_DRIVER must be kafka, nats or empty"))
	}
	if c.SandboxEnabled() {
		sb := c.Sandbox
		if sb.ExpirationMonth == "" || sb.ExpirationYear == "" || sb.SecurityCode == "" || sb.HolderTaxID == "" || sb.PaymentMethodID == "" || sb.PayerEmail == "" {
			errs = append(errs, errors.New("SANDBOX_CARD_NUMBER requires the SANDBOX_CARD_EXPIRATION_*, SANDBOX_CARD_CVV, SANDBOX_CARDHOLDER_TAX_ID, SANDBOX_PAYMENT_METHOD and SANDBOX_PAYER_EMAIL variables"))
		}
	}
	for _, rate := range []decimal.Decimal{c.DailyRate, c.MonthlyRate, c.HourlyRate} {
		if !rate.IsPositive() {
			errs = append(errs, errors.New("rates must be positive"))
			break
		}
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

func (c *Config) LedgerEnabled() bool {
	return c.SpreadsheetID != ""
}

// SandboxEnabled reports whether the sandbox payment route has a card to
// charge. It is never enabled in production.
func (c *Config) SandboxEnabled() bool {
	return c.Sandbox.Number != "" && !c.IsProduction()
}

func (c *Config) EmailEnabled() bool {
	return c.ResendAPIKey != ""
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	d, err := decimal.NewFromString(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
