package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go-checkout/internal/checkout"
	"go-checkout/internal/checkout/analytics"
	"go-checkout/internal/checkout/data/database"
	"go-checkout/internal/checkout/notification"
	"go-checkout/internal/checkout/orderstore"
	"go-checkout/internal/checkout/paymentgateway"
	"go-checkout/internal/checkout/paymentsweeper"
	"go-checkout/internal/checkout/service"
	"go-checkout/pkg/tasks"

	"github.com/spf13/viper"
)

const (
	envPrefix = "CHECKOUT"

	serverAddressFlag      = "a"
	dbConnectionStringFlag = "d"
	configFileFlag         = "c"

	DriverSheets   = "sheets"
	DriverPostgres = "postgres"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Server       checkout.Config
	LogLevel     string
	OrderStore   OrderStoreConfig
	Gateway      paymentgateway.Config
	Billing      service.BillingConfig
	Analytics    analytics.Config
	Notification notification.Config
	Tasks        tasks.Config
	Sweeper      SweeperConfig
	JWTConfig    JWTConfig
}

type OrderStoreConfig struct {
	Driver string
	Sheets orderstore.Config
	DB     database.Config
}

type SweeperConfig struct {
	Enabled  bool
	Settings paymentsweeper.Config
}

type JWTConfig struct {
	Algorithm      string
	Secret         string
	ExpirationTime time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "localhost:8080")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.read_header_timeout", 5*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("http.timeout", 5*time.Second)

	v.SetDefault("order_store.driver", DriverSheets)
	v.SetDefault("order_store.script_url", "")
	v.SetDefault("order_store.database_uri", "")
	v.SetDefault("order_store.retry_attempt_delays", "1s,3s,5s")

	v.SetDefault("gateway.base_url", "https://toyyibpay.com")
	v.SetDefault("gateway.secret_key", "")
	v.SetDefault("gateway.category_code", "")
	v.SetDefault("gateway.bill_name", "PROSTREAM")
	v.SetDefault("gateway.return_url", "")
	v.SetDefault("gateway.callback_url", "")
	v.SetDefault("gateway.expiry_days", 1)
	v.SetDefault("gateway.payment_channel", "0")
	v.SetDefault("gateway.charge_to_customer", "1")
	v.SetDefault("gateway.content_email", "")

	v.SetDefault("billing.default_package", "PROSTREAM Package")
	v.SetDefault("billing.payment_method", "toyyibpay")

	v.SetDefault("content.currency", "MYR")
	v.SetDefault("content.category", "Streaming")
	v.SetDefault("content.name", "PROSTREAM 4 App Power Package")
	v.SetDefault("content.id", "prostream_4app_package")
	v.SetDefault("content.checkout_source_url", "")
	v.SetDefault("content.purchase_source_url", "")
	v.SetDefault("content.relay_source_url", "")

	v.SetDefault("analytics.base_url", "https://graph.facebook.com")
	v.SetDefault("analytics.api_version", "v18.0")
	v.SetDefault("analytics.pixel_id", "")
	v.SetDefault("analytics.access_token", "")

	v.SetDefault("notification.webhook_url", "")
	v.SetDefault("notification.username", "PROSTREAM Bot")
	v.SetDefault("notification.avatar_url", "")
	v.SetDefault("notification.title", "✅ PEMBAYARAN BERJAYA - PROSTREAM-FB")
	v.SetDefault("notification.description", "Pelanggan telah berjaya membuat pembayaran!")
	v.SetDefault("notification.footer_text", "PROSTREAM - Streaming Apps Package")
	v.SetDefault("notification.currency_tag", "RM")

	v.SetDefault("tasks.workers", 2)
	v.SetDefault("tasks.buffer", 64)
	v.SetDefault("tasks.timeout", 10*time.Second)

	v.SetDefault("sweeper.enabled", true)
	v.SetDefault("sweeper.tick_period", time.Minute)
	v.SetDefault("sweeper.min_age", 10*time.Minute)
	v.SetDefault("sweeper.max_age", 25*time.Hour)
	v.SetDefault("sweeper.workers", 2)
	v.SetDefault("sweeper.buffer", 16)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", 12*time.Hour)
}

// Load reads flags from args, then CHECKOUT_* environment variables and an
// optional config file. Flags given explicitly win over everything else.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	serverAddress := fs.String(serverAddressFlag, "", "Server address host:port")
	dbConnectionString := fs.String(dbConnectionStringFlag, "", "PostgreSQL connection string")
	configFile := fs.String(configFileFlag, "", "Path to a YAML or JSON config file")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if *configFile != "" {
		v.SetConfigFile(*configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case serverAddressFlag:
			v.Set("server.address", *serverAddress)
		case dbConnectionStringFlag:
			v.Set("order_store.database_uri", *dbConnectionString)
		}
	})

	cfg, err := build(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func build(v *viper.Viper) (*Config, error) {
	retryDelays, err := parseDurations(v.Get("order_store.retry_attempt_delays"))
	if err != nil {
		return nil, fmt.Errorf("%w: order_store.retry_attempt_delays: %w", ErrInvalidConfig, err)
	}
	httpTimeout := v.GetDuration("http.timeout")
	billName := v.GetString("gateway.bill_name")

	return &Config{
		Server: checkout.Config{
			ServerAddress:     v.GetString("server.address"),
			ShutdownTimeout:   v.GetDuration("server.shutdown_timeout"),
			ReadHeaderTimeout: v.GetDuration("server.read_header_timeout"),
		},
		LogLevel: v.GetString("log.level"),
		OrderStore: OrderStoreConfig{
			Driver: strings.ToLower(v.GetString("order_store.driver")),
			Sheets: orderstore.Config{
				ScriptURL:          v.GetString("order_store.script_url"),
				Timeout:            httpTimeout,
				RetryAttemptDelays: retryDelays,
			},
			DB: database.Config{
				ConnectionString:   v.GetString("order_store.database_uri"),
				RetryAttemptDelays: retryDelays,
			},
		},
		Gateway: paymentgateway.Config{
			BaseURL:          v.GetString("gateway.base_url"),
			SecretKey:        v.GetString("gateway.secret_key"),
			CategoryCode:     v.GetString("gateway.category_code"),
			BillName:         billName,
			ReturnURL:        v.GetString("gateway.return_url"),
			CallbackURL:      v.GetString("gateway.callback_url"),
			ExpiryDays:       v.GetInt("gateway.expiry_days"),
			PaymentChannel:   v.GetString("gateway.payment_channel"),
			ChargeToCustomer: v.GetString("gateway.charge_to_customer"),
			ContentEmail:     v.GetString("gateway.content_email"),
			Timeout:          httpTimeout,
		},
		Billing: service.BillingConfig{
			BillName:       billName,
			DefaultPackage: v.GetString("billing.default_package"),
			PaymentMethod:  v.GetString("billing.payment_method"),
			Content: analytics.ContentConfig{
				Currency:          v.GetString("content.currency"),
				ContentCategory:   v.GetString("content.category"),
				ContentName:       v.GetString("content.name"),
				ContentID:         v.GetString("content.id"),
				CheckoutSourceURL: v.GetString("content.checkout_source_url"),
				PurchaseSourceURL: v.GetString("content.purchase_source_url"),
				RelaySourceURL:    v.GetString("content.relay_source_url"),
			},
		},
		Analytics: analytics.Config{
			BaseURL:     v.GetString("analytics.base_url"),
			APIVersion:  v.GetString("analytics.api_version"),
			PixelID:     v.GetString("analytics.pixel_id"),
			AccessToken: v.GetString("analytics.access_token"),
			Timeout:     httpTimeout,
		},
		Notification: notification.Config{
			WebhookURL: v.GetString("notification.webhook_url"),
			Message: notification.MessageConfig{
				Username:    v.GetString("notification.username"),
				AvatarURL:   v.GetString("notification.avatar_url"),
				Title:       v.GetString("notification.title"),
				Description: v.GetString("notification.description"),
				FooterText:  v.GetString("notification.footer_text"),
				CurrencyTag: v.GetString("notification.currency_tag"),
			},
			Timeout: httpTimeout,
		},
		Tasks: tasks.Config{
			WorkersCount:      v.GetInt("tasks.workers"),
			TasksBufferLength: v.GetInt("tasks.buffer"),
			TaskTimeout:       v.GetDuration("tasks.timeout"),
		},
		Sweeper: SweeperConfig{
			Enabled: v.GetBool("sweeper.enabled"),
			Settings: paymentsweeper.Config{
				TickPeriod:        v.GetDuration("sweeper.tick_period"),
				MinAge:            v.GetDuration("sweeper.min_age"),
				MaxAge:            v.GetDuration("sweeper.max_age"),
				WorkersCount:      v.GetInt("sweeper.workers"),
				TasksBufferLength: v.GetInt("sweeper.buffer"),
			},
		},
		JWTConfig: JWTConfig{
			Algorithm:      "HS256",
			Secret:         v.GetString("jwt.secret"),
			ExpirationTime: v.GetDuration("jwt.expiration"),
		},
	}, nil
}

func (c *Config) validate() error {
	var missing []string
	requireValue := func(key, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}
	requireValue("gateway.secret_key", c.Gateway.SecretKey)
	requireValue("gateway.category_code", c.Gateway.CategoryCode)
	requireValue("gateway.return_url", c.Gateway.ReturnURL)
	requireValue("gateway.callback_url", c.Gateway.CallbackURL)

	switch c.OrderStore.Driver {
	case DriverSheets:
		requireValue("order_store.script_url", c.OrderStore.Sheets.ScriptURL)
	case DriverPostgres:
		requireValue("order_store.database_uri", c.OrderStore.DB.ConnectionString)
	default:
		return fmt.Errorf("%w: unknown order_store.driver %q", ErrInvalidConfig, c.OrderStore.Driver)
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidConfig, strings.Join(missing, ", "))
	}
	if c.OrderStore.Driver == DriverPostgres && !isPostgresURL(c.OrderStore.DB.ConnectionString) {
		return fmt.Errorf(
			"%w: order_store.database_uri must be a postgres:// or postgresql:// URL, key/value DSNs are not supported by migrations",
			ErrInvalidConfig,
		)
	}
	if c.Sweeper.Enabled && c.Sweeper.Settings.TickPeriod <= 0 {
		return fmt.Errorf("%w: sweeper.tick_period must be positive", ErrInvalidConfig)
	}
	return nil
}

func isPostgresURL(dsn string) bool {
	u, err := url.Parse(strings.TrimSpace(dsn))
	if err != nil {
		return false
	}
	return (u.Scheme == "postgres" || u.Scheme == "postgresql") && u.Host != ""
}

// parseDurations accepts "1s,3s" from the environment or a list from a file.
func parseDurations(raw any) ([]time.Duration, error) {
	var parts []string
	switch value := raw.(type) {
	case nil:
		return nil, nil
	case string:
		parts = strings.Split(value, ",")
	case []string:
		parts = value
	case []any:
		for _, item := range value {
			parts = append(parts, fmt.Sprint(item))
		}
	default:
		return nil, fmt.Errorf("unsupported value %v", raw)
	}

	delays := make([]time.Duration, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		delay, err := time.ParseDuration(part)
		if err != nil {
			return nil, err //nolint:wrapcheck // wrapped by the caller
		}
		delays = append(delays, delay)
	}
	return delays, nil
}
