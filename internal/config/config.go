package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// FeeSchedule maps a listing category to the flat submission fee owed for it.
// Injected into the payments service so tests can substitute tables.
type FeeSchedule map[string]float64

// AmountFor returns the fee for category and whether the category is known.
func (f FeeSchedule) AmountFor(category string) (float64, bool) {
	amount, ok := f[strings.ToLower(strings.TrimSpace(category))]
	return amount, ok
}

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	DatabaseURL         string
	RedisURL            string
	JWTSecret           string
	JWTTTL              time.Duration
	Fees                FeeSchedule
	GuestFeeExempt      bool
	PaymentDestination  string // bank/IBAN string shown to the submitter
	PaymentContact      string // contact handle for sending proof of payment
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	port := viper.GetString("PORT")
	if port == "" {
		port = "8080"
	}
	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	ttlHours := viper.GetInt("JWT_TTL_HOURS")
	if ttlHours <= 0 {
		ttlHours = 24
	}

	feeSale := viper.GetFloat64("FEE_SALE")
	if feeSale == 0 {
		feeSale = 50
	}
	feeRent := viper.GetFloat64("FEE_RENT")
	if feeRent == 0 {
		feeRent = 25
	}

	guestExempt := true
	if viper.IsSet("GUEST_FEE_EXEMPT") {
		guestExempt = viper.GetBool("GUEST_FEE_EXEMPT")
	}

	return &Config{
		Env:                 env,
		Port:                port,
		DatabaseURL:         viper.GetString("DATABASE_URL"),
		RedisURL:            viper.GetString("REDIS_URL"),
		JWTSecret:           viper.GetString("JWT_SECRET"),
		JWTTTL:              time.Duration(ttlHours) * time.Hour,
		Fees:                FeeSchedule{"sale": feeSale, "rent": feeRent},
		GuestFeeExempt:      guestExempt,
		PaymentDestination:  viper.GetString("PAYMENT_DESTINATION"),
		PaymentContact:      viper.GetString("PAYMENT_CONTACT"),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   strings.EqualFold(viper.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		HealthAdminKey:      viper.GetString("HEALTH_ADMIN_KEY"),
	}, nil
}
