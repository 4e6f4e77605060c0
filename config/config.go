package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// This function will Load the ENVIORNMENT VARIABLES from .env if GO_ENV variable is not set
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil {
			return err
		}
	}

	return nil
}

type EnviornmentVariable struct {
	// All variables
	GO_ENV       string
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	PORT         int
	// JWT Configuration
	JWT_SECRET string
	JWT_ISSUER string
	// Redis Configuration
	REDIS_URL      string
	REDIS_PASSWORD string
	REDIS_DB       string
	// Payment provider configuration
	PAYMENT_PROVIDER       string // default provider for checkout: paystack, flutterwave
	DEFAULT_CURRENCY       string
	PAYSTACK_SECRET_KEY    string
	PAYSTACK_BASE_URL      string
	FLUTTERWAVE_SECRET_KEY string
	FLUTTERWAVE_HASH       string // shared secret the provider echoes in verif-hash
	FLUTTERWAVE_BASE_URL   string
	PAYMENT_CALLBACK_URL   string // where the provider redirects the buyer after checkout
	// Settlement archive (S3-compatible object storage)
	ARCHIVE_BUCKET     string
	ARCHIVE_REGION     string
	ARCHIVE_ENDPOINT   string
	ARCHIVE_ACCESS_KEY string
	ARCHIVE_SECRET_KEY string
}

func Get() (*EnviornmentVariable, error) {

	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 8080
	}

	// Database defaults
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}

	dbPort := os.Getenv("DB_PORT")
	if dbPort == "" {
		dbPort = "5432"
	}

	currency := os.Getenv("DEFAULT_CURRENCY")
	if currency == "" {
		currency = "GHS"
	}

	defaultProvider := os.Getenv("PAYMENT_PROVIDER")
	if defaultProvider == "" {
		defaultProvider = "paystack"
	}

	envVariables := &EnviornmentVariable{
		GO_ENV:       os.Getenv("GO_ENV"),
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      dbHost,
		DB_PORT:      dbPort,
		DB_SSL_MODE:  os.Getenv("DB_SSL_MODE"),
		PORT:         port,
		// JWT
		JWT_SECRET: os.Getenv("JWT_SECRET"),
		JWT_ISSUER: os.Getenv("JWT_ISSUER"),
		// Redis
		REDIS_URL:      os.Getenv("REDIS_URL"),
		REDIS_PASSWORD: os.Getenv("REDIS_PASSWORD"),
		REDIS_DB:       os.Getenv("REDIS_DB"),
		// Payments
		PAYMENT_PROVIDER:       defaultProvider,
		DEFAULT_CURRENCY:       currency,
		PAYSTACK_SECRET_KEY:    os.Getenv("PAYSTACK_SECRET_KEY"),
		PAYSTACK_BASE_URL:      os.Getenv("PAYSTACK_BASE_URL"),
		FLUTTERWAVE_SECRET_KEY: os.Getenv("FLUTTERWAVE_SECRET_KEY"),
		FLUTTERWAVE_HASH:       os.Getenv("FLUTTERWAVE_HASH"),
		FLUTTERWAVE_BASE_URL:   os.Getenv("FLUTTERWAVE_BASE_URL"),
		PAYMENT_CALLBACK_URL:   os.Getenv("PAYMENT_CALLBACK_URL"),
		// Archive
		ARCHIVE_BUCKET:     os.Getenv("ARCHIVE_BUCKET"),
		ARCHIVE_REGION:     os.Getenv("ARCHIVE_REGION"),
		ARCHIVE_ENDPOINT:   os.Getenv("ARCHIVE_ENDPOINT"),
		ARCHIVE_ACCESS_KEY: os.Getenv("ARCHIVE_ACCESS_KEY"),
		ARCHIVE_SECRET_KEY: os.Getenv("ARCHIVE_SECRET_KEY"),
	}

	return envVariables, nil
}
