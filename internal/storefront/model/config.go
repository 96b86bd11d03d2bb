package model

import "time"

// ================ Config ================
type CheckoutConfig struct {
	ProcessingDelay    time.Duration `envconfig:"CHECKOUT_PROCESSING_DELAY" default:"2s"`
	RequireShippingZip bool          `envconfig:"CHECKOUT_REQUIRE_SHIPPING_ZIP" default:"false"`
}

type SessionConfig struct {
	ResetRedirectDelay time.Duration `envconfig:"SESSION_RESET_REDIRECT_DELAY" default:"2s"`
}

type StorageConfig struct {
	Driver    string        `envconfig:"STORAGE_DRIVER" default:"redis"`
	KeyPrefix string        `envconfig:"STORAGE_KEY_PREFIX" default:"techstore"`
	TTL       time.Duration `envconfig:"STORAGE_TTL" default:"0"`
}

type HTTPConfig struct {
	Addr            string        `envconfig:"HTTP_ADDR" default:":8080"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
	SecureCookie    bool          `envconfig:"HTTP_SECURE_COOKIE" default:"false"`
}
