package config

import (
	"time"

	"github.com/ardanlabs/conf/v3"
)

type Config struct {
	conf.Version
	Web    Web
	DB     DB
	Auth   Auth
	Stripe Stripe
	Paypal Paypal
	Oauth  Oauth
	Orders Orders
	Kafka  Kafka
	Rate   Rate
	Cors   Cors
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:8000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type DB struct {
	User         string `conf:"default:postgres"`
	Password     string `conf:"default:postgres,mask"`
	Host         string `conf:"default:localhost:5432"`
	Name         string `conf:"default:postgres"`
	MaxIdleConns int    `conf:"default:5"`
	MaxOpenConns int    `conf:"default:20"`
	DisableTLS   bool   `conf:"default:true"`
}

type Auth struct {
	SessionLifetime time.Duration `conf:"default:24h"`
	SecureCookie    bool          `conf:"default:false"`
}

type Stripe struct {
	APISecret     string `conf:"mask"`
	WebhookSecret string `conf:"mask"`
	SuccessURL    string `conf:"default:http://localhost:3000/checkout/success"`
	CancelURL     string `conf:"default:http://localhost:3000/cart"`
	Currency      string `conf:"default:usd"`
}

// Paypal is optional: the paypal routes are only mounted when ClientID is set.
type Paypal struct {
	ClientID  string
	Secret    string `conf:"mask"`
	URL       string `conf:"default:https://api-m.sandbox.paypal.com"`
	ReturnURL string `conf:"default:http://localhost:3000/checkout/success"`
	CancelURL string `conf:"default:http://localhost:3000/cart"`
	Currency  string `conf:"default:USD"`
	BrandName string `conf:"default:Course Market"`
}

type OauthProvider struct {
	Client      string
	Secret      string `conf:"mask"`
	URL         string `conf:"default:https://accounts.google.com"`
	RedirectURL string `conf:"default:http://localhost:8000/auth/oauth-callback/google"`
}

type Oauth struct {
	DiscoveryTimeout time.Duration `conf:"default:10s"`
	LoginRedirectURL string        `conf:"default:http://localhost:3000"`
	Google           OauthProvider
}

// Orders controls the abandoned order sweep. A zero ExpireAfter disables it.
type Orders struct {
	ExpireAfter   time.Duration `conf:"default:0s"`
	SweepInterval time.Duration `conf:"default:15m"`
}

type Kafka struct {
	Brokers string
	Topic   string `conf:"default:orders.paid"`
}

type Rate struct {
	Burst    int           `conf:"default:20"`
	Interval time.Duration `conf:"default:250ms"`
	Expiry   time.Duration `conf:"default:10m"`
}

type Cors struct {
	Origin string
}
