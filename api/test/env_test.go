package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/irsalhamdi/course-market/api"
	"github.com/irsalhamdi/course-market/config"
	"github.com/irsalhamdi/course-market/core/claims"
	"github.com/irsalhamdi/course-market/core/user"
	"github.com/irsalhamdi/course-market/database"
	"github.com/irsalhamdi/course-market/metrics"
	"github.com/irsalhamdi/course-market/validate"
	"github.com/jmoiron/sqlx"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/plutov/paypal/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminEmail    = "admin@example.com"
	adminPass     = "admin-password"
	webhookSecret = "whsec_integration"
)

type TestEnv struct {
	*httptest.Server
	DB     *sqlx.DB
	Stripe *mockStripe
	Paypal *mockPaypal
	Events *recorder
}

// NewTestEnv starts a throwaway postgres container, migrates it and serves the
// api against it with both payment providers mocked.
func NewTestEnv(t *testing.T, name string) *TestEnv {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker unavailable: %v", err)
	}

	res, err := pool.RunWithOptions(&dockertest.RunOptions{
		Name:       fmt.Sprintf("%s_%d", name, time.Now().UnixNano()),
		Repository: "postgres",
		Tag:        "15-alpine",
		Env: []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_PASSWORD=postgres",
			"POSTGRES_DB=" + name,
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("starting postgres: %v", err)
	}
	t.Cleanup(func() {
		if err := pool.Purge(res); err != nil {
			t.Logf("purging postgres: %v", err)
		}
	})
	res.Expire(300)

	db, err := database.Open(config.DB{
		User:         "postgres",
		Password:     "postgres",
		Host:         res.GetHostPort("5432/tcp"),
		Name:         name,
		MaxIdleConns: 2,
		MaxOpenConns: 10,
		DisableTLS:   true,
	})
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	pool.MaxWait = 2 * time.Minute
	if err := pool.Retry(func() error { return database.StatusCheck(context.Background(), db) }); err != nil {
		t.Fatalf("waiting for postgres: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		t.Fatal(err)
	}

	if err := createAdmin(db); err != nil {
		t.Fatal(err)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)
	if os.Getenv("TEST_LOG") != "" {
		log.SetOutput(os.Stderr)
	}

	strp := &mockStripe{}
	stripeSrv := httptest.NewServer(strp.handle())
	t.Cleanup(stripeSrv.Close)

	pp := &mockPaypal{}
	paypalSrv := httptest.NewServer(pp.handle())
	t.Cleanup(paypalSrv.Close)

	ppClient, err := paypal.NewClient("client", "secret", paypalSrv.URL)
	if err != nil {
		t.Fatal(err)
	}

	rec := &recorder{}
	mux := api.APIMux(api.APIConfig{
		Log:     log,
		DB:      db,
		Session: scs.New(),
		Metrics: metrics.New(),
		Events:  rec,
		Paypal:  ppClient,
		PaypalCfg: config.Paypal{
			ReturnURL: "http://shop.test/success",
			CancelURL: "http://shop.test/cart",
			Currency:  "USD",
		},
		Stripe: stripeClient(stripeSrv.URL),
		StripeCfg: config.Stripe{
			WebhookSecret: webhookSecret,
			SuccessURL:    "http://shop.test/success",
			CancelURL:     "http://shop.test/cart",
			Currency:      "usd",
		},
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &TestEnv{Server: srv, DB: db, Stripe: strp, Paypal: pp, Events: rec}
}

func createAdmin(db *sqlx.DB) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPass), bcrypt.MinCost)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	return user.Create(context.Background(), db, user.User{
		ID:           validate.GenerateID(),
		Name:         "Admin",
		Email:        adminEmail,
		Role:         claims.RoleAdmin,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

// session is a client with its own cookie jar, one per logged in user.
type session struct {
	env    *TestEnv
	client *http.Client
}

func (env *TestEnv) newSession(t *testing.T) *session {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &session{env: env, client: &http.Client{Jar: jar, Timeout: 10 * time.Second}}
}

// do sends body as json and decodes the response into out when non nil. The
// request fails the test unless it answers want.
func (s *session) do(t *testing.T, method, path string, body any, want int, out any) {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}

	r, err := http.NewRequest(method, s.env.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}

	s.send(t, r, want, out)
}

func (s *session) send(t *testing.T, r *http.Request, want int, out any) {
	t.Helper()

	w, err := s.client.Do(r)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	b, err := io.ReadAll(w.Body)
	if err != nil {
		t.Fatal(err)
	}

	if w.StatusCode != want {
		t.Fatalf("%s %s: expected status %d, got %d: %s", r.Method, r.URL.Path, want, w.StatusCode, b)
	}

	if out != nil {
		if err := json.Unmarshal(b, out); err != nil {
			t.Fatalf("%s %s: decoding response: %v", r.Method, r.URL.Path, err)
		}
	}
}

func (env *TestEnv) login(t *testing.T, email, pass string) *session {
	t.Helper()

	s := env.newSession(t)
	s.do(t, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": pass}, http.StatusOK, nil)
	return s
}

func (env *TestEnv) signup(t *testing.T, name string) (*session, user.User) {
	t.Helper()

	s := env.newSession(t)

	var u user.User
	in := map[string]string{
		"name":     name,
		"email":    name + "@example.com",
		"password": name + "-password",
	}
	s.do(t, http.MethodPost, "/auth/signup", in, http.StatusCreated, &u)
	return s, u
}
