package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/irsalhamdi/course-market/api/web"
	"github.com/irsalhamdi/course-market/api/weberr"
	"github.com/irsalhamdi/course-market/core/claims"
	"github.com/irsalhamdi/course-market/core/user"
	"github.com/irsalhamdi/course-market/database"
	"github.com/irsalhamdi/course-market/random"
	"github.com/irsalhamdi/course-market/validate"
	"github.com/jmoiron/sqlx"
	"golang.org/x/oauth2"
)

type ProviderConfig struct {
	Name        string
	Client      string
	Secret      string
	URL         string
	RedirectURL string
}

type Provider struct {
	oauth    oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// MakeProviders runs OIDC discovery for every configured provider. Entries
// without a client id are skipped.
func MakeProviders(ctx context.Context, cfgs []ProviderConfig) (map[string]Provider, error) {
	provs := make(map[string]Provider, len(cfgs))
	for _, c := range cfgs {
		if c.Client == "" {
			continue
		}

		p, err := oidc.NewProvider(ctx, c.URL)
		if err != nil {
			return nil, fmt.Errorf("discovering provider[%s]: %w", c.Name, err)
		}

		provs[c.Name] = Provider{
			oauth: oauth2.Config{
				ClientID:     c.Client,
				ClientSecret: c.Secret,
				Endpoint:     p.Endpoint(),
				RedirectURL:  c.RedirectURL,
				Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
			},
			verifier: p.Verifier(&oidc.Config{ClientID: c.Client}),
		}
	}
	return provs, nil
}

func HandleOauthLogin(sm *scs.SessionManager, provs map[string]Provider) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		name := web.Param(r, "provider")
		p, ok := provs[name]
		if !ok {
			return weberr.NotFound(fmt.Errorf("unknown oauth provider[%s]", name))
		}

		state, err := random.String(32)
		if err != nil {
			return fmt.Errorf("generating oauth state: %w", err)
		}
		sm.Put(ctx, stateKey, state)

		http.Redirect(w, r, p.oauth.AuthCodeURL(state), http.StatusFound)
		return nil
	}
}

func HandleOauthCallback(db *sqlx.DB, sm *scs.SessionManager, provs map[string]Provider, redirectURL string) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		name := web.Param(r, "provider")
		p, ok := provs[name]
		if !ok {
			return weberr.NotFound(fmt.Errorf("unknown oauth provider[%s]", name))
		}

		state := sm.PopString(ctx, stateKey)
		if state == "" || state != web.Query(r, "state") {
			return weberr.NotAuthorized(errors.New("oauth state mismatch"))
		}

		tok, err := p.oauth.Exchange(ctx, web.Query(r, "code"))
		if err != nil {
			return weberr.NotAuthorized(fmt.Errorf("exchanging oauth code: %w", err))
		}

		raw, ok := tok.Extra("id_token").(string)
		if !ok {
			return weberr.NotAuthorized(errors.New("oauth token carries no id_token"))
		}

		idTok, err := p.verifier.Verify(ctx, raw)
		if err != nil {
			return weberr.NotAuthorized(fmt.Errorf("verifying id_token: %w", err))
		}

		var info struct {
			Email    string `json:"email"`
			Verified bool   `json:"email_verified"`
			Name     string `json:"name"`
		}
		if err := idTok.Claims(&info); err != nil {
			return fmt.Errorf("decoding id_token claims: %w", err)
		}

		if info.Email == "" || !info.Verified {
			return weberr.NotAuthorized(errors.New("oauth email missing or not verified"))
		}

		u, err := findOrCreate(ctx, db, strings.ToLower(info.Email), info.Name)
		if err != nil {
			return err
		}

		if err := login(ctx, sm, claims.Claims{UserID: u.ID, Role: u.Role}); err != nil {
			return fmt.Errorf("starting session: %w", err)
		}

		http.Redirect(w, r, redirectURL, http.StatusFound)
		return nil
	}
}

func findOrCreate(ctx context.Context, db *sqlx.DB, email, name string) (user.User, error) {
	u, err := user.FetchByEmail(ctx, db, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return user.User{}, fmt.Errorf("fetching user: %w", err)
	}

	if name == "" {
		name = email
	}

	now := time.Now().UTC()
	u = user.User{
		ID:        validate.GenerateID(),
		Name:      name,
		Email:     email,
		Role:      claims.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := user.Create(ctx, db, u); err != nil {
		return user.User{}, fmt.Errorf("creating oauth user: %w", err)
	}
	return u, nil
}
