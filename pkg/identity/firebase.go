package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/angelmondragon/gasdrop-backend/pkg/config"
)

const providerFirebase = "firebase"

type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
	VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// FirebaseVerifier checks Firebase ID tokens with the Admin SDK.
type FirebaseVerifier struct {
	client       idTokenVerifier
	checkRevoked bool
}

// NewFirebaseVerifier initializes the Admin SDK from config. Without explicit
// credentials the SDK falls back to application default credentials.
func NewFirebaseVerifier(ctx context.Context, cfg config.FirebaseConfig) (*FirebaseVerifier, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, fmt.Errorf("firebase project id is required")
	}

	var opts []option.ClientOption
	if creds := strings.TrimSpace(cfg.CredentialsJSON); creds != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}
	return &FirebaseVerifier{client: client, checkRevoked: cfg.CheckRevoked}, nil
}

// Verify validates idToken and extracts the identity claims.
func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (Identity, error) {
	if strings.TrimSpace(idToken) == "" {
		return Identity{}, NewError(KindInvalidCredential, errors.New("empty id token"))
	}

	var (
		token *fbauth.Token
		err   error
	)
	if v.checkRevoked {
		token, err = v.client.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	} else {
		token, err = v.client.VerifyIDToken(ctx, idToken)
	}
	if err != nil {
		return Identity{}, mapFirebaseError(err)
	}

	id := Identity{UID: token.UID, Provider: providerFirebase}
	if email, ok := token.Claims["email"].(string); ok {
		id.Email = NormalizeEmail(email)
	}
	if name, ok := token.Claims["name"].(string); ok {
		id.DisplayName = strings.TrimSpace(name)
	}
	if id.UID == "" {
		return Identity{}, NewError(KindAccountNotFound, errors.New("token without uid"))
	}
	return id, nil
}

func mapFirebaseError(err error) error {
	switch {
	case fbauth.IsUserNotFound(err), fbauth.IsUserDisabled(err):
		return NewError(KindAccountNotFound, err)
	case fbauth.IsIDTokenRevoked(err), fbauth.IsIDTokenExpired(err), fbauth.IsIDTokenInvalid(err):
		return NewError(KindInvalidCredential, err)
	default:
		return fmt.Errorf("verify firebase id token: %w", err)
	}
}
