package auth

import (
	"context"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/deskhq/desk-backend/config"
)

// NewTokenVerifier builds the Firebase client that checks bearer ID tokens for
// AUTH_MODE=firebase. The service account file is read at startup so a bad
// path fails the boot instead of the first request.
func NewTokenVerifier(ctx context.Context, cfg config.FirebaseConfig) (*fbauth.Client, error) {
	if cfg.CredentialsPath == "" {
		return nil, fmt.Errorf("firebase: FIREBASE_CREDENTIALS_PATH is required")
	}
	if _, err := os.Stat(cfg.CredentialsPath); err != nil {
		return nil, fmt.Errorf("firebase: service account file: %w", err)
	}

	var appCfg *firebase.Config
	if cfg.ProjectID != "" {
		appCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}
	app, err := firebase.NewApp(ctx, appCfg, option.WithCredentialsFile(cfg.CredentialsPath))
	if err != nil {
		return nil, fmt.Errorf("firebase: init app: %w", err)
	}
	verifier, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: auth client: %w", err)
	}
	return verifier, nil
}
