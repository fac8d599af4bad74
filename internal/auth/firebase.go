package auth

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/bloomi-app/bloomi-backend/config"
)

var errNoCredentials = errors.New("FIREBASE_CREDENTIALS_PATH or FIREBASE_CREDENTIALS_JSON is required")

// InitializeFirebase builds the Auth client used to verify ID tokens.
// Inline JSON credentials win over a credentials file.
func InitializeFirebase(ctx context.Context, cfg *config.FirebaseConfig) (*auth.Client, error) {
	opt, err := credentialsOption(cfg)
	if err != nil {
		return nil, err
	}

	var appCfg *firebase.Config
	if cfg.ProjectID != "" {
		appCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, appCfg, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Auth client: %w", err)
	}
	return client, nil
}

func credentialsOption(cfg *config.FirebaseConfig) (option.ClientOption, error) {
	switch {
	case cfg.CredentialsJSON != "":
		return option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)), nil
	case cfg.CredentialsPath != "":
		return option.WithCredentialsFile(cfg.CredentialsPath), nil
	default:
		return nil, errNoCredentials
	}
}
