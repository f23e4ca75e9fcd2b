// Package firestore stores support-desk data in Cloud Firestore.
package firestore

import (
	"context"
	"errors"
	"fmt"

	fs "cloud.google.com/go/firestore"
	"github.com/gamemod/support-desk/internal/config"
	"github.com/gamemod/support-desk/internal/core/ports"
	"github.com/goccy/go-json"
	"google.golang.org/api/option"
)

// Collection and document names
const (
	ticketsCollection  = "tickets"
	messagesCollection = "messages"
	topicsCollection   = "topics"
	configCollection   = "config"
	settingsDocument   = "staffSettings"
)

const googleTokenURI = "https://oauth2.googleapis.com/token"

type serviceAccount struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

// clientOptions builds credentials from an explicit service account when
// one is configured. Without one the client falls back to Application
// Default Credentials, or to the emulator when FIRESTORE_EMULATOR_HOST is set.
func clientOptions(cfg config.GCPConfig) ([]option.ClientOption, error) {
	if !cfg.HasServiceAccount() {
		return nil, nil
	}

	creds, err := json.Marshal(serviceAccount{
		Type:        "service_account",
		ProjectID:   cfg.ProjectID,
		ClientEmail: cfg.ClientEmail,
		PrivateKey:  cfg.PrivateKey,
		TokenURI:    googleTokenURI,
	})
	if err != nil {
		return nil, fmt.Errorf("encode service account: %w", err)
	}
	return []option.ClientOption{option.WithCredentialsJSON(creds)}, nil
}

// NewClient opens a Firestore client for the configured project.
func NewClient(ctx context.Context, cfg config.GCPConfig) (*fs.Client, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("GCP project id is required for firestore")
	}

	opts, err := clientOptions(cfg)
	if err != nil {
		return nil, err
	}

	client, err := fs.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return client, nil
}

// HealthChecker reads the settings document to prove the backend answers.
type HealthChecker struct {
	client *fs.Client
}

var _ ports.HealthChecker = (*HealthChecker)(nil)

func NewHealthChecker(client *fs.Client) *HealthChecker {
	return &HealthChecker{client: client}
}

// Ping succeeds when the read completes, whether or not the document exists.
func (h *HealthChecker) Ping(ctx context.Context) error {
	_, err := h.client.Collection(configCollection).Doc(settingsDocument).Get(ctx)
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

// NewStorage wires every repository onto one client. Close releases it.
func NewStorage(client *fs.Client) ports.Storage {
	return ports.Storage{
		Tickets:   NewTicketRepository(client),
		Analytics: NewAnalyticsRepository(client),
		Topics:    NewTopicRepository(client),
		Settings:  NewSettingsRepository(client),
		Health:    NewHealthChecker(client),
		Close:     func() { _ = client.Close() },
	}
}
