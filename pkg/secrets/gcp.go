package secrets

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// Source resolves named secrets, falling back to a default when a secret
// cannot be read.
type Source interface {
	GetSecretWithDefault(ctx context.Context, secretName, defaultValue string) string
}

var _ Source = (*GCPSecretManager)(nil)

type GCPSecretManager struct {
	client    *secretmanager.Client
	projectID string
	logger    *logrus.Logger
}

func NewGCPSecretManager(ctx context.Context, projectID, credentialsFile string, logger *logrus.Logger) (*GCPSecretManager, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create secretmanager client: %w", err)
	}

	return &GCPSecretManager{
		client:    client,
		projectID: projectID,
		logger:    logger,
	}, nil
}

func (g *GCPSecretManager) GetSecret(ctx context.Context, secretName string) (string, error) {
	req := &secretmanagerpb.AccessSecretVersionRequest{
		Name: SecretVersionName(g.projectID, secretName),
	}

	result, err := g.client.AccessSecretVersion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to access secret %s: %w", secretName, err)
	}
	return string(result.Payload.Data), nil
}

func (g *GCPSecretManager) GetSecretWithDefault(ctx context.Context, secretName, defaultValue string) string {
	value, err := g.GetSecret(ctx, secretName)
	if err != nil {
		g.logger.WithError(err).WithField("secret", secretName).Debug("Failed to get secret, using default")
		return defaultValue
	}
	return strings.TrimSpace(value)
}

func (g *GCPSecretManager) Close() error {
	return g.client.Close()
}

func SecretVersionName(projectID, secretName string) string {
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, secretName)
}

type SecretNames struct {
	MarketDataAPIKey string `mapstructure:"market_data_api_key"`
	APIAuthSecret    string `mapstructure:"api_auth_secret"`
}

func DefaultSecretNames() SecretNames {
	return SecretNames{
		MarketDataAPIKey: "pairs-market-data-api-key",
		APIAuthSecret:    "pairs-api-auth-secret",
	}
}
