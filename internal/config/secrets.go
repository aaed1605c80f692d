package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/goccy/go-json"
)

const (
	errLoadAWSConfig           = "failed to load AWS config: %w"
	errGetSecretFromAWSSecrets = "failed to get secret from AWS Secrets Manager: %w"
	errParseSecretJSON         = "failed to parse secret JSON: %w"
	errParseSecretBinary       = "failed to parse secret binary: %w"
)

var errNoSecretDataFound = errors.New("no secret data found in AWS Secrets Manager")

// SecretsOverlay represents the structure of secrets stored in AWS Secrets Manager.
// NewsAPIKeys maps feed names to API keys.
type SecretsOverlay struct {
	NewsAPIKeys map[string]string `json:"news_api_keys"`
}

// SecretsClient is the subset of the Secrets Manager API used here
type SecretsClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// NewSecretsClient creates a Secrets Manager client for region
func NewSecretsClient(ctx context.Context, region string) (SecretsClient, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf(errLoadAWSConfig, err)
	}
	return secretsmanager.NewFromConfig(awsCfg), nil
}

// fetchSecrets retrieves and parses the named secret
func fetchSecrets(ctx context.Context, client SecretsClient, secretName string) (*SecretsOverlay, error) {
	result, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretName),
	})
	if err != nil {
		return nil, fmt.Errorf(errGetSecretFromAWSSecrets, err)
	}
	return parseSecretData(result)
}

// parseSecretData parses secret data from AWS response
func parseSecretData(result *secretsmanager.GetSecretValueOutput) (*SecretsOverlay, error) {
	var secrets SecretsOverlay
	switch {
	case result.SecretString != nil:
		if err := json.Unmarshal([]byte(*result.SecretString), &secrets); err != nil {
			return nil, fmt.Errorf(errParseSecretJSON, err)
		}
	case result.SecretBinary != nil:
		if err := json.Unmarshal(result.SecretBinary, &secrets); err != nil {
			return nil, fmt.Errorf(errParseSecretBinary, err)
		}
	default:
		return nil, errNoSecretDataFound
	}
	return &secrets, nil
}

// overlaySecretsOnConfig applies secrets to configuration. Keys already set in
// the file or environment are replaced.
func overlaySecretsOnConfig(cfg *Config, secrets *SecretsOverlay) {
	for i, feed := range cfg.News.Feeds {
		if key := secrets.NewsAPIKeys[feed.Name]; key != "" {
			cfg.News.Feeds[i].APIKey = key
		}
	}
}

// LoadSecrets overlays the configured secret onto cfg using client
func LoadSecrets(ctx context.Context, cfg *Config, client SecretsClient) error {
	if cfg.News.AWSSecretName == "" {
		return nil
	}
	secrets, err := fetchSecrets(ctx, client, cfg.News.AWSSecretName)
	if err != nil {
		return err
	}
	overlaySecretsOnConfig(cfg, secrets)
	return nil
}

// LoadSecretsFromAWS retrieves secrets from AWS Secrets Manager and overlays them onto the configuration
func LoadSecretsFromAWS(ctx context.Context, cfg *Config) error {
	if cfg.News.AWSSecretName == "" {
		return nil
	}
	client, err := NewSecretsClient(ctx, cfg.News.AWSRegion)
	if err != nil {
		return err
	}
	return LoadSecrets(ctx, cfg, client)
}
