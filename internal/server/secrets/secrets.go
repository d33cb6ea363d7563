// Package secrets supplies the token-signing secret. In deployed environments
// it comes from AWS Secrets Manager; a static value from configuration serves
// local development. The Cached wrapper guarantees the backing store is hit at
// most once per process lifetime.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// Provider yields the HMAC secret used to sign and verify access tokens.
type Provider interface {
	GetSigningSecret(ctx context.Context) (string, error)
}

// test seams, same pattern as the AWS wiring elsewhere in the project
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newSecretsManagerClient = func(cfg aws.Config, optFns ...func(*secretsmanager.Options)) *secretsmanager.Client {
		return secretsmanager.NewFromConfig(cfg, optFns...)
	}

	getSecretValue = func(c *secretsmanager.Client, ctx context.Context, in *secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error) {
		return c.GetSecretValue(ctx, in)
	}
)

// StaticProvider returns a fixed secret, typically from local configuration.
type StaticProvider struct {
	secret string
}

func NewStaticProvider(secret string) *StaticProvider {
	return &StaticProvider{secret: secret}
}

func (p *StaticProvider) GetSigningSecret(ctx context.Context) (string, error) {
	if p.secret == "" {
		return "", errors.New("signing secret is not configured")
	}
	return p.secret, nil
}

// AWSProvider fetches the secret from AWS Secrets Manager. The secret value
// is a JSON document of the form {"jwt_secret": "..."}.
type AWSProvider struct {
	secretName string
	region     string
}

func NewAWSProvider(secretName, region string) *AWSProvider {
	return &AWSProvider{secretName: secretName, region: region}
}

func (p *AWSProvider) GetSigningSecret(ctx context.Context) (string, error) {
	cfg, err := loadDefaultAWSConfig(ctx, awsconfig.WithRegion(p.region))
	if err != nil {
		return "", fmt.Errorf("aws config error: %w", err)
	}

	client := newSecretsManagerClient(cfg)

	out, err := getSecretValue(client, ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(p.secretName),
	})
	if err != nil {
		return "", fmt.Errorf("secret fetch error: %w", err)
	}
	if out.SecretString == nil {
		return "", errors.New("secret has no string value")
	}

	var doc struct {
		JWTSecret string `json:"jwt_secret"`
	}
	if err := json.Unmarshal([]byte(*out.SecretString), &doc); err != nil {
		return "", fmt.Errorf("secret parse error: %w", err)
	}
	if doc.JWTSecret == "" {
		return "", errors.New("secret document has no jwt_secret field")
	}

	return doc.JWTSecret, nil
}

// Cached wraps a Provider with write-once semantics: the underlying store is
// consulted on first use and never again for the life of the process, even
// across concurrent callers.
type Cached struct {
	inner Provider

	once   sync.Once
	secret string
	err    error
}

func NewCached(inner Provider) *Cached {
	return &Cached{inner: inner}
}

func (c *Cached) GetSigningSecret(ctx context.Context) (string, error) {
	c.once.Do(func() {
		c.secret, c.err = c.inner.GetSigningSecret(ctx)
	})
	return c.secret, c.err
}
