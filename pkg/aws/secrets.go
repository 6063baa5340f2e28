package aws

import (
	"context"
	"fmt"
	"sync"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretGetter resolves a secret by name.
type SecretGetter interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// SecretsClient reads string secrets from Secrets Manager and memoizes them
// for the life of the process.
type SecretsClient struct {
	client *secretsmanager.Client
	cache  map[string]string
	mu     sync.RWMutex
}

func NewSecretsClient(cfg sdkaws.Config) *SecretsClient {
	return &SecretsClient{
		client: secretsmanager.NewFromConfig(cfg),
		cache:  make(map[string]string),
	}
}

func (s *SecretsClient) GetSecret(ctx context.Context, name string) (string, error) {
	s.mu.RLock()
	v, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return v, nil
	}

	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: sdkaws.String(name)})
	if err != nil {
		return "", fmt.Errorf("failed to get secret %s: %w", name, err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", name)
	}

	s.mu.Lock()
	s.cache[name] = *out.SecretString
	s.mu.Unlock()
	return *out.SecretString, nil
}

// ApplySecrets overwrites each target with its named secret when the secret
// resolves to a non-empty value. It returns the names that could not be
// read; missing secrets leave the target untouched.
func ApplySecrets(ctx context.Context, sm SecretGetter, targets map[string]*string) []string {
	var missing []string
	for name, dst := range targets {
		v, err := sm.GetSecret(ctx, name)
		if err != nil || v == "" {
			missing = append(missing, name)
			continue
		}
		*dst = v
	}
	return missing
}
