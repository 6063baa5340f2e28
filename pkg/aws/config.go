package aws

import (
	"context"
	"fmt"
	"os"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

// LoadAWSConfig loads the default AWS config. When AWS_ENDPOINT (or one of
// the service specific AWS_S3_ENDPOINT / AWS_SNS_ENDPOINT variables) is set,
// every client built from the config targets that URL, which is how the
// service is pointed at LocalStack.
func LoadAWSConfig(ctx context.Context) (sdkaws.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return cfg, fmt.Errorf("failed to load aws config: %w", err)
	}
	if cfg.Region == "" {
		cfg.Region = os.Getenv("AWS_REGION")
	}

	if endpoint := customEndpoint(); endpoint != "" {
		cfg.BaseEndpoint = sdkaws.String(endpoint)
	}
	return cfg, nil
}

// UsesCustomEndpoint reports whether clients are pointed away from AWS.
func UsesCustomEndpoint() bool {
	return customEndpoint() != ""
}

func customEndpoint() string {
	for _, key := range []string{"AWS_ENDPOINT", "AWS_S3_ENDPOINT", "AWS_SNS_ENDPOINT"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}
