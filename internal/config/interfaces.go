package config

import "context"

// SecretProvider resolves secret values by key. SSMProvider backs deployed
// environments; EnvVarProvider backs local runs and tests.
type SecretProvider interface {
	// GetParametersBatch returns a map of key -> plaintext value for every key
	// it could resolve. Keys it cannot find are omitted, not errors.
	GetParametersBatch(ctx context.Context, keys []string) (map[string]string, error)
}
