package config

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSSMClient records every GetParameters call and answers from values.
type mockSSMClient struct {
	values map[string]string
	err    error
	calls  [][]string
}

func (m *mockSSMClient) GetParameters(_ context.Context, params *ssm.GetParametersInput, _ ...func(*ssm.Options)) (*ssm.GetParametersOutput, error) {
	m.calls = append(m.calls, append([]string(nil), params.Names...))
	if m.err != nil {
		return nil, m.err
	}
	out := &ssm.GetParametersOutput{}
	for _, name := range params.Names {
		if v, ok := m.values[name]; ok {
			out.Parameters = append(out.Parameters, ssmtypes.Parameter{
				Name:  aws.String(name),
				Value: aws.String(v),
			})
		} else {
			out.InvalidParameters = append(out.InvalidParameters, name)
		}
	}
	return out, nil
}

func TestSSMProviderSatisfiesSecretProvider(t *testing.T) {
	var _ SecretProvider = (*SSMProvider)(nil)
	var _ SecretProvider = NewSSMProvider("us-east-1", "")
}

func TestSSMProviderEmptyKeysSkipsClient(t *testing.T) {
	client := &mockSSMClient{}
	provider := newSSMProviderWithClient("us-east-1", client)

	result, err := provider.GetParametersBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Empty(t, result)
	assert.Empty(t, client.calls)
}

func TestSSMProviderResolvesValues(t *testing.T) {
	client := &mockSSMClient{values: map[string]string{
		"/prod/rainalert/owm/api_key":    "owm-key",
		"/prod/rainalert/twilio/token":   "twilio-token",
		"/prod/rainalert/twilio/account": "AC123",
	}}
	provider := newSSMProviderWithClient("eu-north-1", client)

	result, err := provider.GetParametersBatch(context.Background(), []string{
		"/prod/rainalert/owm/api_key",
		"/prod/rainalert/twilio/token",
		"/prod/rainalert/twilio/account",
		"/prod/rainalert/missing",
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"/prod/rainalert/owm/api_key":    "owm-key",
		"/prod/rainalert/twilio/token":   "twilio-token",
		"/prod/rainalert/twilio/account": "AC123",
	}, result)
	require.Len(t, client.calls, 1)
}

func TestSSMProviderBatchesByTen(t *testing.T) {
	values := make(map[string]string)
	keys := make([]string, 0, 23)
	for i := 0; i < 23; i++ {
		k := fmt.Sprintf("/test/param/%02d", i)
		keys = append(keys, k)
		values[k] = fmt.Sprintf("v%d", i)
	}
	client := &mockSSMClient{values: values}

	result, err := newSSMProviderWithClient("us-east-1", client).GetParametersBatch(context.Background(), keys)
	require.NoError(t, err)

	assert.Len(t, result, 23)
	require.Len(t, client.calls, 3)
	assert.Len(t, client.calls[0], 10)
	assert.Len(t, client.calls[1], 10)
	assert.Len(t, client.calls[2], 3)
}

func TestSSMProviderClientError(t *testing.T) {
	client := &mockSSMClient{err: errors.New("AccessDeniedException")}

	_, err := newSSMProviderWithClient("us-east-1", client).GetParametersBatch(context.Background(), []string{"/a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AccessDeniedException")
}

func TestSSMProviderContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &mockSSMClient{values: map[string]string{"/a": "1"}}
	_, err := newSSMProviderWithClient("us-east-1", client).GetParametersBatch(ctx, []string{"/a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, client.calls)
}
