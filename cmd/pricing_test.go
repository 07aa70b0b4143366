package main

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/sports-festival/festival-registration/fees"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pricingYAML = `
sport:
  currency: KES
  tiers:
    - amount: 1000
    - threshold: 3
      amount: 800
discipline:
  currency: KES
  tiers:
    - category: 100m
      amount: 200
parent:
  kind: parent
  currency: KES
  tiers:
    - amount: 500
`

type mockSSM struct {
	GetParameterFunc func(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

func (m *mockSSM) GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	return m.GetParameterFunc(ctx, params, optFns...)
}

func TestParsePricing(t *testing.T) {
	t.Run("fills in the kind from the key", func(t *testing.T) {
		pricing, err := parsePricing([]byte(pricingYAML))

		require.NoError(t, err)
		require.Len(t, pricing, 3)
		assert.Equal(t, fees.SPORT, pricing[fees.SPORT].Kind)
		assert.Equal(t, 3, pricing[fees.SPORT].Tiers[1].Threshold)
		assert.Equal(t, "100m", pricing[fees.DISCIPLINE].Tiers[0].Category)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := parsePricing([]byte("coach:\n  currency: KES\n"))

		assert.Error(t, err)
	})

	t.Run("mislabelled table", func(t *testing.T) {
		_, err := parsePricing([]byte("sport:\n  kind: parent\n  currency: KES\n"))

		assert.Error(t, err)
	})

	t.Run("not yaml", func(t *testing.T) {
		_, err := parsePricing([]byte("sport: [\n"))

		assert.Error(t, err)
	})
}

func TestLocalPricingFile(t *testing.T) {
	raw, err := os.ReadFile("../pricing.yaml")
	require.NoError(t, err)

	pricing, err := parsePricing(raw)
	require.NoError(t, err)
	require.NoError(t, pricing.Validate())

	// amounts are minor units, one sport is KES 1,000.00
	fee := fees.CalculateFee(1, pricing[fees.SPORT])
	assert.Equal(t, int64(100000), fee.Amount())
	assert.Equal(t, "KES", fee.Currency().Code)
}

func TestGetPricingParameter(t *testing.T) {
	t.Run("decrypted value", func(t *testing.T) {
		client := &mockSSM{
			GetParameterFunc: func(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
				assert.Equal(t, "/festival/pricing", *params.Name)
				assert.True(t, *params.WithDecryption)
				return &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: aws.String(pricingYAML)}}, nil
			},
		}

		raw, err := getPricingParameter(context.Background(), client, "/festival/pricing")

		require.NoError(t, err)
		assert.Equal(t, pricingYAML, string(raw))
	})

	t.Run("missing value", func(t *testing.T) {
		client := &mockSSM{
			GetParameterFunc: func(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
				return &ssm.GetParameterOutput{}, nil
			},
		}

		_, err := getPricingParameter(context.Background(), client, "/festival/pricing")

		assert.Error(t, err)
	})

	t.Run("ssm failure", func(t *testing.T) {
		client := &mockSSM{
			GetParameterFunc: func(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
				return nil, errors.New("access denied")
			},
		}

		_, err := getPricingParameter(context.Background(), client, "/festival/pricing")

		assert.ErrorContains(t, err, "access denied")
	})
}
