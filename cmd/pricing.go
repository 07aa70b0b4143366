package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/sports-festival/festival-registration/api"
	"github.com/sports-festival/festival-registration/fees"
	"gopkg.in/yaml.v3"
)

type ssmGetParameterAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// loadPricing reads the pricing tables from SSM in PROD and from a YAML file
// locally. Both hold the same YAML document.
func loadPricing(ctx context.Context, awsCfg aws.Config, settings ServerSettings) (fees.StaticPricing, error) {
	var raw []byte
	var err error

	if settings.Env == api.PROD {
		raw, err = getPricingParameter(ctx, ssm.NewFromConfig(awsCfg), settings.PricingParameter)
	} else {
		raw, err = os.ReadFile(settings.PricingFile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read pricing: %w", err)
	}

	return parsePricing(raw)
}

func getPricingParameter(ctx context.Context, client ssmGetParameterAPI, name string) ([]byte, error) {
	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get parameter %q: %w", name, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return nil, fmt.Errorf("parameter %q has no value", name)
	}

	return []byte(*out.Parameter.Value), nil
}

func parsePricing(raw []byte) (fees.StaticPricing, error) {
	var pricing fees.StaticPricing
	if err := yaml.Unmarshal(raw, &pricing); err != nil {
		return nil, fmt.Errorf("failed to parse pricing: %w", err)
	}

	for kind, table := range pricing {
		if _, err := fees.ParseItemKind(string(kind)); err != nil {
			return nil, err
		}
		if table.Kind == "" {
			table.Kind = kind
			pricing[kind] = table
		}
	}

	if err := pricing.Validate(); err != nil {
		return nil, err
	}

	return pricing, nil
}
