package inference

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// converser is the subset of the Bedrock runtime client used here.
type converser interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockModel calls the Bedrock Converse API.
type BedrockModel struct {
	client converser
}

// NewBedrockModel loads the default AWS credential chain for region.
func NewBedrockModel(ctx context.Context, region string) (*BedrockModel, error) {
	if region == "" {
		return nil, fmt.Errorf("bedrock: region must be set")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("bedrock: load aws config: %w", err)
	}
	return &BedrockModel{client: bedrockruntime.NewFromConfig(cfg)}, nil
}

// Converse sends req as a single user message.
func (m *BedrockModel) Converse(ctx context.Context, req Request) (*Response, error) {
	out, err := m.client.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(req.ModelID),
		Messages: []types.Message{
			{
				Role: types.ConversationRoleUser,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: req.Prompt},
				},
			},
		},
		InferenceConfig: &types.InferenceConfiguration{
			Temperature: aws.Float32(req.Temperature),
			MaxTokens:   aws.Int32(req.MaxTokens),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("bedrock converse: %w", err)
	}

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return nil, fmt.Errorf("bedrock converse: unexpected output type %T", out.Output)
	}

	resp := &Response{ModelID: req.ModelID}
	for _, block := range msg.Value.Content {
		if text, ok := block.(*types.ContentBlockMemberText); ok {
			resp.Segments = append(resp.Segments, text.Value)
		}
	}
	if len(resp.Segments) == 0 {
		return nil, ErrEmptyResponse
	}
	return resp, nil
}
