package serverless

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/rotisserie/eris"

	"github.com/Tpgainz/smart-business-directory/scoring"
)

// LambdaAPI is the part of the Lambda client the invoker needs.
type LambdaAPI interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// Invoker scores through a deployed Handler. The narrative is still
// written locally since the function does not return one.
type Invoker struct {
	client       LambdaAPI
	functionName string
}

func NewInvoker(client LambdaAPI, functionName string) *Invoker {
	return &Invoker{client: client, functionName: functionName}
}

func NewInvokerFromConfig(cfg aws.Config, functionName string) *Invoker {
	return NewInvoker(lambda.NewFromConfig(cfg), functionName)
}

func (i *Invoker) Score(ctx context.Context, s scoring.Signals) (ScoreBody, error) {
	payload, err := json.Marshal(Event{
		EmployeeSizeCode:   s.EmployeeSizeCode,
		EstablishmentCount: s.EstablishmentCount,
		SectorCode:         s.SectorCode,
	})
	if err != nil {
		return ScoreBody{}, eris.Wrap(err, "encoding event")
	}

	out, err := i.client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName: aws.String(i.functionName),
		Payload:      payload,
	})
	if err != nil {
		return ScoreBody{}, eris.Wrapf(err, "invoking %s", i.functionName)
	}

	if out.FunctionError != nil {
		return ScoreBody{}, eris.Errorf("%s failed: %s", i.functionName, aws.ToString(out.FunctionError))
	}

	var resp struct {
		StatusCode int             `json:"statusCode"`
		Body       json.RawMessage `json:"body"`
	}

	if err := json.Unmarshal(out.Payload, &resp); err != nil {
		return ScoreBody{}, eris.Wrap(err, "decoding response")
	}

	if resp.StatusCode != 200 {
		var body ErrorBody
		_ = json.Unmarshal(resp.Body, &body)

		return ScoreBody{}, eris.Errorf("%s returned %d: %s", i.functionName, resp.StatusCode, body.Error)
	}

	var body ScoreBody
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return ScoreBody{}, eris.Wrap(err, "decoding body")
	}

	return body, nil
}

// Assess satisfies entreprise.Scorer.
func (i *Invoker) Assess(ctx context.Context, name string, s, narrative scoring.Signals) (scoring.Assessment, error) {
	body, err := i.Score(ctx, s)
	if err != nil {
		return scoring.Assessment{}, err
	}

	return scoring.Assessment{
		Score:       body.Score,
		Tier:        scoring.Interpret(body.Score).Tier,
		Status:      body.StatusLabel,
		Description: body.Description,
		Narrative:   scoring.GenerateNarrative(name, narrative.SectorCode, narrative.EmployeeSizeCode, narrative.EstablishmentCount),
	}, nil
}
