package lambdarunner

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/Tpgainz/smart-business-directory/runner"
	"github.com/Tpgainz/smart-business-directory/serverless"
)

type lambdarunner struct{}

func New(*runner.Config) (runner.Runner, error) {
	return &lambdarunner{}, nil
}

// Run hands control to the Lambda runtime and only returns when the
// runtime does.
func (l *lambdarunner) Run(ctx context.Context) error {
	zap.L().Info("starting scoring lambda")

	lambda.StartWithOptions(serverless.Handler, lambda.WithContext(ctx))

	return nil
}

func (l *lambdarunner) Close(context.Context) error {
	return nil
}
