// Package serverless exposes the health score as an AWS Lambda function
// and provides the client that calls it.
package serverless

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Tpgainz/smart-business-directory/scoring"
)

var ErrNotAnObject = eris.New("payload must be a JSON object")

// Event is the request payload. Every field is optional.
type Event struct {
	EmployeeSizeCode   scoring.Field `json:"employeeSizeCode"`
	EstablishmentCount scoring.Field `json:"establishmentCount"`
	SectorCode         scoring.Field `json:"sectorCode"`
}

func (e Event) Signals() scoring.Signals {
	return scoring.Signals{
		EmployeeSizeCode:   e.EmployeeSizeCode,
		EstablishmentCount: e.EstablishmentCount,
		SectorCode:         e.SectorCode,
	}
}

type ScoreBody struct {
	Score       int    `json:"score"`
	StatusLabel string `json:"statusLabel"`
	Description string `json:"description"`
}

type ErrorBody struct {
	Error string `json:"error"`
}

// Response carries either a ScoreBody or an ErrorBody.
type Response struct {
	StatusCode int `json:"statusCode"`
	Body       any `json:"body"`
}

// Handler scores the event. It never returns a Go error: failures are
// reported as a 500 response so callers always get the same envelope.
func Handler(ctx context.Context, payload json.RawMessage) (resp Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("scoring handler panic", zap.Any("panic", r))
			resp = errorResponse(fmt.Errorf("%v", r))
			err = nil
		}
	}()

	event, err := DecodeEvent(payload)
	if err != nil {
		zap.L().Warn("invalid scoring payload", zap.Error(err))
		return errorResponse(err), nil
	}

	score := event.Signals().HealthScore()
	interp := scoring.Interpret(score)

	return Response{
		StatusCode: 200,
		Body: ScoreBody{
			Score:       score,
			StatusLabel: interp.Status,
			Description: interp.Description,
		},
	}, nil
}

// DecodeEvent accepts any JSON object. Unknown keys are ignored and missing
// ones are absent.
func DecodeEvent(payload []byte) (Event, error) {
	var event Event

	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 || payload[0] != '{' {
		return event, ErrNotAnObject
	}

	if err := json.Unmarshal(payload, &event); err != nil {
		return event, eris.Wrap(err, "decoding payload")
	}

	return event, nil
}

func errorResponse(err error) Response {
	return Response{
		StatusCode: 500,
		Body:       ErrorBody{Error: err.Error()},
	}
}
