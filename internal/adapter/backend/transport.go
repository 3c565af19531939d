package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/example/delivery-rider/internal/domain/types"
	"github.com/example/delivery-rider/pkg/logger"
	wrap "github.com/example/delivery-rider/pkg/logger/wrapper"
	"github.com/example/delivery-rider/pkg/metrics"
	"github.com/example/delivery-rider/pkg/uuid"
)

// StatusTokenExpired is the backend's "access token expired" status. The
// status alone is not enough: the body must carry code "expired" for the
// response to count as an expiry signal.
const StatusTokenExpired = 419

const expiredReasonCode = "expired"

// envelope is the backend's success wrapper: {"data": ...}
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// errorBody is the backend's error wrapper: {"code": ..., "message": ...}
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Transport performs single HTTP round trips against the backend and maps
// responses onto the domain error taxonomy. It never retries anything; replay
// on expiry is the pipeline's job.
type Transport struct {
	baseURL string
	http    *http.Client
	log     logger.Logger
}

func NewTransport(baseURL string, timeout time.Duration, log logger.Logger) *Transport {
	return &Transport{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// call runs one round trip, recording per-operation metrics.
func (t *Transport) call(ctx context.Context, op, method, path string, body any, bearer string, out any) error {
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{Action: op, RequestID: uuid.NewString()})

	start := time.Now()
	err := t.do(ctx, method, path, body, bearer, out)
	metrics.RecordAPIRequest(op, err, time.Since(start))

	if err != nil {
		t.log.Debug(ctx, "backend call failed", "method", method, "path", path, "err", err.Error())
	}
	return wrap.Error(ctx, err)
}

func (t *Transport) do(ctx context.Context, method, path string, body any, bearer string, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := t.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrTransport, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", types.ErrTransport, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		var env envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			return fmt.Errorf("%w: malformed response: %v", types.ErrTransport, err)
		}
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%w: malformed response data: %v", types.ErrTransport, err)
		}
		return nil
	}

	var eb errorBody
	// A body that does not decode is fine here, the status alone decides then.
	_ = json.Unmarshal(payload, &eb)

	switch {
	case resp.StatusCode == StatusTokenExpired && eb.Code == expiredReasonCode:
		return types.ErrAuthExpired
	case resp.StatusCode == http.StatusBadRequest && eb.Message != "":
		return &types.BusinessError{Message: eb.Message}
	default:
		return &types.APIError{Status: resp.StatusCode, Message: eb.Message}
	}
}
