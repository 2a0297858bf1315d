package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const sendTimeout = 10 * time.Second

// errBodyLimit caps how much of a failed response is read back for the error.
const errBodyLimit = 2048

func newHTTPClient() *http.Client { return &http.Client{Timeout: sendTimeout} }

// postJSON POSTs payload to url and returns the response status and body.
// A transport failure is the only error; status handling is left to callers.
func postJSON(ctx context.Context, client *http.Client, url string, payload any) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
	return resp.StatusCode, data, nil
}
