package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"overdub/internal/services"
)

const xttsAttempts = 3

// XTTS synthesizes speech through an XTTS voice cloning server. The server
// receives the text plus a reference sample path and responds with the
// synthesized audio bytes.
type XTTS struct {
	baseURL string
	client  *http.Client
	backoff time.Duration
}

type xttsRequest struct {
	Text       string  `json:"text"`
	SpeakerWAV string  `json:"speaker_wav"`
	Language   string  `json:"language"`
	Speed      float64 `json:"speed"`
}

// NewXTTS constructs the cloning synthesis backend.
func NewXTTS(baseURL string) *XTTS {
	return &XTTS{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  &http.Client{},
		backoff: time.Second,
	}
}

// Synthesize posts the segment to the cloning server and writes the returned
// audio to outPath. Transport errors and server-side failures are retried a
// few times with a short backoff before giving up.
func (x *XTTS) Synthesize(ctx context.Context, req SynthesisRequest, outPath string) error {
	if x == nil {
		return services.Wrap(services.ErrConfiguration, "render", "xtts", "backend not initialized", nil)
	}
	if strings.TrimSpace(req.ReferenceAudio) == "" {
		return services.Wrap(services.ErrConfiguration, "render", "xtts", "reference audio is required for cloning synthesis", nil)
	}
	speed := req.SpeedFactor
	if speed <= 0 {
		speed = 1.0
	}
	payload, err := json.Marshal(xttsRequest{
		Text:       req.Text,
		SpeakerWAV: req.ReferenceAudio,
		Language:   req.Language,
		Speed:      speed,
	})
	if err != nil {
		return services.Wrap(services.ErrRender, "render", "xtts", "encode synthesis request", err)
	}

	var lastErr error
	for attempt := 1; attempt <= xttsAttempts; attempt++ {
		retryable, err := x.post(ctx, payload, outPath)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable || attempt == xttsAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return wrapSynthesisError(ctx, "xtts", lastErr)
		case <-time.After(time.Duration(attempt) * x.backoff):
		}
	}
	return wrapSynthesisError(ctx, "xtts", lastErr)
}

// post performs one synthesis request. The retryable result distinguishes
// transport and server-side failures from client errors that will not heal
// on retry.
func (x *XTTS) post(ctx context.Context, payload []byte, outPath string) (bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, x.baseURL+"/synthesize", bytes.NewReader(payload))
	if err != nil {
		return false, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := x.client.Do(httpReq)
	if err != nil {
		return true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("xtts server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		return resp.StatusCode >= http.StatusInternalServerError, err
	}

	out, err := os.Create(outPath)
	if err != nil {
		return false, err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		_ = os.Remove(outPath)
		return true, err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(outPath)
		return false, err
	}
	return false, nil
}
