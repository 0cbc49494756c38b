package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Record is one daily mileage reading as the telemetry API returns it.
// TOT_DTN arrives as either a number or a numeric string.
type Record struct {
	SensorID string    `json:"SNR_ID"`
	Date     string    `json:"RD_DT"`
	Distance FlexFloat `json:"TOT_DTN"`
	Duration FlexFloat `json:"TOT_TM"`
}

// FlexFloat decodes JSON numbers and numeric strings alike.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		*f = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse distance %q: %w", s, err)
	}
	*f = FlexFloat(v)
	return nil
}

type apiResponse struct {
	Status  string          `json:"STATUS"`
	Result  json.RawMessage `json:"RESULT"`
	Message string          `json:"MESSAGE,omitempty"`
}

type Config struct {
	BaseURL    string
	ServiceKey string
	Timeout    time.Duration
}

// Client calls the external mobility-telemetry API.
type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  logger,
	}
}

// FetchDaily queries one day's readings. The API returns RESULT as a single
// record or an array depending on the day's data, so both shapes decode.
func (c *Client) FetchDaily(ctx context.Context, date string, sensorID string) ([]Record, error) {
	rid := uuid.New().String()
	start := time.Now()

	body := map[string]any{"RD_DT": date}
	if strings.TrimSpace(sensorID) != "" {
		body["SNR_ID"] = sensorID
	}
	bs, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(bs))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.ServiceKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.ServiceKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("telemetry.fetch.send_error", "req_id", rid, "date", date, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil {
			c.log.Warn("telemetry.fetch.body_close_error", "req_id", rid, "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("telemetry status %d: %s", resp.StatusCode, string(raw))
	}

	var ar apiResponse
	if err := json.Unmarshal(raw, &ar); err != nil {
		return nil, fmt.Errorf("decode telemetry response: %w", err)
	}
	if ar.Status != "SUCCESS" {
		return nil, fmt.Errorf("telemetry status %q: %s", ar.Status, ar.Message)
	}

	records, err := decodeResult(ar.Result)
	if err != nil {
		return nil, err
	}
	c.log.Info("telemetry.fetch.ok",
		"req_id", rid, "date", date, "records", len(records),
		"elapsed_ms", time.Since(start).Milliseconds())
	return records, nil
}

func decodeResult(raw json.RawMessage) ([]Record, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var many []Record
	if err := json.Unmarshal(raw, &many); err == nil {
		return many, nil
	}
	var one Record
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, fmt.Errorf("decode RESULT: %w", err)
	}
	return []Record{one}, nil
}
