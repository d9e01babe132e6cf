package chart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultQuickChartURL = "https://quickchart.io/chart"

// QuickChart implements Rasterizer against a QuickChart-compatible endpoint:
// POST a Chart.js configuration, receive PNG bytes.
type QuickChart struct {
	Endpoint   string // defaults to the public instance
	HTTPClient *http.Client
	Width      int
	Height     int
}

type quickChartRequest struct {
	Chart           any    `json:"chart"`
	Format          string `json:"format"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	BackgroundColor string `json:"backgroundColor"`
}

func (q *QuickChart) Render(ctx context.Context, spec Spec) ([]byte, error) {
	endpoint := q.Endpoint
	if endpoint == "" {
		endpoint = defaultQuickChartURL
	}
	width, height := q.Width, q.Height
	if width <= 0 {
		width = 800
	}
	if height <= 0 {
		height = 400
	}

	payload := quickChartRequest{
		Chart:           chartConfig(spec),
		Format:          "png",
		Width:           width,
		Height:          height,
		BackgroundColor: "white",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	req.Header.Set("Content-Type", "application/json")

	hc := q.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrRender, resp.StatusCode)
	}
	img, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	if len(img) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrRender)
	}
	return img, nil
}

// chartConfig builds the Chart.js configuration the service rasterizes.
func chartConfig(spec Spec) map[string]any {
	axisTitle := ""
	switch spec.AxisUnit {
	case AxisPercent:
		axisTitle = "%"
	case AxisCurrency:
		axisTitle = "Amount"
	}
	cfg := map[string]any{
		"type": string(spec.Kind),
		"data": map[string]any{
			"labels": spec.Labels,
			"datasets": []map[string]any{{
				"label": spec.Title,
				"data":  spec.Series,
				"fill":  false,
			}},
		},
		"options": map[string]any{
			"plugins": map[string]any{
				"title": map[string]any{"display": spec.Title != "", "text": spec.Title},
			},
		},
	}
	if axisTitle != "" {
		cfg["options"].(map[string]any)["scales"] = map[string]any{
			"y": map[string]any{
				"title": map[string]any{"display": true, "text": axisTitle},
			},
		}
	}
	return cfg
}
