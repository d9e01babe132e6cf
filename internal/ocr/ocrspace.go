package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultOCRSpaceURL = "https://api.ocr.space/parse/image"

// OCRSpace implements Client against the OCR.Space /parse/image endpoint.
// URL extraction posts a form-encoded body; inline bytes go as multipart.
type OCRSpace struct {
	APIKey     string
	BaseURL    string // optional override, defaults to the public endpoint
	HTTPClient *http.Client
}

func (c *OCRSpace) endpoint() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return defaultOCRSpaceURL
}

func (c *OCRSpace) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 60 * time.Second}
}

// ExtractURL asks the service to fetch and OCR the PDF at srcURL.
func (c *OCRSpace) ExtractURL(ctx context.Context, srcURL, language string) (string, error) {
	if c.APIKey == "" {
		return "", &Error{Op: "ExtractURL", Err: ErrMissingKey}
	}
	form := url.Values{}
	form.Set("url", srcURL)
	setCommonFields(form, language)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), strings.NewReader(form.Encode()))
	if err != nil {
		return "", &Error{Op: "ExtractURL", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("apikey", c.APIKey)
	return c.do(req, "ExtractURL")
}

// ExtractBytes uploads inline PDF bytes as a multipart file field.
func (c *OCRSpace) ExtractBytes(ctx context.Context, data []byte, filename, language string) (string, error) {
	if c.APIKey == "" {
		return "", &Error{Op: "ExtractBytes", Err: ErrMissingKey}
	}
	if filename == "" {
		filename = "upload.pdf"
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		filename += ".pdf"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", &Error{Op: "ExtractBytes", Err: err}
	}
	if _, err := fw.Write(data); err != nil {
		return "", &Error{Op: "ExtractBytes", Err: err}
	}
	form := url.Values{}
	setCommonFields(form, language)
	for k := range form {
		if err := mw.WriteField(k, form.Get(k)); err != nil {
			return "", &Error{Op: "ExtractBytes", Err: err}
		}
	}
	if err := mw.Close(); err != nil {
		return "", &Error{Op: "ExtractBytes", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), &body)
	if err != nil {
		return "", &Error{Op: "ExtractBytes", Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("apikey", c.APIKey)
	return c.do(req, "ExtractBytes")
}

// setCommonFields mirrors the request shape the service expects for PDFs:
// engine 2, scaling and orientation detection on, no word overlay.
func setCommonFields(form url.Values, language string) {
	if language == "" {
		language = "eng"
	}
	form.Set("language", strings.ToLower(language))
	form.Set("filetype", "PDF")
	form.Set("isOverlayRequired", "false")
	form.Set("detectOrientation", "true")
	form.Set("scale", "true")
	form.Set("OCREngine", "2")
}

type parseResponse struct {
	ParsedResults []struct {
		ParsedText string `json:"ParsedText"`
	} `json:"ParsedResults"`
	IsErroredOnProcessing bool            `json:"IsErroredOnProcessing"`
	ErrorMessage          json.RawMessage `json:"ErrorMessage"`
	ErrorDetails          string          `json:"ErrorDetails"`
}

func (c *OCRSpace) do(req *http.Request, op string) (string, error) {
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", &Error{Op: op, Err: ErrUnavailable, Detail: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &Error{Op: op, Err: ErrUnavailable, Detail: fmt.Sprintf("status %d", resp.StatusCode)}
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return "", &Error{Op: op, Err: ErrUnavailable, Detail: err.Error()}
	}
	var pr parseResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return "", &Error{Op: op, Err: ErrProcessing, Detail: "non-JSON response"}
	}
	if pr.IsErroredOnProcessing {
		return "", &Error{Op: op, Err: ErrProcessing, Detail: errorDetail(pr)}
	}
	// All pages, concatenated in reading order.
	var parts []string
	for _, r := range pr.ParsedResults {
		if t := strings.TrimSpace(r.ParsedText); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n"), nil
}

// errorDetail flattens the service's error fields; ErrorMessage may be a
// string or an array of strings depending on the failure.
func errorDetail(pr parseResponse) string {
	var msgs []string
	if len(pr.ErrorMessage) > 0 {
		var many []string
		var one string
		if err := json.Unmarshal(pr.ErrorMessage, &many); err == nil {
			msgs = append(msgs, many...)
		} else if err := json.Unmarshal(pr.ErrorMessage, &one); err == nil && one != "" {
			msgs = append(msgs, one)
		}
	}
	if pr.ErrorDetails != "" {
		msgs = append(msgs, pr.ErrorDetails)
	}
	if len(msgs) == 0 {
		return "unknown processing error"
	}
	return strings.Join(msgs, "; ")
}
