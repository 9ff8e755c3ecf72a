package rasterize

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

const pptxMIME = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

// DefaultMaxResponseBytes bounds the JSON body of a conversion response.
const DefaultMaxResponseBytes = 256 << 20

// HTTP posts the raw package to a conversion service. The service answers
// with JSON:
//
//	{"available": true, "combined": false, "slides": [{"mime": "image/png", "data": "<base64>"}]}
//
// 404, 501 and 503 mean the service cannot convert at all.
type HTTP struct {
	Endpoint         string
	Client           *http.Client
	MaxResponseBytes int64
}

func NewHTTP(endpoint string, timeout time.Duration, maxResponseBytes int64) *HTTP {
	if maxResponseBytes <= 0 {
		maxResponseBytes = DefaultMaxResponseBytes
	}
	return &HTTP{
		Endpoint:         endpoint,
		Client:           &http.Client{Timeout: timeout},
		MaxResponseBytes: maxResponseBytes,
	}
}

func (h *HTTP) Name() string { return "remote" }

type httpSlide struct {
	MIME string `json:"mime"`
	Data string `json:"data"`
}

type httpResponse struct {
	Available *bool       `json:"available"`
	Combined  bool        `json:"combined"`
	Slides    []httpSlide `json:"slides"`
}

func (h *HTTP) Rasterize(ctx context.Context, data []byte) (Result, error) {
	if h == nil || h.Endpoint == "" {
		return Result{}, ErrUnavailable
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Endpoint, bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", pptxMIME)
	req.Header.Set("Accept", "application/json")

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("post %s: %w", h.Endpoint, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusNotImplemented, http.StatusServiceUnavailable:
		return Result{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{}, fmt.Errorf("conversion service status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	body, err := readAllWithLimit(resp.Body, h.MaxResponseBytes)
	if err != nil {
		return Result{}, err
	}
	var payload httpResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return Result{}, fmt.Errorf("decode response: %w", err)
	}
	if payload.Available != nil && !*payload.Available {
		return Result{}, ErrUnavailable
	}

	res := Result{Combined: payload.Combined, Images: make([]Image, 0, len(payload.Slides))}
	for i, s := range payload.Slides {
		raw, err := base64.StdEncoding.DecodeString(s.Data)
		if err != nil {
			return Result{}, fmt.Errorf("slide %d: decode image: %w", i+1, err)
		}
		mt := s.MIME
		if mt == "" {
			mt = mimetype.Detect(raw).String()
		}
		if !strings.HasPrefix(mt, "image/") {
			return Result{}, fmt.Errorf("slide %d: not an image (%s)", i+1, mt)
		}
		res.Images = append(res.Images, Image{MIME: mt, Data: raw})
	}
	return res, nil
}

// ResponseTooLargeError is returned when a body exceeds its size limit.
type ResponseTooLargeError struct {
	Limit int64
}

func (e ResponseTooLargeError) Error() string {
	return fmt.Sprintf("response exceeds %d bytes", e.Limit)
}

func readAllWithLimit(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(&io.LimitedReader{R: r, N: limit + 1})
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ResponseTooLargeError{Limit: limit}
	}
	return data, nil
}
