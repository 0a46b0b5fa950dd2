package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"net/url"

	"github.com/serroba/shorturl/internal/registry"
	"github.com/serroba/shorturl/internal/validation"
	"go.uber.org/zap"
)

// URLValidator normalizes raw input into a resolvable http(s) URL.
type URLValidator interface {
	Validate(ctx context.Context, raw string) (string, error)
}

// CodeRegistry maps normalized URLs to short codes and back.
type CodeRegistry interface {
	LookupOrCreate(ctx context.Context, normalizedURL string) (*registry.Record, error)
	Resolve(ctx context.Context, rawCode string) (*registry.Record, error)
}

// URLHandler handles URL shortening operations.
type URLHandler struct {
	validator URLValidator
	registry  CodeRegistry
	logger    *zap.Logger
}

// NewURLHandler creates a new URL handler.
func NewURLHandler(validator URLValidator, registry CodeRegistry, logger *zap.Logger) *URLHandler {
	return &URLHandler{
		validator: validator,
		registry:  registry,
		logger:    logger,
	}
}

func (h *URLHandler) CreateShortURL(ctx context.Context, req *CreateShortURLRequest) (*CreateShortURLResponse, error) {
	raw, err := decodeURLField(req.ContentType, req.RawBody)
	if err != nil {
		return createFailure(http.StatusOK, MsgInvalidURL), nil
	}

	normalized, err := h.validator.Validate(ctx, raw)
	if err != nil {
		if errors.Is(err, validation.ErrInvalidURL) {
			return createFailure(http.StatusOK, MsgInvalidURL), nil
		}

		h.logger.Error("failed to validate url", zap.Error(err))

		return createFailure(http.StatusInternalServerError, MsgServerError), nil
	}

	record, err := h.registry.LookupOrCreate(ctx, normalized)
	if err != nil {
		h.logger.Error("failed to register url",
			zap.String("url", normalized),
			zap.Error(err),
		)

		return createFailure(http.StatusInternalServerError, MsgServerError), nil
	}

	resp := &CreateShortURLResponse{Status: http.StatusOK}
	resp.Body.OriginalURL = record.OriginalURL
	resp.Body.ShortURL = record.ShortCode

	return resp, nil
}

func (h *URLHandler) RedirectToURL(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	record, err := h.registry.Resolve(ctx, req.ShortURL)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return redirectFailure(http.StatusOK, MsgNotFound), nil
		}

		h.logger.Error("failed to resolve short url",
			zap.String("short_url", req.ShortURL),
			zap.Error(err),
		)

		return redirectFailure(http.StatusInternalServerError, MsgServerError), nil
	}

	return &RedirectResponse{
		Status:   http.StatusFound,
		Location: record.OriginalURL,
	}, nil
}

// decodeURLField extracts the url field from a JSON body or, for any other
// content type, from a form-encoded body.
func decodeURLField(contentType string, body []byte) (string, error) {
	mediaType := ""
	if contentType != "" {
		parsed, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			return "", err
		}

		mediaType = parsed
	}

	if mediaType == "application/json" {
		var payload struct {
			URL string `json:"url"`
		}

		if err := json.Unmarshal(body, &payload); err != nil {
			return "", err
		}

		return payload.URL, nil
	}

	form, err := url.ParseQuery(string(body))
	if err != nil {
		return "", err
	}

	return form.Get("url"), nil
}

func createFailure(status int, msg string) *CreateShortURLResponse {
	resp := &CreateShortURLResponse{Status: status}
	resp.Body.Error = msg

	return resp
}

func redirectFailure(status int, msg string) *RedirectResponse {
	return &RedirectResponse{
		Status: status,
		Body:   &ShortURLBody{Error: msg},
	}
}
