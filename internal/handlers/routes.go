package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
)

// NewAPIConfig returns the huma configuration for the service. Responses are
// plain JSON objects without a $schema link.
func NewAPIConfig() huma.Config {
	config := huma.DefaultConfig("URL Shortener Microservice", "1.0.0")
	config.CreateHooks = nil

	return config
}

// RegisterRoutes registers all URL shortener routes.
func RegisterRoutes(api huma.API, urlHandler *URLHandler) {
	urlField := &huma.Schema{
		Type: huma.TypeObject,
		Properties: map[string]*huma.Schema{
			"url": {Type: huma.TypeString, Description: "The URL to shorten"},
		},
		Required: []string{"url"},
	}

	// POST /api/shorturl - Create short URL
	huma.Register(api, huma.Operation{
		OperationID: "create-short-url",
		Method:      http.MethodPost,
		Path:        "/api/shorturl",
		Summary:     "Create short URL",
		Description: "Validates the URL, checks that its host resolves and returns its short code. " +
			"Submitting the same URL again returns the same code.",
		Tags: []string{"URLs"},
		RequestBody: &huma.RequestBody{
			Content: map[string]*huma.MediaType{
				"application/x-www-form-urlencoded": {Schema: urlField},
				"application/json":                  {Schema: urlField},
			},
		},
		Responses: map[string]*huma.Response{
			"500": {Description: "Server error"},
		},
		// The body is read raw and decoded by content type; huma has no
		// form format to validate it with.
		SkipValidateBody: true,
	}, urlHandler.CreateShortURL)

	// GET /api/shorturl/{short_url} - Redirect to original URL
	huma.Register(api, huma.Operation{
		OperationID: "redirect-short-url",
		Method:      http.MethodGet,
		Path:        "/api/shorturl/{short_url}",
		Summary:     "Redirect to original URL",
		Description: "Redirects to the original URL associated with the short code.",
		Tags:        []string{"URLs"},
		Responses: map[string]*huma.Response{
			"302": {Description: "Redirect to the original URL"},
			"500": {Description: "Server error"},
		},
	}, urlHandler.RedirectToURL)
}
