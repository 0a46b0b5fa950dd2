package handlers

// Error payloads. Client mistakes are reported with status 200, like the
// service this API mirrors; only server failures use 5xx.
const (
	MsgInvalidURL  = "invalid url"
	MsgNotFound    = "No short URL found for the given input"
	MsgServerError = "server error"
)

// CreateShortURLRequest carries the raw body so both form and JSON encodings
// of the url field are accepted.
type CreateShortURLRequest struct {
	ContentType string `header:"Content-Type"`
	RawBody     []byte
}

// ShortURLBody is the payload of both endpoints. Exactly one of Error or the
// OriginalURL/ShortURL pair is set.
type ShortURLBody struct {
	OriginalURL string `doc:"The normalized original URL" example:"https://www.freecodecamp.org" json:"original_url,omitempty"`
	ShortURL    int64  `doc:"The short code"              example:"123456"                      json:"short_url,omitempty"`
	Error       string `doc:"Why the request failed"      example:"invalid url"                 json:"error,omitempty"`
}

// CreateShortURLResponse is the response for POST /api/shorturl.
type CreateShortURLResponse struct {
	Status int
	Body   ShortURLBody
}

// RedirectRequest is the request for redirecting a short URL.
type RedirectRequest struct {
	ShortURL string `doc:"The short code" example:"123456" path:"short_url"`
}

// RedirectResponse redirects on a match and carries an error body otherwise.
type RedirectResponse struct {
	Status   int
	Location string `doc:"The original URL" header:"Location"`
	Body     *ShortURLBody
}
