package spotify

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned when upstream answers but the track has no canvas.
var ErrNotFound = errors.New("no canvas for track")

// UpstreamError reports a non-success HTTP status from an upstream call.
type UpstreamError struct {
	Endpoint string
	Status   int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s returned %d", e.Endpoint, e.Status)
}

// ServerTimeResponse is the web player's server clock payload. The field is a
// numeric string carrying Unix seconds.
type ServerTimeResponse struct {
	ServerTime json.Number `json:"serverTime"`
}

// TokenQuery carries the signed query parameters for the token endpoint.
type TokenQuery struct {
	Reason      string
	ProductType string
	TOTP        string
	TOTPVersion string
	TOTPServer  string
}

// TokenResponse is the token endpoint's payload.
type TokenResponse struct {
	AccessToken                      string `json:"accessToken"`
	AccessTokenExpirationTimestampMs int64  `json:"accessTokenExpirationTimestampMs"`
}

// canvasRequest is the persisted-query body for the canvas operation.
type canvasRequest struct {
	OperationName string           `json:"operationName"`
	Variables     canvasVariables  `json:"variables"`
	Extensions    canvasExtensions `json:"extensions"`
}

type canvasVariables struct {
	URI string `json:"uri"`
}

type canvasExtensions struct {
	PersistedQuery persistedQuery `json:"persistedQuery"`
}

type persistedQuery struct {
	Version    int    `json:"version"`
	SHA256Hash string `json:"sha256Hash"`
}

// canvasResponse mirrors the nested result path down to the canvas URL.
type canvasResponse struct {
	Data struct {
		TrackUnion struct {
			Canvas struct {
				URL string `json:"url"`
			} `json:"canvas"`
		} `json:"trackUnion"`
	} `json:"data"`
}
