// Package protocol defines the wire shapes exchanged between the release
// server and the client updater: the two signed JSON payloads and the HTTP
// header names that carry the signature and content framing.
package protocol

import (
	"github.com/patchgo/patchgo/pkg/contenthash"
	"github.com/patchgo/patchgo/pkg/version"
)

// Header names required on every signed metadata response.
const (
	HeaderContentType   = "Content-Type"
	HeaderContentLength = "Content-Length"
	HeaderSignature     = "X-Signature"
)

// Content-Type values used on the wire.
const (
	ContentTypeJSON    = "application/json"
	ContentTypeRelease = "application/octet-stream"
)

// SignatureHexLen is the length of the X-Signature header value: 64 raw
// signature bytes, hex-encoded.
const SignatureHexLen = 128

// Endpoint path templates, relative to the server's base URL.
const (
	EndpointLatest       = "/latest"
	EndpointHashPrefix   = "/hashes/"
	EndpointReleasePrefix = "/releases/"
)

// LatestVersion is the signed body of a GET /latest response.
type LatestVersion struct {
	Version version.Version `json:"version"`
}

// VersionHash is the signed body of a GET /hashes/{version} response.
type VersionHash struct {
	Version version.Version      `json:"version"`
	Hash    contenthash.Sha256Hash `json:"hash"`
}
