package client

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"unicode/utf8"

	"github.com/patchgo/patchgo/pkg/protocol"
	"github.com/patchgo/patchgo/pkg/signing"
)

// request joins the updater's base URL with endpoint, issues a GET, and
// returns the resolved URL and response on a 2xx status. The caller is
// responsible for closing resp.Body.
func (u *Updater) request(endpoint string) (string, *http.Response, error) {
	full, err := url.JoinPath(u.config.APIBaseURL, endpoint)
	if err != nil {
		return "", nil, errURL(KindInvalidURL, endpoint, err)
	}

	resp, err := u.httpClient.Get(full)
	if err != nil {
		return full, nil, errURL(KindHTTPRequestFailed, full, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return full, nil, errHTTPStatus(full, resp.StatusCode)
	}

	return full, resp, nil
}

// headerOr reads a header value, parses it with parse, and falls back to
// def on any missing or invalid value. This is deliberately lenient at the
// parse step: a missing Content-Length becomes 0, which then fails the
// length check downstream (TooMuchData for any non-empty body) rather than
// panicking here.
func headerOr[T any](resp *http.Response, name string, parse func(string) (T, error), def T) T {
	raw := resp.Header.Get(name)
	if raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		return def
	}
	return v
}

func parseContentLength(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// decodeAndVerify implements the shared signed-metadata response pipeline:
// content-type check, content-length discipline, signature header parsing,
// Ed25519 verification over the raw body, then JSON decode of T.
func decodeAndVerify[T any](url string, resp *http.Response, key signing.VerifyingKey) (T, error) {
	var zero T
	defer resp.Body.Close()

	contentType := resp.Header.Get(protocol.HeaderContentType)
	if contentType != protocol.ContentTypeJSON {
		return zero, errURL(KindUnexpectedContentType, url, fmt.Errorf("got %q", contentType))
	}

	declaredLen := headerOr(resp, protocol.HeaderContentLength, parseContentLength, int64(0))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return zero, errSimple(KindMissingData)
		}
		return zero, errURL(KindInvalidBody, url, err)
	}
	if !utf8.Valid(body) {
		return zero, errURL(KindInvalidBody, url, fmt.Errorf("body is not valid UTF-8"))
	}

	if int64(len(body)) < declaredLen {
		return zero, errSimple(KindMissingData)
	}
	if int64(len(body)) > declaredLen {
		return zero, errSimple(KindTooMuchData)
	}

	sigHeader := resp.Header.Get(protocol.HeaderSignature)
	if sigHeader == "" {
		return zero, errSimple(KindMissingSignature)
	}
	if len(sigHeader) != protocol.SignatureHexLen {
		return zero, errSimple(KindInvalidSignature)
	}
	sig, err := hex.DecodeString(sigHeader)
	if err != nil {
		return zero, errPath(KindInvalidSignature, "", err)
	}

	if !key.Verify(body, sig) {
		return zero, errSimple(KindFailedSignatureVerification)
	}

	var decoded T
	if err := json.Unmarshal(body, &decoded); err != nil {
		return zero, errPath(KindInvalidPayload, "", err)
	}

	return decoded, nil
}
