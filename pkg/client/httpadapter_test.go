package client

import (
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchgo/patchgo/pkg/protocol"
	"github.com/patchgo/patchgo/pkg/signing"
)

func testVerifyingKey(t *testing.T) (signing.SigningKey, signing.VerifyingKey) {
	t.Helper()
	key, err := signing.GenerateSigningKey()
	require.NoError(t, err)
	return key, key.VerifyingKey()
}

func doGet(t *testing.T, srv *httptest.Server) *http.Response {
	t.Helper()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	return resp
}

func TestDecodeAndVerifyRejectsWrongContentType(t *testing.T) {
	_, vk := testVerifyingKey(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(protocol.HeaderContentType, "text/plain")
		w.Write([]byte(`{"version":"1.0.0"}`))
	}))
	defer srv.Close()

	_, err := decodeAndVerify[protocol.LatestVersion](srv.URL, doGet(t, srv), vk)
	require.Error(t, err)
	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, KindUnexpectedContentType, cerr.Kind)
}

func TestDecodeAndVerifyRejectsNonUTF8Body(t *testing.T) {
	_, vk := testVerifyingKey(t)
	body := []byte{0x7b, 0xff, 0xfe, 0x7d} // invalid UTF-8, not valid JSON either
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(protocol.HeaderContentType, protocol.ContentTypeJSON)
		w.Header().Set(protocol.HeaderContentLength, strconv.Itoa(len(body)))
		w.Write(body)
	}))
	defer srv.Close()

	_, err := decodeAndVerify[protocol.LatestVersion](srv.URL, doGet(t, srv), vk)
	require.Error(t, err)
	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, KindInvalidBody, cerr.Kind)
}

func TestDecodeAndVerifyRejectsMissingData(t *testing.T) {
	_, vk := testVerifyingKey(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(protocol.HeaderContentType, protocol.ContentTypeJSON)
		w.Header().Set(protocol.HeaderContentLength, "999")
		w.Write([]byte(`{"version":"1.0.0"}`))
	}))
	defer srv.Close()

	_, err := decodeAndVerify[protocol.LatestVersion](srv.URL, doGet(t, srv), vk)
	require.Error(t, err)
	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, KindMissingData, cerr.Kind)
}

func TestDecodeAndVerifyRejectsMissingSignature(t *testing.T) {
	_, vk := testVerifyingKey(t)
	body := []byte(`{"version":"1.0.0"}`)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(protocol.HeaderContentType, protocol.ContentTypeJSON)
		w.Header().Set(protocol.HeaderContentLength, strconv.Itoa(len(body)))
		w.Write(body)
	}))
	defer srv.Close()

	_, err := decodeAndVerify[protocol.LatestVersion](srv.URL, doGet(t, srv), vk)
	require.Error(t, err)
	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, KindMissingSignature, cerr.Kind)
}

func TestDecodeAndVerifyRejectsTamperedSignature(t *testing.T) {
	key, vk := testVerifyingKey(t)
	body := []byte(`{"version":"1.0.0"}`)
	sig := key.Sign([]byte("different body"))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(protocol.HeaderContentType, protocol.ContentTypeJSON)
		w.Header().Set(protocol.HeaderContentLength, strconv.Itoa(len(body)))
		w.Header().Set(protocol.HeaderSignature, hex.EncodeToString(sig))
		w.Write(body)
	}))
	defer srv.Close()

	_, err := decodeAndVerify[protocol.LatestVersion](srv.URL, doGet(t, srv), vk)
	require.Error(t, err)
	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, KindFailedSignatureVerification, cerr.Kind)
}

func TestDecodeAndVerifySucceeds(t *testing.T) {
	key, vk := testVerifyingKey(t)
	body := []byte(`{"version":"1.2.3"}`)
	sig := key.Sign(body)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(protocol.HeaderContentType, protocol.ContentTypeJSON)
		w.Header().Set(protocol.HeaderContentLength, strconv.Itoa(len(body)))
		w.Header().Set(protocol.HeaderSignature, hex.EncodeToString(sig))
		w.Write(body)
	}))
	defer srv.Close()

	got, err := decodeAndVerify[protocol.LatestVersion](srv.URL, doGet(t, srv), vk)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", got.Version.String())
}

func TestRequestJoinsURLAndHandlesErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	u := newTestUpdater(t, "/bin/true", Config{APIBaseURL: srv.URL + "/"})
	_, _, err := u.request("broken")
	require.Error(t, err)
	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, KindHTTPError, cerr.Kind)
	assert.Equal(t, http.StatusInternalServerError, cerr.Status)
}
