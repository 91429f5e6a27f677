package server

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/patchgo/patchgo/pkg/protocol"
	"github.com/patchgo/patchgo/pkg/release"
	"github.com/patchgo/patchgo/pkg/version"
)

// handleLatest serves the signed current-latest-version metadata.
func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	body := protocol.LatestVersion{Version: s.registry.LatestVersion()}
	s.writeSignedJSON(w, body)
}

// handleHash serves the signed hash metadata for a single version.
func (s *Server) handleHash(w http.ResponseWriter, r *http.Request) {
	v, err := version.Parse(r.PathValue("version"))
	if err != nil {
		writeInvalidURL(w, err)
		return
	}

	hash, ok := s.registry.Hash(v)
	if !ok {
		writeNotFound(w, v)
		return
	}

	s.writeSignedJSON(w, protocol.VersionHash{Version: v, Hash: hash})
}

// handleRelease streams or buffers the raw release bytes for a version.
// The response is intentionally unsigned: clients re-authenticate the
// bytes against the separately-signed hash.
func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	v, err := version.Parse(r.PathValue("version"))
	if err != nil {
		writeInvalidURL(w, err)
		return
	}

	path, ok := s.registry.ReleaseFile(v)
	if !ok {
		writeNotFound(w, v)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		s.logger.Error("release file unreadable at serve time", zap.String("path", path), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.logger.Error("release file stat failed at serve time", zap.String("path", path), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if info.IsDir() {
		s.logger.Error("release path is a directory at serve time", zap.String("path", path))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	params := s.registry.Streaming()
	w.Header().Set(protocol.HeaderContentType, protocol.ContentTypeRelease)
	w.Header().Set(protocol.HeaderContentLength, fmt.Sprintf("%d", info.Size()))
	w.WriteHeader(http.StatusOK)

	if info.Size() > params.StreamThreshold {
		s.streamRelease(w, f, params)
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		s.logger.Error("failed to read release file", zap.String("path", path), zap.Error(err))
		return
	}
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("failed to write release response", zap.Error(err))
	}
}

// streamRelease copies the release file to w in bounded chunks, avoiding
// loading the entire file into memory. readBuffer sizes the reader side,
// streamBuffer sizes the per-iteration copy chunk.
func (s *Server) streamRelease(w http.ResponseWriter, f *os.File, params release.StreamingParams) {
	reader := bufio.NewReaderSize(f, params.ReadBuffer)
	chunk := make([]byte, params.StreamBuffer)

	// The struct wrappers hide WriterTo/ReaderFrom so that io.CopyBuffer
	// actually copies through chunk instead of bypassing it.
	if _, err := io.CopyBuffer(struct{ io.Writer }{w}, struct{ io.Reader }{reader}, chunk); err != nil {
		s.logger.Warn("release stream interrupted", zap.Error(err))
	}
}

func (s *Server) writeSignedJSON(w http.ResponseWriter, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to marshal signed metadata", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	sig := s.registry.Key().Sign(body)

	w.Header().Set(protocol.HeaderContentType, protocol.ContentTypeJSON)
	w.Header().Set(protocol.HeaderContentLength, fmt.Sprintf("%d", len(body)))
	w.Header().Set(protocol.HeaderSignature, hex.EncodeToString(sig))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		s.logger.Warn("failed to write signed response", zap.Error(err))
	}
}

func writeNotFound(w http.ResponseWriter, v version.Version) {
	http.Error(w, fmt.Sprintf("Version %s not found", v), http.StatusNotFound)
}

func writeInvalidURL(w http.ResponseWriter, err error) {
	http.Error(w, fmt.Sprintf("Invalid URL: %v", err), http.StatusBadRequest)
}
