/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package server

import (
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/fwsig/fwsig/internal/bundle"
	"github.com/fwsig/fwsig/internal/config"
	"github.com/fwsig/fwsig/internal/domain/model"
	"github.com/fwsig/fwsig/internal/domain/service"
	"github.com/fwsig/fwsig/internal/infra/sqlite"
	"github.com/fwsig/fwsig/internal/manifest"
)

// defaultMaxBundleBytes bounds publish request bodies when the
// configuration does not say otherwise. Matches the largest app a
// manifest can describe (u32 length) only in spirit; in practice
// firmware bundles are far smaller.
const defaultMaxBundleBytes = 64 << 20 // 64 MiB

type handler struct {
	keys      service.TrustedKeyRepository
	manifests service.ManifestRepository
	cfg       config.RegistryConfig
	logger    *log.Logger
}

func newHandler(db *sql.DB, cfg config.RegistryConfig, logger *log.Logger) *handler {
	return &handler{
		keys:      sqlite.NewTrustedKeyRepository(db),
		manifests: sqlite.NewManifestRepository(db),
		cfg:       cfg,
		logger:    logger,
	}
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/manifests":
		switch r.Method {
		case http.MethodPost:
			h.publishManifest(w, r)
		case http.MethodGet:
			h.listManifests(w, r)
		default:
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		}
	case strings.HasPrefix(r.URL.Path, "/api/manifests/"):
		if r.Method != http.MethodGet {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		h.getManifest(w, r, strings.TrimPrefix(r.URL.Path, "/api/manifests/"))
	case r.URL.Path == "/api/keys":
		switch r.Method {
		case http.MethodPost:
			h.addTrustedKey(w, r)
		case http.MethodGet:
			h.listTrustedKeys(w, r)
		default:
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		}
	case strings.HasPrefix(r.URL.Path, "/api/keys/"):
		if r.Method != http.MethodDelete {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		h.revokeTrustedKey(w, r, strings.TrimPrefix(r.URL.Path, "/api/keys/"))
	default:
		http.NotFound(w, r)
	}
}

// publishManifest accepts either a detached encoded manifest (exactly
// 214 bytes) or a combined bundle. Combined bundles get the full
// integrity check against their payloads; both forms must pass the
// trust check against the active key allow-list before storage.
func (h *handler) publishManifest(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "application/octet-stream" {
		h.logger.Printf("publish: content type mismatch: %q", ct)
		http.Error(w, "This endpoint only accepts Content-Type: application/octet-stream", http.StatusUnsupportedMediaType)
		return
	}

	maxBytes := h.cfg.MaxBundleBytes
	if maxBytes == 0 {
		maxBytes = defaultMaxBundleBytes
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes+1))
	if err != nil {
		h.logger.Printf("publish: reading request body: %v", err)
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	if int64(len(body)) > maxBytes {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	var m *manifest.Manifest
	if len(body) == manifest.EncodedLen {
		// Detached mode: the payloads are not present, so integrity
		// of the content cannot be checked here, only trust.
		if m, err = manifest.Decode(body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	} else {
		app, meta, decoded, splitErr := bundle.Split(body)
		if splitErr != nil {
			http.Error(w, splitErr.Error(), http.StatusBadRequest)
			return
		}
		if err := decoded.Check(app, meta); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		m = decoded
	}

	if m.Flags.TransientKey() && !h.cfg.AllowTransient {
		http.Error(w, "manifests signed with a transient key are not accepted", http.StatusForbidden)
		return
	}

	allowed, err := h.allowedKeys(r)
	if err != nil {
		h.logger.Printf("publish: loading trusted keys: %v", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if err := m.Verify(allowed); err != nil {
		switch {
		case errors.Is(err, manifest.ErrNoMatchingKey):
			http.Error(w, "signing key is not trusted", http.StatusForbidden)
		default:
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		}
		return
	}

	encoded := m.Encode()
	digest := manifest.ComputeChecksum(encoded)

	existing, err := h.manifests.FindByDigest(r.Context(), digest[:])
	if err != nil {
		h.logger.Printf("publish: digest lookup: %v", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if existing != nil {
		h.writeJSON(w, http.StatusOK, recordSummary(existing))
		return
	}

	record := &model.ManifestRecord{
		Encoded:      encoded,
		Digest:       digest[:],
		AppName:      m.AppName.Text(),
		AppVersion:   m.AppVersion.Text(),
		TransientKey: m.Flags.TransientKey(),
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	id, err := h.manifests.Create(r.Context(), record)
	if err != nil {
		h.logger.Printf("publish: storing manifest: %v", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	record.ID = id

	h.writeJSON(w, http.StatusCreated, recordSummary(record))
}

func (h *handler) listManifests(w http.ResponseWriter, r *http.Request) {
	records, err := h.manifests.ListByName(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		h.logger.Printf("list: %v", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	summaries := make([]manifestSummary, 0, len(records))
	for i := range records {
		summaries = append(summaries, recordSummary(&records[i]))
	}
	h.writeJSON(w, http.StatusOK, summaries)
}

func (h *handler) getManifest(w http.ResponseWriter, r *http.Request, digestHex string) {
	digest, err := hex.DecodeString(digestHex)
	if err != nil || len(digest) != manifest.ChecksumLen {
		http.Error(w, "malformed manifest digest", http.StatusBadRequest)
		return
	}

	record, err := h.manifests.FindByDigest(r.Context(), digest)
	if err != nil {
		h.logger.Printf("get: %v", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if record == nil {
		http.NotFound(w, r)
		return
	}

	m, err := manifest.Decode(record.Encoded)
	if err != nil {
		h.logger.Printf("get: stored manifest %x does not decode: %v", record.Digest, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, manifestDetail{
		manifestSummary: recordSummary(record),
		Version:         m.Version,
		Flags:           uint16(m.Flags),
		AppLen:          m.AppLen,
		AppChecksum:     m.AppChecksum.String(),
		MetaKind:        m.MetaKind.String(),
		MetaLen:         m.MetaLen,
		MetaChecksum:    m.MetaChecksum.String(),
		PublicKey:       m.Key.String(),
		Signature:       m.Sig.String(),
	})
}

type trustedKeyRequest struct {
	Name      string `json:"name"`
	PublicKey string `json:"public_key"`
}

func (h *handler) addTrustedKey(w http.ResponseWriter, r *http.Request) {
	var req trustedKeyRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "key name is required", http.StatusBadRequest)
		return
	}

	pub, err := manifest.ParsePublicKey(req.PublicKey)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	existing, err := h.keys.FindByPublicKey(r.Context(), pub[:])
	if err != nil {
		h.logger.Printf("addkey: %v", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if existing != nil {
		http.Error(w, "key already registered", http.StatusConflict)
		return
	}

	key := &model.TrustedKey{
		PublicKey: pub[:],
		Name:      req.Name,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	if _, err := h.keys.Create(r.Context(), key); err != nil {
		h.logger.Printf("addkey: %v", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, trustedKeySummary{
		Name:      key.Name,
		PublicKey: pub.String(),
		CreatedAt: key.CreatedAt,
	})
}

func (h *handler) listTrustedKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.keys.ListActive(r.Context())
	if err != nil {
		h.logger.Printf("listkeys: %v", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	summaries := make([]trustedKeySummary, 0, len(keys))
	for _, key := range keys {
		summaries = append(summaries, trustedKeySummary{
			Name:      key.Name,
			PublicKey: hex.EncodeToString(key.PublicKey),
			CreatedAt: key.CreatedAt,
		})
	}
	h.writeJSON(w, http.StatusOK, summaries)
}

func (h *handler) revokeTrustedKey(w http.ResponseWriter, r *http.Request, keyHex string) {
	pub, err := manifest.ParsePublicKey(keyHex)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.keys.Revoke(r.Context(), pub[:]); err != nil {
		h.logger.Printf("revoke: %v", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// allowedKeys loads the active trusted keys as verification keys.
func (h *handler) allowedKeys(r *http.Request) ([]manifest.PublicKey, error) {
	keys, err := h.keys.ListActive(r.Context())
	if err != nil {
		return nil, err
	}

	allowed := make([]manifest.PublicKey, 0, len(keys))
	for _, key := range keys {
		if len(key.PublicKey) != manifest.PublicKeyLen {
			h.logger.Printf("skipping malformed trusted key %q (%d bytes)", key.Name, len(key.PublicKey))
			continue
		}
		var pub manifest.PublicKey
		copy(pub[:], key.PublicKey)
		allowed = append(allowed, pub)
	}
	return allowed, nil
}

type manifestSummary struct {
	Digest       string    `json:"digest"`
	AppName      string    `json:"app_name"`
	AppVersion   string    `json:"app_version"`
	TransientKey bool      `json:"transient_key"`
	CreatedAt    time.Time `json:"created_at"`
}

type manifestDetail struct {
	manifestSummary
	Version      uint16 `json:"version"`
	Flags        uint16 `json:"flags"`
	AppLen       uint32 `json:"app_len"`
	AppChecksum  string `json:"app_checksum"`
	MetaKind     string `json:"meta_kind"`
	MetaLen      uint16 `json:"meta_len"`
	MetaChecksum string `json:"meta_checksum"`
	PublicKey    string `json:"public_key"`
	Signature    string `json:"signature"`
}

type trustedKeySummary struct {
	Name      string    `json:"name"`
	PublicKey string    `json:"public_key"`
	CreatedAt time.Time `json:"created_at"`
}

func recordSummary(record *model.ManifestRecord) manifestSummary {
	return manifestSummary{
		Digest:       hex.EncodeToString(record.Digest),
		AppName:      record.AppName,
		AppVersion:   record.AppVersion,
		TransientKey: record.TransientKey,
		CreatedAt:    record.CreatedAt,
	}
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Printf("writing response: %v", err)
	}
}
