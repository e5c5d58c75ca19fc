/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package sqlite

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/fwsig/fwsig/internal/domain/model"
)

func TestManifest_CreateFindByDigest_OK(t *testing.T) {
	ctx := context.Background()
	db, err := InitDB(ctx, ":memory:")
	if err != nil {
		t.Fatalf("InitDB error: %v", err)
	}
	defer CloseDB(db)

	now := time.Now().UTC().Truncate(time.Second)
	repo := NewManifestRepository(db)

	record := &model.ManifestRecord{
		Digest:       bytes.Repeat([]byte{0x0d}, 32),
		Encoded:      bytes.Repeat([]byte{0x0e}, 214),
		AppName:      "widget",
		AppVersion:   "1.0.0",
		TransientKey: false,
		CreatedAt:    now,
	}

	id, err := repo.Create(ctx, record)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	record.ID = id

	got, err := repo.FindByDigest(ctx, record.Digest)
	if err != nil {
		t.Fatalf("FindByDigest error: %v", err)
	}
	if got == nil {
		t.Fatalf("expected record, got nil")
	}
	if got.ID != id || got.AppName != "widget" || !bytes.Equal(got.Encoded, record.Encoded) {
		t.Fatalf("record mismatch: %+v", got)
	}

	absent, err := repo.FindByDigest(ctx, []byte("absent"))
	if err != nil {
		t.Fatalf("FindByDigest error: %v", err)
	}
	if absent != nil {
		t.Fatalf("expected nil for absent digest")
	}
}

func TestManifest_DuplicateDigestRejected(t *testing.T) {
	ctx := context.Background()
	db, err := InitDB(ctx, ":memory:")
	if err != nil {
		t.Fatalf("InitDB error: %v", err)
	}
	defer CloseDB(db)

	now := time.Now().UTC().Truncate(time.Second)
	repo := NewManifestRepository(db)
	digest := bytes.Repeat([]byte{0x11}, 32)

	base := model.ManifestRecord{
		Digest: digest, Encoded: []byte("m"), AppName: "a", AppVersion: "1", CreatedAt: now,
	}
	if _, err := repo.Create(ctx, &base); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	dup := base
	if _, err := repo.Create(ctx, &dup); err == nil {
		t.Fatalf("expected unique constraint violation")
	}
}

func TestManifest_ListAndLatest(t *testing.T) {
	ctx := context.Background()
	db, err := InitDB(ctx, ":memory:")
	if err != nil {
		t.Fatalf("InitDB error: %v", err)
	}
	defer CloseDB(db)

	now := time.Now().UTC().Truncate(time.Second)
	repo := NewManifestRepository(db)

	records := []*model.ManifestRecord{
		{Digest: []byte("d1"), Encoded: []byte("m1"), AppName: "widget", AppVersion: "1.0.0", CreatedAt: now},
		{Digest: []byte("d2"), Encoded: []byte("m2"), AppName: "widget", AppVersion: "1.1.0", CreatedAt: now.Add(time.Minute)},
		{Digest: []byte("d3"), Encoded: []byte("m3"), AppName: "gadget", AppVersion: "0.9.0", CreatedAt: now.Add(2 * time.Minute)},
	}
	for _, record := range records {
		if _, err := repo.Create(ctx, record); err != nil {
			t.Fatalf("Create error: %v", err)
		}
	}

	widgets, err := repo.ListByName(ctx, "widget")
	if err != nil {
		t.Fatalf("ListByName error: %v", err)
	}
	if len(widgets) != 2 {
		t.Fatalf("expected 2 widget records, got %d", len(widgets))
	}
	if widgets[0].AppVersion != "1.1.0" {
		t.Fatalf("expected newest first, got %q", widgets[0].AppVersion)
	}

	all, err := repo.ListByName(ctx, "")
	if err != nil {
		t.Fatalf("ListByName error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}

	latest, err := repo.Latest(ctx, "widget")
	if err != nil {
		t.Fatalf("Latest error: %v", err)
	}
	if latest == nil || latest.AppVersion != "1.1.0" {
		t.Fatalf("Latest mismatch: %+v", latest)
	}

	none, err := repo.Latest(ctx, "unknown")
	if err != nil {
		t.Fatalf("Latest error: %v", err)
	}
	if none != nil {
		t.Fatalf("expected nil for unknown app")
	}
}
