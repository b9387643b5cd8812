package storage_test

import (
	"context"
	"testing"

	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/storage"
)

func TestNewObjectStore_RequiresBucket(t *testing.T) {
	if _, err := storage.NewObjectStore(context.Background(), storage.Config{AccessKeyID: "k", SecretAccessKey: "s"}); err == nil {
		t.Fatal("expected error without bucket")
	}
}

func TestPublicURL(t *testing.T) {
	ctx := context.Background()

	withBase, err := storage.NewObjectStore(ctx, storage.Config{
		Endpoint:        "minio.local:9000",
		AccessKeyID:     "k",
		SecretAccessKey: "s",
		Bucket:          "pos",
		PublicBaseURL:   "https://cdn.example.com/",
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := withBase.PublicURL("/receipts/downtown/ORD-0001.pdf"); got != "https://cdn.example.com/receipts/downtown/ORD-0001.pdf" {
		t.Errorf("public url: got %s", got)
	}

	bare, err := storage.NewObjectStore(ctx, storage.Config{AccessKeyID: "k", SecretAccessKey: "s", Bucket: "pos"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := bare.PublicURL("receipts/a.pdf"); got != "s3://pos/receipts/a.pdf" {
		t.Errorf("fallback url: got %s", got)
	}
}
