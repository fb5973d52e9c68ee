package blob

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
)

func roundTrip(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	info, err := s.Put(ctx, "demo/canonical.json", strings.NewReader(`{"a":1}`), "application/json")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "demo/canonical.json" || info.Size != 7 {
		t.Fatalf("info = %+v", info)
	}

	// Overwrite is allowed; reruns replace prior artifacts.
	if _, err := s.Put(ctx, "demo/canonical.json", strings.NewReader(`{"a":2}`), "application/json"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	_, rc, err := s.Get(ctx, "demo/canonical.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(data, []byte(`{"a":2}`)) {
		t.Fatalf("data = %s", data)
	}

	if _, err := s.Put(ctx, "demo/report.json", strings.NewReader(`{}`), "application/json"); err != nil {
		t.Fatalf("put report: %v", err)
	}
	infos, err := s.List(ctx, "demo/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "demo/canonical.json" || infos[1].Key != "demo/report.json" {
		t.Fatalf("list = %+v", infos)
	}

	ok, err := s.Delete(ctx, "demo/report.json")
	if err != nil || !ok {
		t.Fatalf("delete = %v, %v", ok, err)
	}
	ok, err = s.Delete(ctx, "demo/report.json")
	if err != nil || ok {
		t.Fatalf("second delete = %v, %v", ok, err)
	}
	if _, _, err := s.Get(ctx, "demo/report.json"); err == nil {
		t.Fatalf("get after delete should fail")
	}
}

func TestFilesystemRoundTrip(t *testing.T) {
	s, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if s.Driver() != DriverFilesystem {
		t.Fatalf("driver = %q", s.Driver())
	}
	roundTrip(t, s)
}

func TestMemoryRoundTrip(t *testing.T) {
	s := NewMemory()
	if s.Driver() != DriverMemory {
		t.Fatalf("driver = %q", s.Driver())
	}
	roundTrip(t, s)
}

func TestSanitizeKey(t *testing.T) {
	for _, key := range []string{"", "  ", "../escape", "a/../../b", "/absolute"} {
		if _, err := sanitizeKey(key); err == nil {
			t.Errorf("key %q should be rejected", key)
		}
	}
	if _, err := sanitizeKey("biz/canonical.json"); err != nil {
		t.Errorf("valid key rejected: %v", err)
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	t.Setenv("RETENTIONOS_BLOB_DRIVER", "memory")
	s, err := Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if s.Driver() != DriverMemory {
		t.Fatalf("driver = %q", s.Driver())
	}

	t.Setenv("RETENTIONOS_BLOB_DRIVER", "fs")
	t.Setenv("RETENTIONOS_BLOB_FS_ROOT", t.TempDir())
	s, err = Open(context.Background())
	if err != nil {
		t.Fatalf("open fs: %v", err)
	}
	if s.Driver() != DriverFilesystem {
		t.Fatalf("driver = %q", s.Driver())
	}

	t.Setenv("RETENTIONOS_BLOB_DRIVER", "carrier-pigeon")
	if _, err := Open(context.Background()); err == nil {
		t.Fatalf("unknown driver should fail")
	}

	t.Setenv("RETENTIONOS_BLOB_DRIVER", "s3")
	t.Setenv("RETENTIONOS_BLOB_S3_BUCKET", "")
	if _, err := Open(context.Background()); err == nil {
		t.Fatalf("s3 without bucket should fail")
	}
}
