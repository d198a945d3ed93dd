package config

import "testing"

func TestDefaultWorkersClamped(t *testing.T) {
	c := Default()
	if c.Workers < 2 || c.Workers > 64 {
		t.Fatalf("Workers = %d, want within [2, 64]", c.Workers)
	}
}

func TestClampWorkers(t *testing.T) {
	if clampWorkers(0) != 2 {
		t.Fatal("expected floor of 2")
	}
	if clampWorkers(1000) != 64 {
		t.Fatal("expected ceiling of 64")
	}
	if clampWorkers(10) != 10 {
		t.Fatal("expected unclamped value to pass through")
	}
}

func TestDefaultValues(t *testing.T) {
	c := Default()
	if c.MaxKeepAliveRequests != 1000 {
		t.Fatalf("MaxKeepAliveRequests = %d, want 1000", c.MaxKeepAliveRequests)
	}
	if c.MaxFileSize != 100*1024*1024 {
		t.Fatalf("MaxFileSize = %d, want 100MiB", c.MaxFileSize)
	}
	if c.PerIPLimit != 64 {
		t.Fatalf("PerIPLimit = %d, want 64", c.PerIPLimit)
	}
}
