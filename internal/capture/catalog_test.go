package capture

import (
	"context"
	"testing"

	"hitomi/internal/camera"
)

func TestBuildCatalog(t *testing.T) {
	ctx := context.Background()
	dev := camera.NewMockDevice([]camera.Resolution{
		{Width: 640, Height: 480},
		{Width: 1280, Height: 720},
	})
	if err := dev.Open(ctx); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	catalog, err := BuildCatalog(ctx, dev)
	if err != nil {
		t.Fatalf("BuildCatalog failed: %v", err)
	}

	// 解像度 × フレームレート段階の直積
	expected := 2 * len(framerateLadder)
	if catalog.Len() != expected {
		t.Fatalf("Expected %d modes, got %d", expected, catalog.Len())
	}

	// 段階の全fpsが各解像度に存在する
	for _, fps := range framerateLadder {
		mode := camera.Mode{Format: camera.PixelFormatMJPEG, Width: 640, Height: 480, FPS: fps}
		if !catalog.Contains(mode) {
			t.Errorf("Catalog missing mode %s", mode)
		}
	}

	// 存在しないモードは含まれない
	unknown := camera.Mode{Format: camera.PixelFormatMJPEG, Width: 1920, Height: 1080, FPS: 30}
	if catalog.Contains(unknown) {
		t.Errorf("Catalog should not contain %s", unknown)
	}
}

func TestBuildCatalog_NoResolutions(t *testing.T) {
	ctx := context.Background()
	dev := camera.NewMockDevice(nil)
	if err := dev.Open(ctx); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	catalog, err := BuildCatalog(ctx, dev)
	if err != nil {
		t.Fatalf("BuildCatalog failed: %v", err)
	}

	if catalog.Len() != 0 {
		t.Errorf("Expected empty catalog, got %d modes", catalog.Len())
	}
}

func TestCatalog_ModesReturnsCopy(t *testing.T) {
	catalog := NewCatalog([]camera.Mode{
		{Format: camera.PixelFormatMJPEG, Width: 640, Height: 480, FPS: 15},
	})

	modes := catalog.Modes()
	modes[0].Width = 1

	if catalog.Modes()[0].Width != 640 {
		t.Error("Catalog internal state should not be mutable through Modes()")
	}
}
