package inspect

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/hazyhaar/autoview/inspect/msg"
	"github.com/hazyhaar/autoview/sourcemap"
)

func newTestService(t *testing.T) (*Service, map[string]*fakeSurface) {
	t.Helper()
	surfaces := map[string]*fakeSurface{}
	var mu sync.Mutex
	var n int
	svc := NewService(ServiceConfig{
		Open: func(_ context.Context, url string) (PreviewSurface, Injector, error) {
			mu.Lock()
			n++
			id := fmt.Sprintf("srf_%d", n)
			mu.Unlock()
			surface := newFakeSurface(id)
			surface.url = url
			mu.Lock()
			surfaces[id] = surface
			mu.Unlock()
			return surface, &fakeInjector{}, nil
		},
	})
	t.Cleanup(func() { svc.Close(context.Background()) })
	return svc, surfaces
}

func TestService_OpenStartStop(t *testing.T) {
	svc, surfaces := newTestService(t)

	id, err := svc.OpenSurface(context.Background(), "http://localhost:3000")
	if err != nil {
		t.Fatal(err)
	}
	if surfaces[id] == nil {
		t.Fatalf("unknown surface id %q", id)
	}

	sess, err := svc.Start(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if sess.SurfaceID != id {
		t.Fatalf("surface id: got %q, want %q", sess.SurfaceID, id)
	}

	got, err := svc.Session(id)
	if err != nil || got != sess {
		t.Fatalf("session lookup: got %v, %v", got, err)
	}

	if err := svc.Stop(context.Background(), id); err != nil {
		t.Fatal(err)
	}
	if sess.IsInspecting() {
		t.Fatal("session still inspecting")
	}

	// Stop again: no session, no error.
	if err := svc.Stop(context.Background(), id); err != nil {
		t.Fatal(err)
	}
}

func TestService_UnknownSurface(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.Start(context.Background(), "srf_missing"); !errors.Is(err, ErrNoSurface) {
		t.Fatalf("start: got %v", err)
	}
	if err := svc.Stop(context.Background(), "srf_missing"); !errors.Is(err, ErrNoSurface) {
		t.Fatalf("stop: got %v", err)
	}
	if err := svc.CloseSurface(context.Background(), "srf_missing"); !errors.Is(err, ErrNoSurface) {
		t.Fatalf("close: got %v", err)
	}
}

func TestService_OpenError(t *testing.T) {
	svc := NewService(ServiceConfig{
		Open: func(context.Context, string) (PreviewSurface, Injector, error) {
			return nil, nil, errors.New("browser gone")
		},
	})
	if _, err := svc.OpenSurface(context.Background(), "http://x"); err == nil {
		t.Fatal("expected open error")
	}
}

func TestService_SubscribeBroadcast(t *testing.T) {
	svc, surfaces := newTestService(t)

	id, err := svc.OpenSurface(context.Background(), "http://localhost:3000")
	if err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var seen []Result
	cancel := svc.Subscribe(func(r Result) {
		mu.Lock()
		seen = append(seen, r)
		mu.Unlock()
	})

	if _, err := svc.Start(context.Background(), id); err != nil {
		t.Fatal(err)
	}
	surface := surfaces[id]
	surface.deliver(t, msg.InspectorReady{Framework: msg.FrameworkInfo{Type: msg.FrameworkReact}})
	surface.deliver(t, msg.InspectClick{
		DOMNode:   msg.DOMNodeInfo{TagName: "span"},
		Framework: msg.FrameworkInfo{Type: msg.FrameworkReact},
	})

	waitUntil(t, "broadcast result", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 1
	})
	mu.Lock()
	if seen[0].SurfaceID != id {
		t.Fatalf("surface id: got %q", seen[0].SurfaceID)
	}
	mu.Unlock()

	// After unsubscribe no further results arrive.
	cancel()
	surface.deliver(t, msg.InspectClick{
		DOMNode:   msg.DOMNodeInfo{TagName: "span"},
		Framework: msg.FrameworkInfo{Type: msg.FrameworkReact},
	})
	waitUntil(t, "second click handled", func() bool {
		sess, _ := svc.Session(id)
		last := sess.LastResult()
		return last != nil && last.DOMNode.TagName == "span"
	})
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 {
		t.Fatalf("unsubscribed listener saw %d results", len(seen))
	}
}

func TestService_CloseSurface(t *testing.T) {
	svc, surfaces := newTestService(t)

	id, err := svc.OpenSurface(context.Background(), "http://localhost:3000")
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.CloseSurface(context.Background(), id); err != nil {
		t.Fatal(err)
	}
	if !surfaces[id].closed {
		t.Fatal("surface not closed")
	}
	if got := svc.Surfaces(); len(got) != 0 {
		t.Fatalf("surfaces after close: %v", got)
	}
}

func TestService_Surfaces_Sorted(t *testing.T) {
	svc, _ := newTestService(t)
	for i := 0; i < 3; i++ {
		if _, err := svc.OpenSurface(context.Background(), "http://localhost:3000"); err != nil {
			t.Fatal(err)
		}
	}
	got := svc.Surfaces()
	if len(got) != 3 {
		t.Fatalf("surfaces: %v", got)
	}
	for i := 1; i < len(got); i++ {
		if got[i-1] >= got[i] {
			t.Fatalf("not sorted: %v", got)
		}
	}
}

func TestService_ResolveSource_MapsComponentName(t *testing.T) {
	svc := NewService(ServiceConfig{
		Open: func(context.Context, string) (PreviewSurface, Injector, error) {
			return newFakeSurface("srf_1"), &fakeInjector{}, nil
		},
		Mapper: sourcemap.NewMapper(sourcemap.Config{
			Finder: mappedFinder{files: map[string][]string{
				"src/components/product-card.tsx": {"src/components/product-card.tsx"},
			}},
		}),
	})
	t.Cleanup(func() { svc.Close(context.Background()) })

	info := svc.ResolveSource(context.Background(), "ProductCard")
	if info == nil || info.Primary == nil {
		t.Fatalf("no source resolved: %+v", info)
	}
	if info.Primary.FilePath != "src/components/product-card.tsx" {
		t.Fatalf("primary: %+v", info.Primary)
	}
}

func TestService_ResolveSource_NoMapper(t *testing.T) {
	svc, _ := newTestService(t)
	if info := svc.ResolveSource(context.Background(), "ProductCard"); info != nil {
		t.Fatalf("nil mapper resolved: %+v", info)
	}
}

func TestService_OpenInEditor_NoEditor(t *testing.T) {
	svc, _ := newTestService(t)
	if err := svc.OpenInEditor(context.Background(), "src/App.tsx", 1, 1); err == nil {
		t.Fatal("expected error with no editor")
	}
}
