package authflow

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"
	"time"
)

// Surface opens the external authorization UI for one attempt. Open returns
// a direct-result channel that yields the final redirect URL when the surface
// itself can observe it, and a close function that must shut the surface and
// release its resources. Surfaces that cannot observe the redirect (a plain
// system browser) return a nil channel; completion then arrives via the
// redirect bus only.
type Surface interface {
	Open(ctx context.Context, authURL string) (<-chan string, func(), error)
}

// BrowserSurface launches the system browser. It has no way to see the final
// redirect, so the direct-result channel is nil.
type BrowserSurface struct{}

func (BrowserSurface) Open(ctx context.Context, authURL string) (<-chan string, func(), error) {
	if err := openBrowser(authURL); err != nil {
		return nil, nil, fmt.Errorf("opening browser: %w", err)
	}
	return nil, func() {}, nil
}

// openBrowser opens the URL in the default browser of the host platform.
func openBrowser(target string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{target}
	case "linux":
		cmd = "xdg-open"
		args = []string{target}
	case "windows":
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler", target}
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return exec.Command(cmd, args...).Start()
}

// PopupSurface hands the authorization URL to a frontend that opens it in a
// popup window. The surface itself never sees the redirect; completion always
// arrives via the redirect bus when the callback route fires.
type PopupSurface struct {
	// Notify receives the authorization URL for the frontend to open.
	Notify func(authURL string)
}

func (s PopupSurface) Open(ctx context.Context, authURL string) (<-chan string, func(), error) {
	if s.Notify == nil {
		return nil, nil, fmt.Errorf("popup surface has no notify hook")
	}
	s.Notify(authURL)
	return nil, func() {}, nil
}

// LoopbackSurface opens the browser and additionally runs a loopback HTTP
// server on the redirect host, so the redirect itself is the direct result.
// Used in development setups where the public origin is 127.0.0.1.
type LoopbackSurface struct {
	// Addr is the host:port the redirect URI points at.
	Addr string
}

func (s LoopbackSurface) Open(ctx context.Context, authURL string) (<-chan string, func(), error) {
	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", s.Addr)
	if err != nil {
		return nil, nil, fmt.Errorf("starting loopback listener: %w", err)
	}

	resultCh := make(chan string, 1)
	server := &http.Server{
		ReadHeaderTimeout: 10 * time.Second,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			full := (&url.URL{
				Scheme:   "http",
				Host:     s.Addr,
				Path:     r.URL.Path,
				RawQuery: r.URL.RawQuery,
			}).String()

			select {
			case resultCh <- full:
			default:
			}
			fmt.Fprint(w, "<html><body><h1>Authorization received</h1><p>You can close this window.</p></body></html>")
		}),
	}
	go func() { _ = server.Serve(listener) }()

	closeFn := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		_ = listener.Close()
	}

	if err := openBrowser(authURL); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("opening browser: %w", err)
	}
	return resultCh, closeFn, nil
}
