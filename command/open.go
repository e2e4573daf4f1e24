package command

import (
	"context"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

// OpenExternal is the name of the command that opens a link in the system browser.
const OpenExternal = "open_external"

// OpenArgs are the arguments of open_external.
type OpenArgs struct {
	URL string `json:"url"`
}

// Opener hands a validated URL to the desktop environment.
type Opener func(ctx context.Context, target string) error

// SystemOpener launches the platform's URL handler.
func SystemOpener(ctx context.Context, target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", target)
	case "windows":
		cmd = exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", target)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", target)
	}
	return cmd.Start()
}

// RegisterOpener registers open_external. Only absolute http and https
// URLs are handed to open.
func RegisterOpener(r *Registry, open Opener) error {
	return r.Register(OpenExternal, Typed(func(ctx context.Context, args OpenArgs) (any, error) {
		u, err := url.Parse(strings.TrimSpace(args.URL))
		if err != nil {
			return nil, failf(err, "Invalid URL: %v", err)
		}
		if scheme := strings.ToLower(u.Scheme); (scheme != "http" && scheme != "https") || u.Host == "" {
			return nil, failf(nil, "Refusing to open non-web URL: %s", args.URL)
		}
		if err := open(ctx, u.String()); err != nil {
			return nil, failf(err, "Failed to open URL: %v", err)
		}
		return nil, nil
	}))
}
