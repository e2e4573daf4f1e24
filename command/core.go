package command

import (
	"context"
	"errors"

	"github.com/kroma-labs/readerbridge/fetch"
)

// Core command names.
const (
	FetchURL     = "fetch_url"
	HTTPRequest  = "http_request"
	CheckNetwork = "check_network"
)

// FetchURLArgs are the arguments of fetch_url.
type FetchURLArgs struct {
	TargetURL string `json:"targetUrl"`
}

// RegisterCore registers fetch_url, http_request and check_network backed by exec.
func RegisterCore(r *Registry, exec *fetch.Executor) error {
	return errors.Join(
		r.Register(FetchURL, Typed(func(ctx context.Context, args FetchURLArgs) (string, error) {
			return exec.Fetch(ctx, args.TargetURL)
		})),
		r.Register(HTTPRequest, Typed(func(ctx context.Context, args fetch.OutgoingRequest) (*fetch.Response, error) {
			return exec.Request(ctx, args)
		})),
		r.Register(CheckNetwork, Typed(func(ctx context.Context, _ struct{}) (string, error) {
			return exec.CheckReachability(ctx)
		})),
	)
}
