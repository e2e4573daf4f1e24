package fetch

import (
	"context"
	"fmt"
	"net/http"
)

// CheckReachability sends one GET to the probe endpoint with the client's
// default headers and reports whether outbound HTTPS works at all. Any
// response status counts as reachable.
func (e *Executor) CheckReachability(ctx context.Context) (string, error) {
	client, err := e.client()
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.probeURL, nil)
	if err != nil {
		return "", invalidURL(err)
	}

	e.logger.Debug().Str("url", e.probeURL).Msg("checking network reachability")

	resp, err := client.Do(req)
	if err != nil {
		fe := probeMessages.transportError(err)
		e.logTransportError("probe", req.URL, fe)
		return "", fe
	}
	drain(resp.Body)

	msg := fmt.Sprintf("OK: %s → HTTP %s", e.probeURL, resp.Status)
	e.logger.Info().Int("status", resp.StatusCode).Msg("network reachable")
	return msg, nil
}
