package openai

import (
	"context"
	"fmt"
	"net"
	"time"
)

const dialTimeout = 5 * time.Second

// CheckReachable dials the model endpoint once over TCP and returns the address it reached.
// ping uses it to report network problems before spending a model request.
func CheckReachable(ctx context.Context, baseURL string) (string, error) {
	addr, err := endpointAddr(baseURL)
	if err != nil {
		return "", err
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, dialTimeout)
		defer cancel()
	}
	conn, err := (&net.Dialer{}).DialContext(ctx, "tcp", addr)
	if err != nil {
		return addr, fmt.Errorf("cannot connect to %s: %w", addr, err)
	}
	_ = conn.Close()
	return addr, nil
}
