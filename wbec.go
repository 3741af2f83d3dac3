// Package wbec is a client for the wbec wallbox controller. It queues
// every request so the device sees one at a time, spaced by a minimum
// interval, and coalesces pending requests that target the same value.
package wbec

import (
	"github.com/jb-io/wbec-client/client"
)

// NewClient instantiates a client for the device at host with the
// provided options. Requests time out after [client.DefaultTimeout] and
// are spaced by [client.DefaultRequestInterval] unless overridden.
func NewClient(host string, opts ...client.Option) (*client.Client, error) {
	return client.New(host, opts...)
}
