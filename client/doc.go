// Package client talks to a wbec wallbox controller over its HTTP API.
//
// The device serves one request at a time and misbehaves when it is
// polled too quickly, so every [Client] funnels its requests through a
// single [queue.Queue]. Requests are sent strictly one after another,
// spaced by the request interval, in the order they were made.
//
// # Building a Client
//
//	c, err := client.New("192.168.1.40",
//		client.WithRequestInterval(time.Second),
//		client.WithTimeout(5*time.Second),
//	)
//
// # Reading and Writing
//
// Every endpoint of the device has a method returning its decoded
// answer:
//
//	cfg, err := c.Config(ctx)
//	state, err := c.JSON(ctx)
//	st, err := c.Status(ctx, 0)
//
// Writes that target the same value coalesce while they wait. Calling
// [Client.SetCurrentLimit] three times in quick succession for the same
// box sends only the last limit; all three callers receive its answer.
//
// # Errors
//
// Parameters out of range yield [FieldErrors] (matching
// [ErrInvalidParams]) before anything is queued. A device answer other
// than 200 OK yields an [UnexpectedStatusError]. [Client.ClientReset]
// fails every queued request with [queue.ErrReset].
package client
