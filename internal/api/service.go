// Package api provides typed operations over the resilient client: auth,
// mailbox and domain management, and the email analysis subsystem.
//
// Every method forwards an opaque operation string to the backend and maps
// the envelope data into a typed record. Failures propagate as
// client.Error values unchanged.
package api

import (
	"encoding/json"
	"fmt"

	"github.com/mboxlabs/mailctl/internal/client"
)

// Service wraps a client with typed admin operations.
type Service struct {
	client *client.Client
}

func New(c *client.Client) *Service {
	return &Service{client: c}
}

// decode maps envelope data into out, distinguishing transport success
// from a malformed payload.
func decode(data json.RawMessage, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("api: decode response data: %w", err)
	}
	return nil
}
