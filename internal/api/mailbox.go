package api

import (
	"context"
	"errors"
	"strings"

	"github.com/mboxlabs/mailctl/internal/client"
)

var ErrAddressRequired = errors.New("api: mailbox address required")

// Mailbox is one mail account as reported by the backend.
type Mailbox struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	QuotaMB  int64  `json:"quota_mb"`
	UsedMB   int64  `json:"used_mb"`
	Messages int64  `json:"messages"`
	Active   bool   `json:"active"`
}

// MailboxParams carries the mutable fields for create/update.
type MailboxParams struct {
	Address  string `json:"address"`
	Name     string `json:"name,omitempty"`
	Password string `json:"password,omitempty"`
	QuotaMB  int64  `json:"quota_mb,omitempty"`
	Active   bool   `json:"active"`
}

type mailboxListResult struct {
	Mailboxes []Mailbox `json:"mailboxes"`
}

type mailboxResult struct {
	Mailbox Mailbox `json:"mailbox"`
}

func (s *Service) ListMailboxes(ctx context.Context) ([]Mailbox, error) {
	data, err := s.client.Invoke(ctx, client.MethodRead, "mailbox/all", nil)
	if err != nil {
		return nil, err
	}
	var res mailboxListResult
	if err := decode(data, &res); err != nil {
		return nil, err
	}
	return res.Mailboxes, nil
}

func (s *Service) GetMailbox(ctx context.Context, address string) (*Mailbox, error) {
	if strings.TrimSpace(address) == "" {
		return nil, ErrAddressRequired
	}
	data, err := s.client.Invoke(ctx, client.MethodRead, "mailbox/"+address, nil)
	if err != nil {
		return nil, err
	}
	var res mailboxResult
	if err := decode(data, &res); err != nil {
		return nil, err
	}
	return &res.Mailbox, nil
}

func (s *Service) CreateMailbox(ctx context.Context, params MailboxParams) error {
	if strings.TrimSpace(params.Address) == "" {
		return ErrAddressRequired
	}
	_, err := s.client.Invoke(ctx, client.MethodCreate, "mailbox/add", params)
	return err
}

func (s *Service) UpdateMailbox(ctx context.Context, params MailboxParams) error {
	if strings.TrimSpace(params.Address) == "" {
		return ErrAddressRequired
	}
	_, err := s.client.Invoke(ctx, client.MethodUpdate, "mailbox/edit", params)
	return err
}

func (s *Service) DeleteMailbox(ctx context.Context, address string) error {
	if strings.TrimSpace(address) == "" {
		return ErrAddressRequired
	}
	_, err := s.client.Invoke(ctx, client.MethodDelete, "mailbox/"+address, nil)
	return err
}
