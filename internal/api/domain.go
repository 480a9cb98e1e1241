package api

import (
	"context"
	"errors"
	"strings"

	"github.com/mboxlabs/mailctl/internal/client"
)

var ErrDomainRequired = errors.New("api: domain name required")

// Domain is one managed mail domain.
type Domain struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	MaxMailboxes int    `json:"max_mailboxes"`
	Mailboxes    int    `json:"mailboxes"`
	Active       bool   `json:"active"`
}

// DomainParams carries the mutable fields for create/update.
type DomainParams struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	MaxMailboxes int    `json:"max_mailboxes,omitempty"`
	Active       bool   `json:"active"`
}

type domainListResult struct {
	Domains []Domain `json:"domains"`
}

type domainResult struct {
	Domain Domain `json:"domain"`
}

func (s *Service) ListDomains(ctx context.Context) ([]Domain, error) {
	data, err := s.client.Invoke(ctx, client.MethodRead, "domain/all", nil)
	if err != nil {
		return nil, err
	}
	var res domainListResult
	if err := decode(data, &res); err != nil {
		return nil, err
	}
	return res.Domains, nil
}

func (s *Service) GetDomain(ctx context.Context, name string) (*Domain, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrDomainRequired
	}
	data, err := s.client.Invoke(ctx, client.MethodRead, "domain/"+name, nil)
	if err != nil {
		return nil, err
	}
	var res domainResult
	if err := decode(data, &res); err != nil {
		return nil, err
	}
	return &res.Domain, nil
}

func (s *Service) CreateDomain(ctx context.Context, params DomainParams) error {
	if strings.TrimSpace(params.Name) == "" {
		return ErrDomainRequired
	}
	_, err := s.client.Invoke(ctx, client.MethodCreate, "domain/add", params)
	return err
}

func (s *Service) UpdateDomain(ctx context.Context, params DomainParams) error {
	if strings.TrimSpace(params.Name) == "" {
		return ErrDomainRequired
	}
	_, err := s.client.Invoke(ctx, client.MethodUpdate, "domain/edit", params)
	return err
}

func (s *Service) DeleteDomain(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrDomainRequired
	}
	_, err := s.client.Invoke(ctx, client.MethodDelete, "domain/"+name, nil)
	return err
}
