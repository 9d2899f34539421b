package lab

import (
	"context"
	"net/mail"
	"strings"

	"github.com/Stikerz/numan/internal/platform/apierr"
)

const (
	maxNameLen     = 128
	maxAddressLen  = 128
	maxCityLen     = 64
	maxPostCodeLen = 16
	maxNumberLen   = 32
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// FindLabs returns labs in country, optionally restricted to city. A country
// that is not a two-letter code matches nothing.
func (s *Service) FindLabs(ctx context.Context, country, city string) ([]*Lab, error) {
	code, ok := NormalizeCountry(country)
	if !ok {
		return []*Lab{}, nil
	}
	labs, err := s.repo.FindByCountry(ctx, code, strings.TrimSpace(city))
	if err != nil {
		return nil, err
	}
	if labs == nil {
		labs = []*Lab{}
	}
	return labs, nil
}

func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	if id <= 0 {
		return false, nil
	}
	return s.repo.Exists(ctx, id)
}

func (s *Service) CreateLab(ctx context.Context, l *Lab) error {
	l.Name = strings.TrimSpace(l.Name)
	l.Address = strings.TrimSpace(l.Address)
	l.Address2 = strings.TrimSpace(l.Address2)
	l.City = strings.TrimSpace(l.City)
	l.PostCode = strings.TrimSpace(l.PostCode)
	l.Email = strings.TrimSpace(l.Email)
	l.Number = strings.TrimSpace(l.Number)

	if err := requireLen("name", l.Name, maxNameLen); err != nil {
		return err
	}
	if err := requireLen("address", l.Address, maxAddressLen); err != nil {
		return err
	}
	if len(l.Address2) > maxAddressLen {
		return apierr.Validationf("address_2 must be at most %d characters", maxAddressLen)
	}
	if err := requireLen("city", l.City, maxCityLen); err != nil {
		return err
	}
	if err := requireLen("post_code", l.PostCode, maxPostCodeLen); err != nil {
		return err
	}
	if err := requireLen("number", l.Number, maxNumberLen); err != nil {
		return err
	}
	if _, err := mail.ParseAddress(l.Email); err != nil || strings.ContainsAny(l.Email, "<> ") {
		return apierr.Validationf("%q is not a valid email address", l.Email)
	}

	if strings.TrimSpace(l.Country) == "" {
		l.Country = DefaultCountry
	}
	code, _ := NormalizeCountry(l.Country)
	if !ValidCountry(code) {
		return apierr.Validationf("%q is not a valid ISO 3166-1 alpha-2 country code", l.Country)
	}
	l.Country = code

	return s.repo.Create(ctx, l)
}

func requireLen(field, value string, max int) error {
	if value == "" {
		return apierr.Validationf("%s is required", field)
	}
	if len(value) > max {
		return apierr.Validationf("%s must be at most %d characters", field, max)
	}
	return nil
}
