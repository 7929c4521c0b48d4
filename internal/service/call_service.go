package service

import (
	"context"
	"regexp"
	"strings"
)

// Dialer is the device's phone capability.
type Dialer interface {
	CanDial(uri string) bool
}

// PhoneDialer accepts tel: URIs that carry a plausible phone number.
type PhoneDialer struct{}

var dialable = regexp.MustCompile(`^tel:\+?[0-9]{3,15}$`)

func (PhoneDialer) CanDial(uri string) bool {
	return dialable.MatchString(uri)
}

// CallService turns a load's contact phone into something a client can dial.
type CallService interface {
	CallTarget(ctx context.Context, loadID string) (string, error)
}

type callService struct {
	loads  LoadService
	dialer Dialer
}

func NewCallService(loads LoadService, dialer Dialer) CallService {
	return &callService{loads: loads, dialer: dialer}
}

// CallTarget returns the tel: URI for the load's contact, or
// ErrCallNotSupported when it cannot be dialed.
func (s *callService) CallTarget(ctx context.Context, loadID string) (string, error) {
	load, err := s.loads.GetLoad(ctx, loadID)
	if err != nil {
		return "", err
	}
	uri := "tel:" + normalizePhone(load.ContactDetails.Phone)
	if !s.dialer.CanDial(uri) {
		return "", ErrCallNotSupported
	}
	return uri, nil
}

// normalizePhone drops the separators people type into phone numbers.
func normalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, strings.TrimSpace(phone))
}
