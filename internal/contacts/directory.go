// Package contacts adapts the People API connections list into searchable
// name and email phrase sets.
package contacts

import (
	"context"
	"fmt"
	"log"
	"strings"

	"google.golang.org/api/people/v1"
)

// DefaultPageSize bounds a single connections listing.
const DefaultPageSize = 500

// Contact is a normalized directory entry.
type Contact struct {
	DisplayName string
	GivenName   string
	FamilyName  string
	Emails      []string
}

type peopleLister interface {
	ListConnections(ctx context.Context, pageSize int64) ([]*people.Person, error)
}

// Directory lists and searches the user's contact directory. Listings are
// never cached; every call re-fetches from the provider.
type Directory struct {
	svc      peopleLister
	pageSize int64
}

// NewDirectory creates a Directory over the People connections service.
func NewDirectory(svc peopleLister) *Directory {
	return &Directory{svc: svc, pageSize: DefaultPageSize}
}

// List fetches the user's contacts in provider order.
func (d *Directory) List(ctx context.Context) ([]Contact, error) {
	persons, err := d.svc.ListConnections(ctx, d.pageSize)
	if err != nil {
		return nil, fmt.Errorf("svc.ListConnections failed: %w", err)
	}

	contacts := make([]Contact, 0, len(persons))

	for _, person := range persons {
		if person == nil {
			continue
		}

		var c Contact
		for _, name := range person.Names {
			if name.DisplayName != "" && c.DisplayName == "" {
				c.DisplayName = name.DisplayName
			}
			if name.GivenName != "" && c.GivenName == "" {
				c.GivenName = name.GivenName
			}
			if name.FamilyName != "" && c.FamilyName == "" {
				c.FamilyName = name.FamilyName
			}
		}
		for _, email := range person.EmailAddresses {
			if email.Value != "" {
				c.Emails = append(c.Emails, email.Value)
			}
		}

		contacts = append(contacts, c)
	}

	return contacts, nil
}

// FindEmailByName returns the first email of the first contact whose display,
// given or family name contains name (case-insensitive). Provider order
// decides ties. A matching contact without an email address does not resolve.
func (d *Directory) FindEmailByName(ctx context.Context, name string) (string, bool, error) {
	contacts, err := d.List(ctx)
	if err != nil {
		return "", false, err
	}

	needle := strings.ToLower(name)

	for _, c := range contacts {
		if !containsFold(c.DisplayName, needle) &&
			!containsFold(c.GivenName, needle) &&
			!containsFold(c.FamilyName, needle) {
			continue
		}

		if len(c.Emails) == 0 {
			log.Printf("Contact %q matched %q but has no email address", c.DisplayName, name)
			continue
		}

		return c.Emails[0], true, nil
	}

	return "", false, nil
}

// Phrases returns the unique set of contact names, email addresses and email
// local parts, used to boost speech recognition of contact references.
// Single-character phrases are dropped.
func (d *Directory) Phrases(ctx context.Context) ([]string, error) {
	contacts, err := d.List(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var phrases []string
	add := func(phrase string) {
		if len(phrase) <= 1 {
			return
		}
		if _, ok := seen[phrase]; ok {
			return
		}
		seen[phrase] = struct{}{}
		phrases = append(phrases, phrase)
	}

	for _, c := range contacts {
		if c.DisplayName != "" {
			add(c.DisplayName)
			if c.GivenName != c.DisplayName {
				add(c.GivenName)
			}
			if c.FamilyName != c.DisplayName {
				add(c.FamilyName)
			}
		}

		for _, email := range c.Emails {
			add(email)
			if local, _, found := strings.Cut(email, "@"); found && local != email {
				add(local)
			}
		}
	}

	log.Printf("Loaded %d unique phrases for speech recognition", len(phrases))

	return phrases, nil
}

func containsFold(haystack, lowerNeedle string) bool {
	if haystack == "" {
		return false
	}

	return strings.Contains(strings.ToLower(haystack), lowerNeedle)
}
