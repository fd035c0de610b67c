package contacts_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/people/v1"

	"github.com/hal9000y/mail-assistant/internal/contacts"
)

type peopleListerMock struct {
	persons []*people.Person
	err     error
}

func (m *peopleListerMock) ListConnections(_ context.Context, _ int64) ([]*people.Person, error) {
	return m.persons, m.err
}

func fixturePersons() []*people.Person {
	return []*people.Person{
		{
			Names: []*people.Name{
				{DisplayName: "Sarah Connor", GivenName: "Sarah", FamilyName: "Connor"},
			},
			EmailAddresses: []*people.EmailAddress{
				{Value: "sarah.connor@example.com"},
				{Value: "sc@work.example.com"},
			},
		},
		{
			Names: []*people.Name{
				{DisplayName: "John Smith", GivenName: "John", FamilyName: "Smith"},
			},
			// No email on file.
		},
		{
			Names: []*people.Name{
				{DisplayName: "Manan Shah", GivenName: "Manan", FamilyName: "Shah"},
			},
			EmailAddresses: []*people.EmailAddress{
				{Value: "manan@gmail.com"},
			},
		},
	}
}

func TestFindEmailByName(t *testing.T) {
	cases := []struct {
		name      string
		query     string
		expected  string
		wantFound bool
	}{
		{name: "given name", query: "sarah", expected: "sarah.connor@example.com", wantFound: true},
		{name: "family name", query: "Shah", expected: "manan@gmail.com", wantFound: true},
		{name: "display substring", query: "conn", expected: "sarah.connor@example.com", wantFound: true},
		{name: "case insensitive", query: "MANAN", expected: "manan@gmail.com", wantFound: true},
		{name: "match without email skipped", query: "john", wantFound: false},
		{name: "no match", query: "nobody", wantFound: false},
	}

	dir := contacts.NewDirectory(&peopleListerMock{persons: fixturePersons()})

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			email, found, err := dir.FindEmailByName(context.Background(), tc.query)
			require.NoError(t, err)
			assert.Equal(t, tc.wantFound, found)
			assert.Equal(t, tc.expected, email)
		})
	}
}

func TestFindEmailByNamePropagatesError(t *testing.T) {
	dir := contacts.NewDirectory(&peopleListerMock{err: errors.New("boom")})

	_, _, err := dir.FindEmailByName(context.Background(), "sarah")
	require.Error(t, err)
}

func TestPhrases(t *testing.T) {
	dir := contacts.NewDirectory(&peopleListerMock{persons: fixturePersons()})

	phrases, err := dir.Phrases(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Sarah Connor",
		"Sarah",
		"Connor",
		"sarah.connor@example.com",
		"sarah.connor",
		"sc@work.example.com",
		"sc",
		"John Smith",
		"John",
		"Smith",
		"Manan Shah",
		"Manan",
		"Shah",
		"manan@gmail.com",
		"manan",
	}, phrases)
}

func TestPhrasesDeduplicates(t *testing.T) {
	dir := contacts.NewDirectory(&peopleListerMock{persons: []*people.Person{
		{
			Names:          []*people.Name{{DisplayName: "Bo", GivenName: "Bo"}},
			EmailAddresses: []*people.EmailAddress{{Value: "bo@x.io"}},
		},
		{
			Names:          []*people.Name{{DisplayName: "Bo", GivenName: "B"}},
			EmailAddresses: []*people.EmailAddress{{Value: "bo@x.io"}},
		},
	}})

	phrases, err := dir.Phrases(context.Background())
	require.NoError(t, err)

	// "B" is a single character, dropped; duplicates collapse.
	assert.Equal(t, []string{"Bo", "bo@x.io", "bo"}, phrases)
}
