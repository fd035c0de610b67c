package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanSpeechArtifacts(t *testing.T) {
	cases := []struct {
		name     string
		in       string
		expected string
	}{
		{name: "spoken at and dot", in: "manan at gmail dot com", expected: "manan@gmail.com"},
		{name: "spoken at uppercase", in: "Manan AT gmail.com", expected: "Manan@gmail.com"},
		{name: "space before at sign", in: "john @example.com", expected: "john@example.com"},
		{name: "space after at sign", in: "john@ example.com", expected: "john@example.com"},
		{name: "spaces both sides", in: "john @ example.com", expected: "john@example.com"},
		{name: "plain name untouched", in: "my boss", expected: "my boss"},
		{name: "valid email untouched", in: "sarah@x.com", expected: "sarah@x.com"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, CleanSpeechArtifacts(tc.in))
		})
	}
}

func TestDeriveUsername(t *testing.T) {
	cases := []struct {
		name     string
		in       string
		expected string
	}{
		{name: "bare name", in: "unknownperson", expected: "unknownperson"},
		{name: "mixed case lowered", in: "UnknownPerson", expected: "unknownperson"},
		{name: "before spoken at", in: "Sarah at work", expected: "sarah"},
		{name: "before gmail domain", in: "manan gmail.com", expected: "manan"},
		{name: "gmail tail stripped", in: "bob gmail", expected: "bob"},
		{name: "whitespace trimmed", in: "  alice  ", expected: "alice"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, DeriveUsername(tc.in))
		})
	}
}

func TestExtractAddresses(t *testing.T) {
	addrs := extractAddresses(`"Sarah Connor" <sarah.connor@example.com>, bob@work.io`)
	assert.Equal(t, []string{"sarah.connor@example.com", "bob@work.io"}, addrs)

	assert.Empty(t, extractAddresses("no addresses here"))
}
