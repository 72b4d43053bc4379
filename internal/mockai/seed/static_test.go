// ABOUTME: Tests for the static contact pools.
// ABOUTME: Checks determinism, uniqueness across offsets and channel coverage.

package seed

import (
	"strings"
	"testing"
)

func TestContacts_Deterministic(t *testing.T) {
	a := Contacts("Lisbon", "ngo", 0, 10)
	b := Contacts("Lisbon", "ngo", 0, 10)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("contact %d differs between calls: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestContacts_UniqueAcrossOffsets(t *testing.T) {
	seen := make(map[string]bool)
	for _, off := range []int{0, 40, 80, 540, 600} {
		for _, c := range Contacts("New York", "journalist", off, 40) {
			if seen[c.Instagram] {
				t.Fatalf("duplicate instagram %q at offset %d", c.Instagram, off)
			}
			seen[c.Instagram] = true
		}
	}
}

func TestContacts_Channels(t *testing.T) {
	var noEmail int
	for _, c := range Contacts("Berlin", "podcaster", 0, 30) {
		if c.Instagram == "" {
			t.Errorf("%s has no instagram", c.Name)
		}
		if c.Email == "" {
			noEmail++
			continue
		}
		if !strings.Contains(c.Email, ".podcaster@berlin.") {
			t.Errorf("email %q does not carry type and city", c.Email)
		}
	}
	if noEmail != 10 {
		t.Errorf("contacts without email = %d, want 10", noEmail)
	}
}

func TestContacts_UnknownTypeUsesFallbackOrgs(t *testing.T) {
	c := Contacts("Paris", "chef", 0, 1)[0]
	if c.Organization != organizations["other"][0] {
		t.Errorf("organization = %q, want fallback pool", c.Organization)
	}
}
