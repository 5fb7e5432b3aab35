//go:build go1.18

package domain

import "testing"

// FuzzParseStudentID checks that parsing never panics on arbitrary input and
// that an accepted ID round-trips through String.
func FuzzParseStudentID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseStudentID(input)
		if err != nil {
			return
		}
		roundTrip, err := ParseStudentID(id.String())
		if err != nil {
			t.Errorf("accepted ID failed round-trip: %v", err)
		}
		if roundTrip != id {
			t.Error("round-trip changed ID value")
		}
	})
}

// FuzzParseCountry checks canonicalization is stable: parsing the produced
// code again must yield the same code.
func FuzzParseCountry(f *testing.F) {
	f.Add("USA")
	f.Add("united kingdom")
	f.Add("South Korea")
	f.Add("")
	f.Add("...")

	f.Fuzz(func(t *testing.T, input string) {
		code, err := ParseCountry(input)
		if err != nil {
			return
		}
		again, err := ParseCountry(code.String())
		if err != nil {
			t.Fatalf("canonical code %q failed to re-parse: %v", code, err)
		}
		if again != code {
			t.Errorf("canonicalization unstable: %q -> %q -> %q", input, code, again)
		}
	})
}
