//go:build go1.18

package domain

import (
	"testing"
	"unicode/utf8"
)

// FuzzParseStudentID checks that parsing never panics and that accepted
// input always round-trips.
func FuzzParseStudentID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE students;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseStudentID(input)
		if err == nil {
			roundTrip, err2 := ParseStudentID(id.String())
			if err2 != nil {
				t.Errorf("valid ID failed round-trip: %v", err2)
			}
			if roundTrip != id {
				t.Error("round-trip changed ID value")
			}
			if id.IsNil() {
				t.Error("nil ID was accepted")
			}
		}
		if !utf8.ValidString(input) && err == nil {
			t.Error("non-UTF8 input was accepted")
		}
	})
}

// FuzzParseAllIDs ensures every typed ID accepts and rejects the same input.
func FuzzParseAllIDs(f *testing.F) {
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("")
	f.Add("invalid")

	f.Fuzz(func(t *testing.T, input string) {
		_, errStudent := ParseStudentID(input)
		_, errExam := ParseExamID(input)
		_, errCourse := ParseCourseID(input)

		if (errStudent == nil) != (errExam == nil) || (errStudent == nil) != (errCourse == nil) {
			t.Error("inconsistent parsing across ID types")
		}
	})
}
