package models

import "testing"

func TestShortAddress(t *testing.T) {
	got := ShortAddress("0xCf7Ed3AccA5a467e9e704C703E8D87F634fB0Fc9")
	if got != "0xCf7E...0Fc9" {
		t.Fatalf("unexpected short address: %q", got)
	}
	if ShortAddress("") != "" {
		t.Fatal("empty address must stay empty")
	}
	if ShortAddress("0x1234") != "0x1234" {
		t.Fatal("short input must be returned unchanged")
	}
}

func TestStudentStatus(t *testing.T) {
	if (Student{}).Status() != "registered" {
		t.Fatal("fresh student must be registered")
	}
	if (Student{Requested: true}).Status() != "pending_approval" {
		t.Fatal("requested student must be pending approval")
	}
	if (Student{Requested: true, Approved: true}).Status() != "approved" {
		t.Fatal("approved student must be approved")
	}
}
