package models

import "testing"

func TestParseRole(t *testing.T) {
	cases := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"admin", RoleAdmin, false},
		{"Resident", RoleResident, false},
		{"  WATCHMAN  ", RoleWatchman, false},
		{"executive", RoleExecutive, false},
		{"", "", true},
		{"superuser", "", true},
	}
	for _, tc := range cases {
		got, err := ParseRole(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseRole(%q): expected error, got %q", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRole(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseRole(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRolePersistable(t *testing.T) {
	for _, role := range []Role{RoleAdmin, RoleResident, RoleWatchman} {
		if !role.Persistable() {
			t.Errorf("%s should be persistable", role)
		}
	}
	if RoleExecutive.Persistable() {
		t.Error("executive must never be written to a profile row")
	}
}
