package account

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestLengthLimits(t *testing.T) {
	a := New("token")

	if !a.SetAlias(strings.Repeat("a", MaxAliasLength)) {
		t.Error("alias at the limit should be accepted")
	}
	if a.SetAlias(strings.Repeat("b", MaxAliasLength+1)) {
		t.Error("alias over the limit should be rejected")
	}
	if a.Alias() != strings.Repeat("a", MaxAliasLength) {
		t.Error("rejected alias must leave the previous value")
	}

	if a.SetDescription(strings.Repeat("d", MaxDescriptionLength+1)) {
		t.Error("description over the limit should be rejected")
	}
	if a.SetPassword(strings.Repeat("p", MaxPasswordLength+1)) {
		t.Error("password over the limit should be rejected")
	}
	if !a.SetPassword("hunter2") || a.Password() != "hunter2" {
		t.Error("password should be set")
	}
}

func TestJSONFieldNames(t *testing.T) {
	a := New("cookie")
	a.Username = "Builder"
	a.UserID = 42
	a.Valid = true
	a.SetAlias("main")
	a.LastUse = time.UnixMilli(1700000000123)
	a.Fields["note"] = "x"

	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	for _, key := range []string{"Valid", "SecurityToken", "Username", "UserID", "BrowserTrackerID", "Group", "Alias", "Description", "Password", "Fields", "LastUse", "LastAttemptedRefresh"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing JSON key %s", key)
		}
	}
	if raw["LastUse"].(float64) != 1700000000123 {
		t.Errorf("LastUse = %v, want epoch milliseconds", raw["LastUse"])
	}

	var back Account
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back.Alias() != "main" || back.Username != "Builder" || back.Fields["note"] != "x" {
		t.Errorf("decoded account mismatch: %+v", back)
	}
	if !back.LastUse.Equal(a.LastUse) {
		t.Errorf("LastUse = %v, want %v", back.LastUse, a.LastUse)
	}
}

func TestZeroTimestampsEncodeAsZero(t *testing.T) {
	data, err := json.Marshal(New("cookie"))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	for _, key := range []string{"LastUse", "LastAttemptedRefresh"} {
		if raw[key].(float64) != 0 {
			t.Errorf("fresh account %s = %v, want 0", key, raw[key])
		}
	}

	var back Account
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !back.LastUse.IsZero() || !back.LastAttemptedRefresh.IsZero() {
		t.Errorf("expected zero times after decode, got %v and %v", back.LastUse, back.LastAttemptedRefresh)
	}

	again, err := json.Marshal(&back)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(again) != string(data) {
		t.Errorf("re-encoding changed the account:\n%s\n%s", data, again)
	}
}

func TestUnmarshalDefaults(t *testing.T) {
	longAlias := strings.Repeat("x", MaxAliasLength+1)
	data := `{"SecurityToken":"t","Alias":"` + longAlias + `","Fields":"not a map"}`

	var a Account
	if err := json.Unmarshal([]byte(data), &a); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if a.Group != DefaultGroup {
		t.Errorf("Group = %q, want %q", a.Group, DefaultGroup)
	}
	if a.Alias() != "" {
		t.Error("over-long alias should be dropped")
	}
	if a.Fields == nil || len(a.Fields) != 0 {
		t.Errorf("Fields = %v, want empty map", a.Fields)
	}
}

func TestID(t *testing.T) {
	a := New("token")
	if a.ID() != "94A08DA1FECBB6E8B46990538C7B50B2" {
		t.Errorf("token id = %s", a.ID())
	}

	a.Username = "TEST"
	if a.ID() != "098F6BCD4621D373CADE4E832627B4F6" {
		t.Errorf("username id = %s, want MD5(\"test\")", a.ID())
	}
	if RefToID("Test") != a.ID() {
		t.Error("RefToID(username) must match ID()")
	}
	if RefToID(strings.ToLower(a.ID())) != a.ID() {
		t.Error("RefToID(id) must normalize to uppercase")
	}
	if IsID("someone") {
		t.Error("username misdetected as id")
	}
}

func TestListRoundTrip(t *testing.T) {
	a := New("one")
	a.Username = "first"
	b := New("two")

	data, err := MarshalList([]*Account{a, b})
	if err != nil {
		t.Fatalf("MarshalList failed: %v", err)
	}

	list, err := ParseList(data)
	if err != nil {
		t.Fatalf("ParseList failed: %v", err)
	}
	if len(list) != 2 || list[0].Username != "first" || list[1].SecurityToken != "two" {
		t.Errorf("unexpected list: %+v", list)
	}

	if _, err := ParseList([]byte("not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}

	list, err = ParseList([]byte(`[null, {"SecurityToken":"x"}]`))
	if err != nil || len(list) != 1 {
		t.Errorf("null entries should be skipped, got %d (%v)", len(list), err)
	}
}

func TestRobloxTick(t *testing.T) {
	got := RobloxTick(time.UnixMilli(1500000000250))
	if got != 1500000000.25 {
		t.Errorf("RobloxTick = %v, want 1500000000.25", got)
	}
}

func TestDisplayName(t *testing.T) {
	a := New("tok")
	if a.DisplayName() != a.ID() {
		t.Error("expected id fallback")
	}
	a.Username = "user"
	if a.DisplayName() != "user" {
		t.Error("expected username")
	}
	a.SetAlias("alias")
	if a.DisplayName() != "alias" {
		t.Error("expected alias")
	}
}
