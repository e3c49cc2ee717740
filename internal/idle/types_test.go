package idle

import "testing"

func TestIsInbox_MatchesPlainAndLocalizedNames(t *testing.T) {
	cases := []struct {
		folder string
		want   bool
	}{
		{"INBOX", true},
		{"Inbox", true},
		{"Posteingang", true},
		{"Boîte de réception", true},
		{"Archive", false},
		{"Sent", false},
		{"[Gmail]/All Mail", false},
	}
	for _, c := range cases {
		if got := isInbox(c.folder); got != c.want {
			t.Errorf("isInbox(%q) = %v, want %v", c.folder, got, c.want)
		}
	}
}

func TestNotificationKinds_AreDistinct(t *testing.T) {
	kinds := []NotificationKind{NewMessages, Expunge, FlagsChanged, ConnectionLost}
	seen := make(map[NotificationKind]bool)
	for _, k := range kinds {
		if seen[k] {
			t.Errorf("duplicate NotificationKind value %d", k)
		}
		seen[k] = true
	}
}
