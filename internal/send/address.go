package send

import "strings"

// extractAddress implements spec.md §4.8's address-extraction rule:
// for each comma-separated token, take the content between '<' and
// '>' if present, else the token itself.
func extractAddress(token string) string {
	token = strings.TrimSpace(token)
	start := strings.IndexByte(token, '<')
	end := strings.IndexByte(token, '>')
	if start >= 0 && end > start {
		return strings.TrimSpace(token[start+1 : end])
	}
	return token
}

// expandRecipients splits every string in every list on commas,
// extracts the bare address from each token, and returns the union
// with duplicates removed — the RCPT TO set for envelope delivery.
func expandRecipients(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, entry := range list {
			for _, token := range strings.Split(entry, ",") {
				addr := extractAddress(token)
				if addr == "" || seen[addr] {
					continue
				}
				seen[addr] = true
				out = append(out, addr)
			}
		}
	}
	return out
}
