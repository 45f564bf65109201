package models

// Counter key prefixes shared by all counter store implementations.
// Keeping them here means Redis and memory stores agree on the namespace.

// FailureKey is the sliding-window failed-attempt counter for an IP.
func FailureKey(ip string) string {
	return "fail:ip:" + ip
}

// BanCounterKey tracks how many bans an IP accumulated in the rolling
// 24h horizon; it selects the escalation tier.
func BanCounterKey(ip string) string {
	return "ban:ip:" + ip
}
