package domain

// SentinelRoom is the room joined by identities without a company
// association (system operators).
const SentinelRoom = "dev_admin"

// groupPrefix namespaces fanout topics so the bus can pattern-subscribe
// to exactly the update streams.
const groupPrefix = "updates_"

// RoomForCompany derives the room name for a tenant. An empty company id
// means the identity has no tenant scope and lands in the sentinel room.
func RoomForCompany(companyID string) string {
	if companyID == "" {
		return SentinelRoom
	}
	return "company_" + companyID
}

// GroupName maps a room to its bus topic / membership group.
func GroupName(room string) string {
	return groupPrefix + room
}

// GroupPattern is the subscription pattern matching every update group.
func GroupPattern() string {
	return groupPrefix + "*"
}
