package realtime

// RoomAuthenticated holds every connection that resolved to a profile.
const RoomAuthenticated = "authenticated"

// ProfileRoom is the room for all connections of a single profile.
func ProfileRoom(profileID string) string {
	return "profile:" + profileID
}

// TenantRoom is the room for all connections made under a tenant.
// Connections without a tenant share "tenant:none".
func TenantRoom(tenantID string) string {
	if tenantID == "" {
		return "tenant:none"
	}
	return "tenant:" + tenantID
}
