package tenant

// PermissionManage lets an actor manage tenants it does not own, including
// moving them to the errored state.
const PermissionManage = "integrations.manage"

// Actor is the caller of an owner-gated tenant operation.
type Actor interface {
	ActorID() string
	Can(perm string) bool
}

func mayManage(a Actor, t *Tenant) bool {
	return t.OwnerID == a.ActorID() || a.Can(PermissionManage)
}
