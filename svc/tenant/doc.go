// Package tenant is the tenant directory: the integrations a customer
// embeds the chat widget into.
//
// A tenant is referenced by an opaque uuid. Requests carry the reference in
// their Referer as <APP_BASE_URL>/integrations/<uuid>; Directory.Resolve
// maps it to a Tenant and treats malformed or unknown references as "no
// tenant". Owners mutate tenants through the Patch schema, which rejects
// unknown fields and re-validates the whole document before saving.
package tenant
