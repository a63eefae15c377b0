// Package identity stores profiles and enforces the username, email and
// password policies.
//
// Three kinds of profile exist. Registered profiles own a password, an email
// and a globally unique username. Anonymous and Delegated profiles belong to
// exactly one tenant and their usernames are unique within (tenant, kind);
// Delegated profiles additionally carry the external user id returned by the
// tenant's verification endpoint.
package identity
