// Package cookie writes and clears the session cookies.
//
// Session cookies are embedded in third-party pages, so the manager defaults
// to SameSite=None with Secure set. Clearing a cookie repeats the attributes
// it was written with; browsers ignore deletions whose attributes differ.
package cookie
