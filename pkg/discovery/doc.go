// Package discovery advertises and finds dissection API servers with
// mDNS/DNS-SD.
//
// # Service type (_dissect._tcp)
//
// A server advertises one instance per listener. The default instance name
// is "dissect-<host>".
//
// TXT records:
//   - ver: engine version
//   - fp: registry fingerprint of the served protocol set
//   - np: number of registered protocols
//   - api: HTTP path prefix of the API (optional, default /api/v1)
//
// Clients compare fp to check that a remote server dissects with the same
// protocol layout as the local tools.
package discovery
