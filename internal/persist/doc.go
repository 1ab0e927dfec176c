// Package persist owns tagged-field discovery and the fixed-width payload codec.
//
// Ownership boundary:
// - per-type descriptor tables built at registration time
// - pre-order target discovery over a host-supplied node tree
// - little-endian encode/decode of Int32, Float32, Float64 and Bool members
//
// Layout contract:
// - a target's payload is the concatenation of its members in descriptor order
//
// - a target always occupies exactly ByteSize bytes, on encode and on decode
//
// - the payload carries no per-target framing; the cached target list is the schema
//
// persist does not own files, headers or thumbnails.
package persist
