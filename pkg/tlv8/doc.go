// Package tlv8 implements the compact type-length-value encoding used by
// every ACP pairing message.
//
// Each item is serialized as a one-byte type code, a one-byte length and up
// to 255 value bytes. Values longer than 255 bytes are fragmented into
// consecutive items carrying the same type code; decoders reassemble them by
// concatenating repeated codes in order. A zero-length Separator item marks
// the boundary between logical sub-records when a container bundles several
// of them (e.g. the pairing list response).
package tlv8
