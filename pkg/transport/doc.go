// Package transport provides the accessory server's HTTP boundary.
//
// Pairing exchanges ride on HTTP POST with the application/pairing+tlv8
// media type. The transport buffers each request body completely before
// handing it to the service layer, attaches one session per TCP connection,
// and always answers 200: protocol failures are encoded in the TLV response
// body.
package transport
