// Package discovery advertises the accessory server over mDNS/DNS-SD.
//
// An accessory publishes one _acp._tcp service instance whose TXT records
// describe its identity, model and pairing state. Controllers browse for the
// service and inspect the status flag to decide whether the accessory still
// accepts pair-setup. The advertiser keeps the status flag current by
// subscribing to pairing lifecycle events.
package discovery
