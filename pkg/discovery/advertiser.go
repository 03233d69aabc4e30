package discovery

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"

	"github.com/acp-protocol/acp-go/pkg/event"
	"github.com/acp-protocol/acp-go/pkg/pairing"
)

// AdvertiserConfig configures advertiser behavior.
type AdvertiserConfig struct {
	// Interface specifies which network interface to advertise on.
	// Empty string means all interfaces.
	Interface string

	// TTL is the DNS record TTL. Default: 120 seconds.
	TTL time.Duration
}

// DefaultAdvertiserConfig returns the default advertiser configuration.
func DefaultAdvertiserConfig() AdvertiserConfig {
	return AdvertiserConfig{TTL: 120 * time.Second}
}

// Advertiser publishes the accessory's _acp._tcp service instance.
type Advertiser struct {
	config AdvertiserConfig

	mu          sync.Mutex
	info        AccessoryInfo
	server      *zeroconf.Server
	unsubscribe func()
}

// NewAdvertiser creates an advertiser for the given accessory.
func NewAdvertiser(info AccessoryInfo, config AdvertiserConfig) *Advertiser {
	return &Advertiser{config: config, info: info}
}

func (a *Advertiser) interfaces() []net.Interface {
	if a.config.Interface == "" {
		return nil
	}
	iface, err := net.InterfaceByName(a.config.Interface)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

// Advertise registers the service instance. It replaces any previous
// registration.
func (a *Advertiser) Advertise() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	txtStrings := TXTRecordsToStrings(EncodeAccessoryTXT(&a.info))

	var opts []zeroconf.ServerOption
	if a.config.TTL > 0 {
		opts = append(opts, zeroconf.TTL(uint32(a.config.TTL.Seconds())))
	}

	server, err := zeroconf.Register(
		a.info.Name,
		ServiceType,
		Domain,
		a.info.Port,
		txtStrings,
		a.interfaces(),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}
	a.server = server
	return nil
}

// SetPaired updates the advertised status flag.
func (a *Advertiser) SetPaired(paired bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.info.Paired == paired {
		return
	}
	a.info.Paired = paired
	if a.server != nil {
		a.server.SetText(TXTRecordsToStrings(EncodeAccessoryTXT(&a.info)))
	}
}

// BumpConfigNumber increments the advertised configuration number.
func (a *Advertiser) BumpConfigNumber() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.info.ConfigNumber++
	if a.server != nil {
		a.server.SetText(TXTRecordsToStrings(EncodeAccessoryTXT(&a.info)))
	}
}

// BindEvents keeps the status flag in sync with the pairing store by
// subscribing to pairing lifecycle events. It returns after installing the
// subscription; Stop removes it.
func (a *Advertiser) BindEvents(emitter *event.Emitter, store pairing.Store) {
	a.refreshPaired(store)

	unsubscribe := emitter.Subscribe(func(ev event.Event) {
		switch ev.(type) {
		case event.ControllerPaired, event.ControllerUnpaired, event.PairingsChanged:
			a.refreshPaired(store)
		}
	})

	a.mu.Lock()
	a.unsubscribe = unsubscribe
	a.mu.Unlock()
}

// refreshPaired recomputes the status flag from the store. The accessory
// counts as paired while any admin pairing exists.
func (a *Advertiser) refreshPaired(store pairing.Store) {
	pairings, err := store.List()
	if err != nil {
		return
	}
	paired := false
	for _, p := range pairings {
		if p.Permissions == pairing.PermissionAdmin {
			paired = true
			break
		}
	}
	a.SetPaired(paired)
}

// Stop withdraws the advertisement and removes the event subscription.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}

// Info returns a copy of the currently advertised accessory information.
func (a *Advertiser) Info() AccessoryInfo {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.info
}
