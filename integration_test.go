package acp_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/acp-protocol/acp-go/pkg/discovery"
	"github.com/acp-protocol/acp-go/pkg/event"
	"github.com/acp-protocol/acp-go/pkg/pairing"
	"github.com/acp-protocol/acp-go/pkg/service"
	"github.com/acp-protocol/acp-go/pkg/session"
	"github.com/acp-protocol/acp-go/pkg/tlv8"
	"github.com/acp-protocol/acp-go/pkg/transport"
)

type testConfig struct{ max int }

func (c testConfig) MaxPeers() (int, bool) {
	if c.max == 0 {
		return 0, false
	}
	return c.max, true
}

// TestE2E_PairingLifecycle drives the full add/list/remove cycle over HTTP
// against a file-backed store and verifies the state survives a reopen.
func TestE2E_PairingLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	storePath := filepath.Join(t.TempDir(), "state.cbor")
	store, err := pairing.NewFileStore(storePath)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}

	adminID := uuid.New()
	admin, err := pairing.New(adminID, bytes.Repeat([]byte{0xA0}, 32), pairing.PermissionAdmin)
	if err != nil {
		t.Fatalf("Failed to create admin pairing: %v", err)
	}
	if err := store.Save(admin); err != nil {
		t.Fatalf("Failed to save admin pairing: %v", err)
	}

	emitter := event.NewEmitter()
	var eventsMu sync.Mutex
	var events []event.Event
	emitter.Subscribe(func(ev event.Event) {
		eventsMu.Lock()
		events = append(events, ev)
		eventsMu.Unlock()
	})

	handler := service.NewPairings(store, emitter, testConfig{})

	srv, err := transport.NewServer(transport.ServerConfig{
		Address:  "127.0.0.1:0",
		Pairings: handler,
		OnSession: func(s *session.Session) {
			s.Authenticate(adminID)
		},
	})
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
	}()

	url := fmt.Sprintf("http://%s%s", srv.Addr(), transport.PairingsPath)
	post := func(body []byte) map[byte][]byte {
		t.Helper()
		res, err := http.Post(url, transport.ContentTypePairingTLV8, bytes.NewReader(body))
		if err != nil {
			t.Fatalf("POST failed: %v", err)
		}
		defer res.Body.Close()
		if res.StatusCode != http.StatusOK {
			t.Fatalf("Unexpected status %d", res.StatusCode)
		}
		resBody, err := io.ReadAll(res.Body)
		if err != nil {
			t.Fatalf("Failed to read response: %v", err)
		}
		decoded, err := tlv8.Decode(resBody)
		if err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		return decoded
	}

	// Add a user pairing.
	userID := uuid.New()
	userKey := bytes.Repeat([]byte{0x42}, 32)
	decoded := post(tlv8.Encode(tlv8.Container{
		tlv8.State(1),
		tlv8.Method(tlv8.MethodAddPairing),
		tlv8.Identifier(userID.String()),
		tlv8.PublicKey(userKey),
		tlv8.Permissions(pairing.PermissionUser.Byte()),
	}))
	if _, hasErr := decoded[byte(tlv8.TypeError)]; hasErr {
		t.Fatalf("Add failed: %v", decoded)
	}

	// List shows both pairings.
	decoded = post(tlv8.Encode(tlv8.Container{
		tlv8.State(1),
		tlv8.Method(tlv8.MethodListPairings),
	}))
	if got := len(decoded[byte(tlv8.TypePublicKey)]); got != 64 {
		t.Fatalf("Expected 2 public keys (64 bytes), got %d bytes", got)
	}

	// Remove the user pairing.
	decoded = post(tlv8.Encode(tlv8.Container{
		tlv8.State(1),
		tlv8.Method(tlv8.MethodRemovePairing),
		tlv8.Identifier(userID.String()),
	}))
	if _, hasErr := decoded[byte(tlv8.TypeError)]; hasErr {
		t.Fatalf("Remove failed: %v", decoded)
	}

	eventsMu.Lock()
	eventCount := len(events)
	eventsMu.Unlock()
	// Add and remove each emit a controller event plus a summary.
	if eventCount != 4 {
		t.Fatalf("Expected 4 events, got %d", eventCount)
	}

	// Reopen the store: only the admin pairing remains.
	reopened, err := pairing.NewFileStore(storePath)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	n, err := reopened.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("Expected 1 pairing after reopen, got %d", n)
	}
}

// TestE2E_StatusFlagFollowsPairings checks that the advertised status flag
// tracks admin pairings added and removed through the protocol.
func TestE2E_StatusFlagFollowsPairings(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	store := pairing.NewMemoryStore()
	bootstrapID := uuid.New()
	bootstrap, err := pairing.New(bootstrapID, bytes.Repeat([]byte{0xA0}, 32), pairing.PermissionAdmin)
	if err != nil {
		t.Fatalf("Failed to create pairing: %v", err)
	}
	if err := store.Save(bootstrap); err != nil {
		t.Fatalf("Failed to save pairing: %v", err)
	}

	emitter := event.NewEmitter()
	handler := service.NewPairings(store, emitter, testConfig{})

	adv := discovery.NewAdvertiser(discovery.AccessoryInfo{
		Name:     "E2E Accessory",
		DeviceID: "00:11:22:33:44:55",
		Model:    "e2e",
		Port:     transport.DefaultPort,
	}, discovery.DefaultAdvertiserConfig())
	defer adv.Stop()

	adv.BindEvents(emitter, store)
	if !adv.Info().Paired {
		t.Fatal("Expected paired status with admin pairing present")
	}

	// Remove the only admin pairing via the protocol.
	sess := session.New("test")
	sess.Authenticate(bootstrapID)
	res := handler.HandleRequest(tlv8.Encode(tlv8.Container{
		tlv8.State(1),
		tlv8.Method(tlv8.MethodRemovePairing),
		tlv8.Identifier(bootstrapID.String()),
	}), sess)
	decoded, err := tlv8.Decode(res)
	if err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if _, hasErr := decoded[byte(tlv8.TypeError)]; hasErr {
		t.Fatalf("Remove failed: %v", decoded)
	}

	if adv.Info().Paired {
		t.Fatal("Expected unpaired status after admin removal")
	}
}

// TestE2E_EncryptedChannel exercises the derived control channel between
// two endpoints sharing a verify secret.
func TestE2E_EncryptedChannel(t *testing.T) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		t.Fatalf("Failed to generate secret: %v", err)
	}

	accessoryKeys, err := session.DeriveChannelKeys(secret)
	if err != nil {
		t.Fatalf("Failed to derive keys: %v", err)
	}
	controllerKeys := session.ChannelKeys{
		Read:  accessoryKeys.Write,
		Write: accessoryKeys.Read,
	}

	aToC := &bytes.Buffer{}
	cToA := &bytes.Buffer{}
	accessory, err := session.NewChannel(rw{r: cToA, w: aToC}, accessoryKeys)
	if err != nil {
		t.Fatalf("Failed to create channel: %v", err)
	}
	controller, err := session.NewChannel(rw{r: aToC, w: cToA}, controllerKeys)
	if err != nil {
		t.Fatalf("Failed to create channel: %v", err)
	}

	request := tlv8.Encode(tlv8.Container{
		tlv8.State(1),
		tlv8.Method(tlv8.MethodListPairings),
	})
	if _, err := controller.Write(request); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got := make([]byte, len(request))
	if _, err := io.ReadFull(accessory, got); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(request, got) {
		t.Fatal("Decrypted request does not match")
	}
}

type rw struct {
	r *bytes.Buffer
	w *bytes.Buffer
}

func (p rw) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p rw) Write(b []byte) (int, error) { return p.w.Write(b) }
