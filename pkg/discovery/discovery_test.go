package discovery

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acp-protocol/acp-go/pkg/event"
	"github.com/acp-protocol/acp-go/pkg/pairing"
)

func testInfo() AccessoryInfo {
	return AccessoryInfo{
		Name:         "Kitchen Bridge",
		DeviceID:     "A1:B2:C3:D4:E5:F6",
		Model:        "bridge-2",
		Port:         8473,
		Category:     2,
		ConfigNumber: 1,
		StateNumber:  1,
	}
}

func TestEncodeAccessoryTXT(t *testing.T) {
	info := testInfo()
	txt := EncodeAccessoryTXT(&info)

	assert.Equal(t, "A1:B2:C3:D4:E5:F6", txt[TXTKeyDeviceID])
	assert.Equal(t, "bridge-2", txt[TXTKeyModel])
	assert.Equal(t, "1", txt[TXTKeyConfigNumber])
	assert.Equal(t, "1", txt[TXTKeyStateNumber])
	assert.Equal(t, "2", txt[TXTKeyCategory])
	assert.Equal(t, ProtocolVersion, txt[TXTKeyProtocolVersion])

	// Unpaired accessories advertise the setup flag.
	assert.Equal(t, "1", txt[TXTKeyStatusFlags])

	info.Paired = true
	txt = EncodeAccessoryTXT(&info)
	assert.Equal(t, "0", txt[TXTKeyStatusFlags])
}

func TestDecodeAccessoryTXTRoundTrip(t *testing.T) {
	info := testInfo()
	info.Paired = true

	decoded, err := DecodeAccessoryTXT(EncodeAccessoryTXT(&info))
	require.NoError(t, err)

	assert.Equal(t, info.DeviceID, decoded.DeviceID)
	assert.Equal(t, info.Model, decoded.Model)
	assert.Equal(t, info.ConfigNumber, decoded.ConfigNumber)
	assert.Equal(t, info.StateNumber, decoded.StateNumber)
	assert.Equal(t, info.Category, decoded.Category)
	assert.True(t, decoded.Paired)
}

func TestDecodeAccessoryTXTRejectsMissingFields(t *testing.T) {
	info := testInfo()
	for _, key := range []string{
		TXTKeyDeviceID, TXTKeyConfigNumber, TXTKeyStateNumber,
		TXTKeyStatusFlags, TXTKeyCategory,
	} {
		t.Run(key, func(t *testing.T) {
			txt := EncodeAccessoryTXT(&info)
			delete(txt, key)
			_, err := DecodeAccessoryTXT(txt)
			assert.Error(t, err)
		})
	}
}

func TestDecodeAccessoryTXTRejectsBadNumbers(t *testing.T) {
	info := testInfo()
	txt := EncodeAccessoryTXT(&info)
	txt[TXTKeyConfigNumber] = "many"
	_, err := DecodeAccessoryTXT(txt)
	assert.Error(t, err)
}

func TestTXTStringsRoundTrip(t *testing.T) {
	info := testInfo()
	txt := EncodeAccessoryTXT(&info)

	parsed := ParseTXTStrings(TXTRecordsToStrings(txt))
	assert.Equal(t, txt, parsed)
}

func TestParseTXTStringsKeepsValueEquals(t *testing.T) {
	parsed := ParseTXTStrings([]string{"id=AA=BB", "flag"})
	assert.Equal(t, "AA=BB", parsed["id"])
	_, ok := parsed["flag"]
	assert.False(t, ok)
}

func TestAdvertiserTracksPairingEvents(t *testing.T) {
	store := pairing.NewMemoryStore()
	emitter := event.NewEmitter()

	adv := NewAdvertiser(testInfo(), DefaultAdvertiserConfig())
	defer adv.Stop()

	adv.BindEvents(emitter, store)
	assert.False(t, adv.Info().Paired)

	// An admin pairing appears: the accessory is paired.
	adminID := uuid.New()
	admin, err := pairing.New(adminID, bytes.Repeat([]byte{0xA0}, 32), pairing.PermissionAdmin)
	require.NoError(t, err)
	require.NoError(t, store.Save(admin))
	emitter.Emit(event.ControllerPaired{ID: adminID})
	assert.True(t, adv.Info().Paired)

	// A plain user pairing alone does not count.
	require.NoError(t, store.Delete(adminID))
	userID := uuid.New()
	user, err := pairing.New(userID, bytes.Repeat([]byte{0xB0}, 32), pairing.PermissionUser)
	require.NoError(t, err)
	require.NoError(t, store.Save(user))
	emitter.Emit(event.ControllerUnpaired{ID: adminID})
	assert.False(t, adv.Info().Paired)
}

func TestAdvertiserBumpConfigNumber(t *testing.T) {
	adv := NewAdvertiser(testInfo(), DefaultAdvertiserConfig())
	adv.BumpConfigNumber()
	assert.Equal(t, 2, adv.Info().ConfigNumber)
}

func TestAdvertiserStopRemovesSubscription(t *testing.T) {
	store := pairing.NewMemoryStore()
	emitter := event.NewEmitter()

	adv := NewAdvertiser(testInfo(), DefaultAdvertiserConfig())
	adv.BindEvents(emitter, store)
	require.Equal(t, 1, emitter.SubscriberCount())

	adv.Stop()
	assert.Equal(t, 0, emitter.SubscriberCount())
}
