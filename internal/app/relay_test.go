package app_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nshein/duet/internal/app"
	"github.com/nshein/duet/internal/core"
)

func TestRelayEnvelopeForwardsVerbatimWithSender(t *testing.T) {
	h := newHarness(t)
	h.connect("a", "u1", "alice")
	fb := h.connect("b", "u2", "bob")

	raw := []byte(`{"type":"webrtc-offer","to":"b","sdp":"v=0 fake","extra":{"x":1}}`)
	h.coord.RelayEnvelope("a", "webrtc-offer", "b", raw)

	got := fb.last(t, "webrtc-offer")
	require.Equal(t, "a", got.Get("from").String())
	require.Equal(t, "v=0 fake", got.Get("sdp").String())
	require.Equal(t, int64(1), got.Get("extra.x").Int())
	require.False(t, got.Get("to").Exists(), "addressing field is stripped")
}

func TestRelayToUnknownDestinationIsDropped(t *testing.T) {
	h := newHarness(t)
	fa := h.connect("a", "u1", "alice")

	h.coord.RelayEnvelope("a", "webrtc-ice-candidate", "gone", []byte(`{"type":"webrtc-ice-candidate","to":"gone","candidate":"x"}`))
	// Nothing surfaced to the sender; disconnect races are not errors.
	require.Equal(t, 0, fa.count("webrtc-ice-candidate"))
}

func TestSendChatAttachesSenderProfile(t *testing.T) {
	h := newHarness(t)
	h.connect("a", "u1", "alice")
	fb := h.connect("b", "u2", "bob")

	h.coord.SendChat("a", "b", "hello there")
	got := fb.last(t, core.EvReceiveMessage)
	require.Equal(t, "a", got.Get("from").String())
	require.Equal(t, "alice", got.Get("user.username").String())
	require.Equal(t, "hello there", got.Get("message").String())
}

func TestSendFileAttachesMetadataAndTimestamp(t *testing.T) {
	h := newHarness(t)
	h.connect("a", "u1", "alice")
	fb := h.connect("b", "u2", "bob")

	h.coord.SendFile("a", "b", app.FileMeta{
		FileURL: "https://cdn.example/x.png", FileType: "image/png",
		FileName: "x.png", FileSize: 2048,
	})
	got := fb.last(t, core.EvReceiveFile)
	require.Equal(t, "x.png", got.Get("fileName").String())
	require.Equal(t, int64(2048), got.Get("fileSize").Int())
	require.Equal(t, h.clk.Now().UnixMilli(), got.Get("time").Int())
}

func TestFriendRequestFansOutToAllTabs(t *testing.T) {
	h := newHarness(t)
	h.connect("a", "u1", "alice")
	fb1 := h.connect("b1", "u2", "bob")
	fb2 := h.connect("b2", "u2", "bob")

	h.coord.FriendRequest("a", "u2")
	require.Equal(t, 1, fb1.count(core.EvFriendRequestReceived))
	require.Equal(t, 1, fb2.count(core.EvFriendRequestReceived))
	require.Equal(t, "alice", fb1.last(t, core.EvFriendRequestReceived).Get("user.username").String())
}

func TestFriendResponseCarriesAnswer(t *testing.T) {
	h := newHarness(t)
	fa := h.connect("a", "u1", "alice")
	h.connect("b1", "u2", "bob")

	h.coord.FriendResponse("b1", "u1", true)
	got := fa.last(t, core.EvFriendResponseReceived)
	require.True(t, got.Get("accepted").Bool())
	require.Equal(t, "bob", got.Get("user.username").String())
}
