package app_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nshein/duet/internal/core"
)

func TestJoinQueueProposesFirstCompatiblePair(t *testing.T) {
	h := newHarness(t)
	fa := h.connect("a", "u1", "alice")
	fb := h.connect("b", "u2", "bob")

	h.coord.JoinQueue("a")
	require.Equal(t, 0, fa.count(core.EvMatchFound), "nobody else waiting yet")

	h.coord.JoinQueue("b")
	require.Equal(t, 1, fa.count(core.EvMatchFound))
	require.Equal(t, 1, fb.count(core.EvMatchFound))

	// Each side sees the other, never itself.
	foundA := fa.last(t, core.EvMatchFound)
	foundB := fb.last(t, core.EvMatchFound)
	require.Equal(t, "b", foundA.Get("partnerSocket").String())
	require.Equal(t, "a", foundB.Get("partnerSocket").String())
	require.Equal(t, "bob", foundA.Get("partnerData.username").String())
	require.Equal(t, "alice", foundB.Get("partnerData.username").String())
}

func TestJoinQueueIsIdempotentWhilePairedOrQueued(t *testing.T) {
	h := newHarness(t)
	fa := h.connect("a", "u1", "alice")
	h.connect("b", "u2", "bob")

	h.coord.JoinQueue("a")
	h.coord.JoinQueue("a") // second join is a no-op
	h.coord.JoinQueue("b")
	require.Equal(t, 1, fa.count(core.EvMatchFound))

	// Joining while the pairing is proposed must not requeue.
	h.coord.JoinQueue("a")
	require.Equal(t, 1, fa.count(core.EvMatchFound))
}

func TestConfirmationSymmetry(t *testing.T) {
	h := newHarness(t)
	fa := h.connect("a", "u1", "alice")
	fb := h.connect("b", "u2", "bob")
	h.coord.JoinQueue("a")
	h.coord.JoinQueue("b")

	h.coord.Accept("a")
	require.Equal(t, 1, fb.count(core.EvPartnerAccepted))
	require.Equal(t, 0, fa.count(core.EvMatchConfirmed), "one acceptance must not confirm")
	require.Equal(t, 0, fb.count(core.EvMatchConfirmed))

	h.coord.Accept("b")
	require.Equal(t, 1, fa.count(core.EvMatchConfirmed))
	require.Equal(t, 1, fb.count(core.EvMatchConfirmed))

	conf := fa.last(t, core.EvMatchConfirmed)
	require.Equal(t, "b", conf.Get("partner.socketId").String())
	require.Equal(t, "bob", conf.Get("partner.username").String())
}

func TestDeclineNotifiesPeerAndRequeuesBoth(t *testing.T) {
	h := newHarness(t)
	fa := h.connect("a", "u1", "alice")
	fb := h.connect("b", "u2", "bob")
	h.coord.JoinQueue("a")
	h.coord.JoinQueue("b")

	h.coord.Decline("a")
	require.Equal(t, 1, fb.count(core.EvPartnerDecline))
	require.Equal(t, "alice", fb.last(t, core.EvPartnerDecline).Get("user.username").String())

	// Both went back to the pool and the scan immediately re-proposed them.
	require.Equal(t, 2, fa.count(core.EvMatchFound))
	require.Equal(t, 2, fb.count(core.EvMatchFound))

	// The fresh proposal starts with clean acceptance flags.
	h.coord.Accept("a")
	require.Equal(t, 0, fa.count(core.EvMatchConfirmed))
	h.coord.Accept("b")
	require.Equal(t, 1, fa.count(core.EvMatchConfirmed))
}

func TestExclusionRespectedDuringScan(t *testing.T) {
	h := newHarness(t)
	fa := h.connect("a", "u1", "alice")
	fb := h.connect("b", "u2", "bob")

	h.coord.ExcludeNext("a", "b")
	h.coord.JoinQueue("a")
	h.coord.JoinQueue("b")
	require.Equal(t, 0, fa.count(core.EvMatchFound))
	require.Equal(t, 0, fb.count(core.EvMatchFound))

	// One-directional exclusion blocks symmetrically: b cannot reach a either.
	h.coord.Skip("b")
	require.Equal(t, 0, fb.count(core.EvMatchFound))

	// A third connection pairs with the first compatible pool member.
	fc := h.connect("c", "u3", "cara")
	h.coord.JoinQueue("c")
	require.Equal(t, 1, fc.count(core.EvMatchFound))
	require.Equal(t, "a", fc.last(t, core.EvMatchFound).Get("partnerSocket").String())
	require.Equal(t, 1, fa.count(core.EvMatchFound))
	require.Equal(t, 0, fb.count(core.EvMatchFound))
}

func TestConfirmTimeoutRollsBackAndRequeues(t *testing.T) {
	h := newHarness(t)
	fa := h.connect("a", "u1", "alice")
	fb := h.connect("b", "u2", "bob")
	h.coord.JoinQueue("a")
	h.coord.JoinQueue("b")

	h.coord.Accept("a") // b never answers

	h.clk.Add(testConfirmTimeout)
	require.Equal(t, 1, fa.count(core.EvMatchTimeout))
	require.Equal(t, 1, fb.count(core.EvMatchTimeout))

	// Rollback requeued both; the scan proposed them again with reset flags.
	require.Equal(t, 2, fa.count(core.EvMatchFound))
	require.Equal(t, 2, fb.count(core.EvMatchFound))
	h.coord.Accept("a")
	require.Equal(t, 0, fa.count(core.EvMatchConfirmed), "stale acceptance must not survive rollback")
}

func TestRolledBackConnectionCanPairWithThirdParty(t *testing.T) {
	h := newHarness(t)
	fa := h.connect("a", "u1", "alice")
	fb := h.connect("b", "u2", "bob")
	h.coord.JoinQueue("a")
	h.coord.JoinQueue("b")

	h.coord.Accept("a")
	h.clk.Add(testConfirmTimeout)

	// Break the automatic re-proposal; a and b now avoid each other.
	h.coord.ExcludeNext("a", "b")
	require.Equal(t, 1, fb.count(core.EvPartnerSkipped))

	fc := h.connect("c", "u3", "cara")
	h.coord.JoinQueue("c")
	require.Equal(t, 1, fc.count(core.EvMatchFound))
	partner := fc.last(t, core.EvMatchFound).Get("partnerSocket").String()
	require.Contains(t, []string{"a", "b"}, partner)
	require.NotEqual(t, "c", partner)
	_ = fa
}

func TestStaleConfirmTimerIsNoOpAfterConfirmation(t *testing.T) {
	h := newHarness(t)
	fa, fb := h.pairUp("a", "b")

	h.clk.Add(testConfirmTimeout * 2)
	require.Equal(t, 0, fa.count(core.EvMatchTimeout))
	require.Equal(t, 0, fb.count(core.EvMatchTimeout))
	require.Equal(t, 1, fa.count(core.EvMatchConfirmed))
}

func TestSkipNotifiesBothAndRequeuesBoth(t *testing.T) {
	h := newHarness(t)
	fa, fb := h.pairUp("a", "b")

	h.coord.Skip("a")
	require.Equal(t, 1, fa.count(core.EvSkippedPartner))
	require.Equal(t, 1, fb.count(core.EvPartnerSkipped))
	require.Equal(t, "name-b", fa.last(t, core.EvSkippedPartner).Get("user.username").String())
	require.Equal(t, "name-a", fb.last(t, core.EvPartnerSkipped).Get("user.username").String())

	// Both are back in the pool and eligible for immediate re-pairing.
	require.Equal(t, 2, fa.count(core.EvMatchFound))
	require.Equal(t, 2, fb.count(core.EvMatchFound))
}

func TestSkipWithoutPairingJustQueues(t *testing.T) {
	h := newHarness(t)
	fa := h.connect("a", "u1", "alice")

	h.coord.Skip("a")
	require.Equal(t, 0, fa.count(core.EvMatchFound))

	fb := h.connect("b", "u2", "bob")
	h.coord.JoinQueue("b")
	require.Equal(t, 1, fa.count(core.EvMatchFound))
	require.Equal(t, 1, fb.count(core.EvMatchFound))
}

func TestExcludeCurrentPartnerDissolvesImmediately(t *testing.T) {
	h := newHarness(t)
	fa, fb := h.pairUp("a", "b")

	h.coord.ExcludeNext("a", "b")
	require.Equal(t, 1, fb.count(core.EvPartnerSkipped))
	require.Equal(t, 1, fa.count(core.EvSkippedPartner))

	// Both requeued, but the exclusion keeps them apart from now on.
	require.Equal(t, 1, fa.count(core.EvMatchFound))
	require.Equal(t, 1, fb.count(core.EvMatchFound))
}

func TestExcludeUnrelatedPeerKeepsPairing(t *testing.T) {
	h := newHarness(t)
	fa, fb := h.pairUp("a", "b")

	h.coord.ExcludeNext("a", "z")
	require.Equal(t, 0, fb.count(core.EvPartnerSkipped))
	require.Equal(t, 1, fa.count(core.EvMatchConfirmed), "pairing must survive unrelated exclusions")
}

func TestLeaveQueueWhilePairedDissolvesAndRequeuesPeer(t *testing.T) {
	h := newHarness(t)
	fa, fb := h.pairUp("a", "b")

	h.coord.LeaveQueue("a")
	require.Equal(t, 1, fb.count(core.EvPartnerDisconnect))

	// The peer is requeued; the leaver is not.
	fc := h.connect("c", "u3", "cara")
	h.coord.JoinQueue("c")
	require.Equal(t, 1, fc.count(core.EvMatchFound))
	require.Equal(t, "b", fc.last(t, core.EvMatchFound).Get("partnerSocket").String())
	require.Equal(t, 1, fa.count(core.EvMatchFound), "leaver must stay idle")
}

func TestAcceptWithoutPairingIsDropped(t *testing.T) {
	h := newHarness(t)
	fa := h.connect("a", "u1", "alice")

	h.coord.Accept("a")
	h.coord.Decline("a")
	require.Equal(t, 0, fa.count(core.EvMatchConfirmed))
	require.Equal(t, 0, fa.count(core.EvPartnerDecline))
}

func TestDisconnectDuringProposalRequeuesPeer(t *testing.T) {
	h := newHarness(t)
	fa := h.connect("a", "u1", "alice")
	fb := h.connect("b", "u2", "bob")
	h.coord.JoinQueue("a")
	h.coord.JoinQueue("b")

	h.coord.Disconnect("a")
	require.Equal(t, 1, fb.count(core.EvPartnerDisconnect))
	require.Equal(t, "alice", fb.last(t, core.EvPartnerDisconnect).Get("user.username").String())

	// The confirm timer died with the pairing.
	h.clk.Add(testConfirmTimeout * 2)
	require.Equal(t, 0, fb.count(core.EvMatchTimeout))

	// b is waiting again and pairs with the next arrival.
	fc := h.connect("c", "u3", "cara")
	h.coord.JoinQueue("c")
	require.Equal(t, 2, fb.count(core.EvMatchFound), "b got exactly one fresh proposal")
	require.Equal(t, "b", fc.last(t, core.EvMatchFound).Get("partnerSocket").String())
	_ = fa
}

func TestDisconnectPurgesExclusionsBothWays(t *testing.T) {
	h := newHarness(t)
	h.connect("a", "u1", "alice")
	fb := h.connect("b", "u2", "bob")

	h.coord.ExcludeNext("b", "a")
	h.coord.Disconnect("a")

	// A fresh connection may reuse nothing of a's state; b must be fully
	// pairable again with everyone.
	fa2 := h.connect("a2", "u1", "alice")
	h.coord.JoinQueue("b")
	h.coord.JoinQueue("a2")
	require.Equal(t, 1, fb.count(core.EvMatchFound))
	require.Equal(t, 1, fa2.count(core.EvMatchFound))
}

func TestPresenceBroadcastOnRegisterAndDisconnect(t *testing.T) {
	h := newHarness(t)
	fa := h.connect("a", "u1", "alice")
	fb := h.connect("b", "u2", "bob")

	require.Equal(t, int64(2), fa.last(t, core.EvActiveUserCount).Get("count").Int())
	list := fb.last(t, core.EvFriendStatusUpdate)
	require.Len(t, list.Get("users").Array(), 2)

	h.coord.Disconnect("b")
	require.Equal(t, int64(1), fa.last(t, core.EvActiveUserCount).Get("count").Int())
	require.Len(t, fa.last(t, core.EvFriendStatusUpdate).Get("users").Array(), 1)
}
