package state

import (
	"context"
	"fmt"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/peer"
	"github.com/ardanlabs/utxochain/foundation/blockchain/wire"
	"golang.org/x/sync/errgroup"
)

// NetSendBlockToPeers takes the new mined block and sends it to all know peers.
func (s *State) NetSendBlockToPeers(ctx context.Context, block database.Block) error {
	s.evHandler("state: NetSendBlockToPeers: started")
	defer s.evHandler("state: NetSendBlockToPeers: completed")

	return s.notifyPeers(ctx, wire.NewBlock{Block: block})
}

// NetSendTxToPeers shares a new transaction with the known peers.
func (s *State) NetSendTxToPeers(ctx context.Context, tx database.Tx) {
	s.evHandler("state: NetSendTxToPeers: started")
	defer s.evHandler("state: NetSendTxToPeers: completed")

	// CORE NOTE: Bitcoin does not send the full transaction immediately to save
	// on bandwidth. A node will send the transaction's hash first so the
	// receiving node can check if they already have the transaction or not.

	// For now, the full transaction is sent.
	if err := s.notifyPeers(ctx, wire.NewTransaction{Tx: tx}); err != nil {
		s.evHandler("state: NetSendTxToPeers: WARNING: %s", err)
	}
}

// NetRequestPeerDifference asks the peer how many blocks it has beyond
// this node. A negative value means the peer is behind.
func (s *State) NetRequestPeerDifference(ctx context.Context, pr peer.Peer) (int64, error) {
	s.evHandler("state: NetRequestPeerDifference: started: %s", pr)
	defer s.evHandler("state: NetRequestPeerDifference: completed: %s", pr)

	reply, err := wire.Request(ctx, pr.Host, wire.AskDifference{Height: s.RetrieveHeight()})
	if err != nil {
		return 0, err
	}

	diff, ok := reply.(wire.Difference)
	if !ok {
		return 0, fmt.Errorf("unexpected reply %s from %s", reply.Kind(), pr)
	}

	s.evHandler("state: NetRequestPeerDifference: peer-node[%s]: delta[%d]", pr, diff.Delta)

	return diff.Delta, nil
}

// NetRequestPeerBlocks queries the specified node for the blocks this node
// does not have, one height at a time, and adds them to the chain.
func (s *State) NetRequestPeerBlocks(ctx context.Context, pr peer.Peer, count uint64) error {
	s.evHandler("state: NetRequestPeerBlocks: started: %s", pr)
	defer s.evHandler("state: NetRequestPeerBlocks: completed: %s", pr)

	// CORE NOTE: Ideally you want to start by pulling just block headers and
	// performing the cryptographic audit so you know your're not being attacked.
	// Currently this is a full node only system and needs the transactions
	// to have a complete utxo set.

	from := s.RetrieveHeight()
	for height := from; height < from+count; height++ {
		reply, err := wire.Request(ctx, pr.Host, wire.FetchBlock{Height: height})
		if err != nil {
			return fmt.Errorf("fetching block %d: %w", height, err)
		}

		nb, ok := reply.(wire.NewBlock)
		if !ok {
			return fmt.Errorf("unexpected reply %s from %s", reply.Kind(), pr)
		}

		if err := s.ProcessProposedBlock(nb.Block); err != nil {
			return fmt.Errorf("adding block %d: %w", height, err)
		}
	}

	s.evHandler("state: NetRequestPeerBlocks: added blocks[%d]", count)

	return nil
}

// NetDiscoverPeers asks every known node for its peer list. New nodes are
// added to the list and returned.
func (s *State) NetDiscoverPeers(ctx context.Context) []peer.Peer {
	s.evHandler("state: NetDiscoverPeers: started")
	defer s.evHandler("state: NetDiscoverPeers: completed")

	g, ctx := errgroup.WithContext(ctx)

	known := s.RetrieveKnownPeers()
	lists := make([][]string, len(known))

	for i, pr := range known {
		g.Go(func() error {
			reply, err := wire.Request(ctx, pr.Host, wire.DiscoverNodes{Host: s.host})
			if err != nil {
				s.evHandler("state: NetDiscoverPeers: WARNING: %s: %s", pr, err)
				return nil
			}

			if nl, ok := reply.(wire.NodeList); ok {
				lists[i] = nl.Nodes
			}
			return nil
		})
	}
	g.Wait()

	var added []peer.Peer
	for _, hosts := range lists {
		added = append(added, s.knownPeers.AddHosts(s.host, hosts)...)
	}

	for _, pr := range added {
		s.evHandler("state: NetDiscoverPeers: add peer[%s]", pr)
	}

	return added
}

// AddKnownPeer provides the ability to add a new peer to
// the known peer list.
func (s *State) AddKnownPeer(pr peer.Peer) bool {
	if pr.Host == "" || pr.Match(s.host) {
		return false
	}

	return s.knownPeers.Add(pr)
}

// =============================================================================

// notifyPeers sends the message to every known peer concurrently. Every
// peer is attempted and the first failure is returned.
func (s *State) notifyPeers(ctx context.Context, msg wire.Message) error {
	var g errgroup.Group

	for _, pr := range s.RetrieveKnownPeers() {
		g.Go(func() error {
			if err := wire.Notify(ctx, pr.Host, msg); err != nil {
				return fmt.Errorf("%s: %w", pr.Host, err)
			}

			s.evHandler("state: notifyPeers: sent %s to peer[%s]", msg.Kind(), pr)
			return nil
		})
	}

	return g.Wait()
}
