package peer_test

import (
	"testing"

	"github.com/ardanlabs/utxochain/foundation/blockchain/peer"
)

func Test_CRUD(t *testing.T) {
	type table struct {
		name  string
		peers []peer.Peer
	}

	tt := []table{
		{
			name:  "basic",
			peers: []peer.Peer{{Host: "host1"}, {Host: "host2"}, {Host: "host3"}},
		},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			ps := peer.NewPeerSet()

			for _, peer := range tst.peers {
				ps.Add(peer)
			}

			peers := ps.Copy("")
			if len(peers) != len(tst.peers) {
				t.Logf("Test %s:\tgot: %d", tst.name, len(peers))
				t.Logf("Test %s:\texp: %d", tst.name, len(tst.peers))
				t.Fatalf("Test %s:\tShould get back the right peers.", tst.name)
			}

			peers = ps.Copy("host2")
			if len(peers) != len(tst.peers)-1 {
				t.Logf("Test %s:\tgot: %d", tst.name, len(peers))
				t.Logf("Test %s:\texp: %d", tst.name, len(tst.peers)-1)
				t.Fatalf("Test %s:\tShould get back the right peers.", tst.name)
			}

			hosts := ps.Hosts("host1")
			if len(hosts) != 2 || hosts[0] != "host2" || hosts[1] != "host3" {
				t.Fatalf("Test %s:\tShould get back the sorted hosts: %v", tst.name, hosts)
			}
		}

		t.Run(tst.name, f)
	}
}

func Test_AddHosts(t *testing.T) {
	ps := peer.NewPeerSet("host1", "")

	added := ps.AddHosts("self", []string{"host1", "host2", "self", "", "host2"})
	if len(added) != 1 || added[0].Host != "host2" {
		t.Fatalf("Should only add the unknown hosts: %v", added)
	}

	if len(ps.Copy("")) != 2 {
		t.Fatalf("Should hold two peers: %v", ps.Copy(""))
	}
}
