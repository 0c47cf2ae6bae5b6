package wire_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/digest"
	"github.com/ardanlabs/utxochain/foundation/blockchain/signature"
	"github.com/ardanlabs/utxochain/foundation/blockchain/wire"
	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"
)

func Test_Framing(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, wire.Send(&buf, wire.AskDifference{Height: 42}))

	encoded, err := wire.Encode(wire.AskDifference{Height: 42})
	require.NoError(t, err)

	frame := buf.Bytes()
	require.Len(t, frame, 8+len(encoded))
	require.EqualValues(t, len(encoded), binary.BigEndian.Uint64(frame[:8]))

	msg, err := wire.Receive(&buf)
	require.NoError(t, err)
	require.Equal(t, wire.AskDifference{Height: 42}, msg)

	_, err = wire.Receive(&buf)
	require.ErrorIs(t, err, io.EOF)
}

func Test_ShortRead(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, wire.Send(&buf, wire.Difference{Delta: -3}))

	frame := buf.Bytes()

	_, err := wire.Receive(bytes.NewReader(frame[:5]))
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, err = wire.Receive(bytes.NewReader(frame[:len(frame)-1]))
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func Test_Rejects(t *testing.T) {
	var prefix [8]byte
	binary.BigEndian.PutUint64(prefix[:], wire.MaxMessageSize+1)

	_, err := wire.Receive(bytes.NewReader(prefix[:]))
	require.ErrorIs(t, err, wire.ErrMessageTooLarge)

	unknown, err := cbor.Marshal(map[int]any{1: 200, 2: []byte{0xa0}})
	require.NoError(t, err)

	_, err = wire.Decode(unknown)
	require.Error(t, err)
}

func Test_BlockMessages(t *testing.T) {
	block, err := database.NewBlock(digest.Hash("prev"), database.Target{0xff}, []database.Tx{
		database.NewCoinbaseTx(50, signature.PublicKey{}),
	})
	require.NoError(t, err)

	for _, msg := range []wire.Message{
		wire.Template{Block: block},
		wire.SubmitTemplate{Block: block},
		wire.NewBlock{Block: block},
	} {
		data, err := wire.Encode(msg)
		require.NoError(t, err)

		got, err := wire.Decode(data)
		require.NoError(t, err)
		require.Equal(t, msg.Kind(), got.Kind())

		var b database.Block
		switch m := got.(type) {
		case wire.Template:
			b = m.Block
		case wire.SubmitTemplate:
			b = m.Block
		case wire.NewBlock:
			b = m.Block
		}
		require.Equal(t, block.Hash(), b.Hash())
		require.True(t, b.Trans[0].Equals(block.Trans[0]))
	}
}

func Test_Server(t *testing.T) {
	handler := func(ctx context.Context, msg wire.Message) (wire.Message, error) {
		switch m := msg.(type) {
		case wire.AskDifference:
			return wire.Difference{Delta: 10 - int64(m.Height)}, nil
		case wire.NewTransaction:
			return nil, nil
		}
		return nil, errors.New("unsupported")
	}

	srv, err := wire.NewServer("127.0.0.1:0", time.Second, handler, func(string, ...any) {})
	require.NoError(t, err)

	go srv.Serve()
	defer srv.Shutdown(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	reply, err := wire.Request(ctx, srv.Addr(), wire.AskDifference{Height: 4})
	require.NoError(t, err)
	require.Equal(t, wire.Difference{Delta: 6}, reply)

	require.NoError(t, wire.Notify(ctx, srv.Addr(), wire.NewTransaction{}))

	_, err = wire.Request(ctx, srv.Addr(), wire.DiscoverNodes{})
	require.Error(t, err)
}
