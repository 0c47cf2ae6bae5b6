package errs_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/ardanlabs/utxochain/business/web/errs"
	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/stretchr/testify/require"
)

func Test_NewLedgerError(t *testing.T) {
	err := errs.NewLedgerError(database.InvalidTransaction("no inputs"))
	require.True(t, errs.IsTrusted(err))
	require.Equal(t, http.StatusBadRequest, errs.GetTrusted(err).Status)

	err = errs.NewLedgerError(database.InvalidBlock("bad parent"))
	require.Equal(t, http.StatusNotAcceptable, errs.GetTrusted(err).Status)

	err = errs.NewLedgerError(errors.New("disk full"))
	require.False(t, errs.IsTrusted(err))
}
