package ledger_test

import (
	"testing"

	"fairshare-backend/ledger"
	"fairshare-backend/money"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestSettlements(t *testing.T) {
	t.Run("largest debtor pays largest creditor first", func(t *testing.T) {
		balances := map[uuid.UUID]money.Money{
			alice: usd(300),
			bob:   usd(-100),
			carol: usd(-200),
		}

		got, err := ledger.SuggestSettlements(balances)
		require.NoError(t, err)
		require.Equal(t, []ledger.Suggestion{
			{FromUserID: carol, ToUserID: alice, Amount: usd(200)},
			{FromUserID: bob, ToUserID: alice, Amount: usd(100)},
		}, got)
	})

	t.Run("suggestions zero every balance", func(t *testing.T) {
		balances := map[uuid.UUID]money.Money{
			alice: usd(1754),
			bob:   usd(-923),
			carol: usd(-1204),
			uuid.MustParse("00000000-0000-0000-0000-00000000000d"): usd(373),
		}

		got, err := ledger.SuggestSettlements(balances)
		require.NoError(t, err)

		remaining := make(map[uuid.UUID]int64, len(balances))
		for id, b := range balances {
			remaining[id] = b.Minor()
		}
		for _, s := range got {
			assert.True(t, s.Amount.IsPositive())
			remaining[s.FromUserID] += s.Amount.Minor()
			remaining[s.ToUserID] -= s.Amount.Minor()
		}
		for id, r := range remaining {
			assert.Zerof(t, r, "user %s left with a balance", id)
		}
	})

	t.Run("transfer count is bounded", func(t *testing.T) {
		balances := map[uuid.UUID]money.Money{
			alice: usd(500),
			bob:   usd(500),
			carol: usd(-300),
			uuid.MustParse("00000000-0000-0000-0000-00000000000d"): usd(-300),
			uuid.MustParse("00000000-0000-0000-0000-00000000000e"): usd(-400),
		}

		got, err := ledger.SuggestSettlements(balances)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(got), 2+3-1, "at most creditors+debtors-1 transfers")
	})

	t.Run("ties break by ascending user id", func(t *testing.T) {
		balances := map[uuid.UUID]money.Money{
			alice: usd(-100),
			bob:   usd(-100),
			carol: usd(200),
		}

		for i := 0; i < 10; i++ {
			got, err := ledger.SuggestSettlements(balances)
			require.NoError(t, err)
			require.Equal(t, []ledger.Suggestion{
				{FromUserID: alice, ToUserID: carol, Amount: usd(100)},
				{FromUserID: bob, ToUserID: carol, Amount: usd(100)},
			}, got)
		}
	})

	t.Run("zero balances are skipped", func(t *testing.T) {
		balances := map[uuid.UUID]money.Money{
			alice: usd(100),
			bob:   usd(0),
			carol: usd(-100),
		}

		got, err := ledger.SuggestSettlements(balances)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, carol, got[0].FromUserID)
		assert.Equal(t, alice, got[0].ToUserID)
	})

	t.Run("empty input yields no suggestions", func(t *testing.T) {
		got, err := ledger.SuggestSettlements(nil)
		require.NoError(t, err)
		assert.Empty(t, got)

		got, err = ledger.SuggestSettlements(map[uuid.UUID]money.Money{alice: usd(0)})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("mixed currencies are rejected", func(t *testing.T) {
		balances := map[uuid.UUID]money.Money{
			alice: usd(100),
			bob:   money.MustMinor(-100, money.EUR),
		}
		_, err := ledger.SuggestSettlements(balances)
		require.ErrorIs(t, err, money.ErrCurrencyMismatch)
	})

	t.Run("input map is not mutated", func(t *testing.T) {
		balances := map[uuid.UUID]money.Money{
			alice: usd(300),
			bob:   usd(-300),
		}
		_, err := ledger.SuggestSettlements(balances)
		require.NoError(t, err)
		assert.Equal(t, int64(300), balances[alice].Minor())
		assert.Equal(t, int64(-300), balances[bob].Minor())
	})
}
