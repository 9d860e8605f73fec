package ledger_test

import (
	"testing"

	"fairshare-backend/ledger"
	"fairshare-backend/money"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tripGroup = uuid.MustParse("00000000-0000-0000-0000-000000000064")
	rentGroup = uuid.MustParse("00000000-0000-0000-0000-000000000065")
)

// buildExpense runs the split computation and wraps the result in an Expense,
// mirroring how the persistence layer reconstructs snapshots.
func buildExpense(t *testing.T, groupID uuid.UUID, total money.Money, st ledger.SplitType, in []ledger.SplitInput, paidBy []ledger.Payment) ledger.Expense {
	t.Helper()
	participants, err := ledger.ComputeSplit(total, in, st, paidBy)
	require.NoError(t, err)
	return ledger.Expense{
		ID:           uuid.New(),
		GroupID:      groupID,
		Total:        total,
		SplitType:    st,
		Participants: participants,
		Payments:     paidBy,
	}
}

func TestCalculateBalance(t *testing.T) {
	// Alice fronts 30.00 split equally three ways.
	dinner := buildExpense(t, tripGroup, usd(3000), ledger.SplitEqual, parts(0, 0, 0), soloPayer(alice, 3000))
	expenses := []ledger.Expense{dinner}

	t.Run("payer is owed the others' shares", func(t *testing.T) {
		s, err := ledger.CalculateBalance(alice, expenses, money.USD)
		require.NoError(t, err)
		assert.Equal(t, int64(2000), s.TotalOwed.Minor())
		assert.True(t, s.TotalOwing.IsZero())
		assert.Equal(t, int64(2000), s.Net.Minor())
		assert.Equal(t, 1, s.ExpenseCount)
		assert.Equal(t, money.USD, s.Currency)
	})

	t.Run("non-payer owes their share", func(t *testing.T) {
		s, err := ledger.CalculateBalance(bob, expenses, money.USD)
		require.NoError(t, err)
		assert.True(t, s.TotalOwed.IsZero())
		assert.Equal(t, int64(1000), s.TotalOwing.Minor())
		assert.Equal(t, int64(-1000), s.Net.Minor())
	})

	t.Run("stranger has zero involvement", func(t *testing.T) {
		s, err := ledger.CalculateBalance(uuid.New(), expenses, money.USD)
		require.NoError(t, err)
		assert.True(t, s.Net.IsZero())
		assert.Equal(t, 0, s.ExpenseCount)
	})

	t.Run("settled expenses contribute nothing", func(t *testing.T) {
		settled := dinner
		settled.Settled = true
		s, err := ledger.CalculateBalance(alice, []ledger.Expense{settled}, money.USD)
		require.NoError(t, err)
		assert.True(t, s.Net.IsZero())
		assert.Equal(t, 0, s.ExpenseCount)
	})

	t.Run("other currencies are ignored, never converted", func(t *testing.T) {
		eur := money.MustMinor(3000, money.EUR)
		euroDinner := buildExpense(t, tripGroup, eur, ledger.SplitEqual, parts(0, 0, 0),
			[]ledger.Payment{{UserID: alice, Amount: eur}})

		s, err := ledger.CalculateBalance(alice, []ledger.Expense{dinner, euroDinner}, money.USD)
		require.NoError(t, err)
		assert.Equal(t, int64(2000), s.Net.Minor())
		assert.Equal(t, 1, s.ExpenseCount)

		sEUR, err := ledger.CalculateBalance(alice, []ledger.Expense{dinner, euroDinner}, money.EUR)
		require.NoError(t, err)
		assert.Equal(t, int64(2000), sEUR.Net.Minor())
		assert.Equal(t, money.EUR, sEUR.Currency)
	})

	t.Run("unknown currency code is rejected, not a panic", func(t *testing.T) {
		var vErr *ledger.ValidationError
		_, err := ledger.CalculateBalance(alice, expenses, money.Code("usd"))
		require.ErrorAs(t, err, &vErr)

		_, err = ledger.CalculateBalance(alice, nil, money.Code("XTZ"))
		require.ErrorAs(t, err, &vErr)
	})

	t.Run("inputs are not mutated", func(t *testing.T) {
		before := dinner
		_, err := ledger.CalculateBalance(alice, expenses, money.USD)
		require.NoError(t, err)
		assert.Equal(t, before, expenses[0])
	})
}

func TestCalculateGroupBalance(t *testing.T) {
	dinner := buildExpense(t, tripGroup, usd(3000), ledger.SplitEqual, parts(0, 0, 0), soloPayer(alice, 3000))
	taxi := buildExpense(t, tripGroup, usd(600), ledger.SplitEqual, parts(0, 0, 0), soloPayer(bob, 600))
	otherGroup := buildExpense(t, rentGroup, usd(100000), ledger.SplitEqual,
		[]ledger.SplitInput{{UserID: alice}, {UserID: bob}}, soloPayer(alice, 100000))

	balances, err := ledger.CalculateGroupBalance(tripGroup, []ledger.Expense{dinner, taxi, otherGroup})
	require.NoError(t, err)

	// dinner: alice +2000, bob -1000, carol -1000
	// taxi:   alice -200,  bob +400,  carol -200
	assert.Equal(t, int64(1800), balances[alice].Minor())
	assert.Equal(t, int64(-600), balances[bob].Minor())
	assert.Equal(t, int64(-1200), balances[carol].Minor())

	var sum int64
	for _, b := range balances {
		sum += b.Minor()
	}
	assert.Zero(t, sum, "group balances must net to zero")

	t.Run("mixed currencies are an error", func(t *testing.T) {
		eur := money.MustMinor(1000, money.EUR)
		euroTaxi := buildExpense(t, tripGroup, eur, ledger.SplitEqual, parts(0, 0, 0),
			[]ledger.Payment{{UserID: carol, Amount: eur}})
		_, err := ledger.CalculateGroupBalance(tripGroup, []ledger.Expense{dinner, euroTaxi})
		require.ErrorIs(t, err, money.ErrCurrencyMismatch)
	})

	t.Run("no expenses yields an empty map", func(t *testing.T) {
		balances, err := ledger.CalculateGroupBalance(uuid.New(), []ledger.Expense{dinner})
		require.NoError(t, err)
		assert.Empty(t, balances)
	})
}

func TestUserDebts(t *testing.T) {
	dinner := buildExpense(t, tripGroup, usd(3000), ledger.SplitEqual, parts(0, 0, 0), soloPayer(alice, 3000))
	taxi := buildExpense(t, tripGroup, usd(600), ledger.SplitEqual, parts(0, 0, 0), soloPayer(bob, 600))
	expenses := []ledger.Expense{dinner, taxi}

	t.Run("payer sees per-counterparty nets", func(t *testing.T) {
		owes, owed, err := ledger.UserDebts(alice, expenses, money.USD)
		require.NoError(t, err)
		require.Empty(t, owes)
		require.Len(t, owed, 2)

		// sorted by user id string, bob before carol
		assert.Equal(t, bob, owed[0].UserID)
		assert.Equal(t, int64(800), owed[0].TotalOwed.Minor())
		assert.Equal(t, 2, owed[0].ExpenseCount)

		assert.Equal(t, carol, owed[1].UserID)
		assert.Equal(t, int64(1000), owed[1].TotalOwed.Minor())
		assert.Equal(t, 1, owed[1].ExpenseCount)
	})

	t.Run("debtor sees the mirror image", func(t *testing.T) {
		owes, owed, err := ledger.UserDebts(carol, expenses, money.USD)
		require.NoError(t, err)
		require.Empty(t, owed)
		require.Len(t, owes, 2)

		assert.Equal(t, alice, owes[0].UserID)
		assert.Equal(t, int64(1000), owes[0].TotalOwing.Minor())
		assert.Equal(t, bob, owes[1].UserID)
		assert.Equal(t, int64(200), owes[1].TotalOwing.Minor())
	})

	t.Run("fully offset pairs are omitted", func(t *testing.T) {
		lunchBack := buildExpense(t, tripGroup, usd(2000), ledger.SplitEqual,
			[]ledger.SplitInput{{UserID: alice}, {UserID: bob}}, soloPayer(bob, 2000))
		dinnerOut := buildExpense(t, tripGroup, usd(2000), ledger.SplitEqual,
			[]ledger.SplitInput{{UserID: alice}, {UserID: bob}}, soloPayer(alice, 2000))

		owes, owed, err := ledger.UserDebts(alice, []ledger.Expense{lunchBack, dinnerOut}, money.USD)
		require.NoError(t, err)
		assert.Empty(t, owes)
		assert.Empty(t, owed)
	})

	t.Run("multi-payer expense attributes shares proportionally", func(t *testing.T) {
		// Alice and bob pay 600/400 of a 1000 three-way equal split.
		multi := buildExpense(t, tripGroup, usd(1000), ledger.SplitEqual, parts(0, 0, 0),
			[]ledger.Payment{
				{UserID: alice, Amount: usd(600)},
				{UserID: bob, Amount: usd(400)},
			})

		owes, owed, err := ledger.UserDebts(carol, []ledger.Expense{multi}, money.USD)
		require.NoError(t, err)
		require.Empty(t, owed)
		require.Len(t, owes, 2)

		var total int64
		for _, s := range owes {
			total += s.TotalOwing.Minor()
		}
		assert.Equal(t, int64(333), total, "carol owes exactly her share across both payers")
	})

	t.Run("unknown currency code is rejected, not a panic", func(t *testing.T) {
		var vErr *ledger.ValidationError
		_, _, err := ledger.UserDebts(alice, expenses, money.Code("usd"))
		require.ErrorAs(t, err, &vErr)
	})
}
