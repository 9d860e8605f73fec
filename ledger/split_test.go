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
	alice = uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	bob   = uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	carol = uuid.MustParse("00000000-0000-0000-0000-00000000000c")
)

func usd(minor int64) money.Money { return money.MustMinor(minor, money.USD) }

func parts(values ...int64) []ledger.SplitInput {
	ids := []uuid.UUID{alice, bob, carol}
	out := make([]ledger.SplitInput, len(values))
	for i, v := range values {
		out[i] = ledger.SplitInput{UserID: ids[i], Value: v}
	}
	return out
}

func soloPayer(id uuid.UUID, minor int64) []ledger.Payment {
	return []ledger.Payment{{UserID: id, Amount: usd(minor)}}
}

func owedMinors(ps []ledger.Participant) []int64 {
	out := make([]int64, len(ps))
	for i, p := range ps {
		out[i] = p.OwedAmount.Minor()
	}
	return out
}

func TestComputeSplit_Equal(t *testing.T) {
	tests := []struct {
		name  string
		total int64
		n     int
		want  []int64
	}{
		{"even division", 900, 3, []int64{300, 300, 300}},
		{"one cent remainder goes to first", 1000, 3, []int64{334, 333, 333}},
		{"two cent remainder goes to first two", 1001, 3, []int64{334, 334, 333}},
		{"single participant", 555, 1, []int64{555}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := parts(make([]int64, tt.n)...)
			got, err := ledger.ComputeSplit(usd(tt.total), in, ledger.SplitEqual, soloPayer(alice, tt.total))
			require.NoError(t, err)
			assert.Equal(t, tt.want, owedMinors(got))
			assertConservation(t, usd(tt.total), got)
		})
	}
}

func TestComputeSplit_Percentage(t *testing.T) {
	t.Run("clean percentages", func(t *testing.T) {
		in := parts(
			ledger.BasisPoints(50),
			ledger.BasisPoints(30),
			ledger.BasisPoints(20),
		)
		got, err := ledger.ComputeSplit(usd(10000), in, ledger.SplitPercentage, soloPayer(alice, 10000))
		require.NoError(t, err)
		assert.Equal(t, []int64{5000, 3000, 2000}, owedMinors(got))
	})

	t.Run("rounding residue lands on final participant", func(t *testing.T) {
		in := parts(
			ledger.BasisPoints(33.33),
			ledger.BasisPoints(33.33),
			ledger.BasisPoints(33.34),
		)
		got, err := ledger.ComputeSplit(usd(1000), in, ledger.SplitPercentage, soloPayer(alice, 1000))
		require.NoError(t, err)
		assert.Equal(t, []int64{333, 333, 334}, owedMinors(got))
		assertConservation(t, usd(1000), got)
	})

	t.Run("sum within tolerance is accepted", func(t *testing.T) {
		in := parts(ledger.BasisPoints(50), ledger.BasisPoints(49.99))
		got, err := ledger.ComputeSplit(usd(1000), in[:2], ledger.SplitPercentage, soloPayer(alice, 1000))
		require.NoError(t, err)
		assertConservation(t, usd(1000), got)
	})

	t.Run("sum outside tolerance is rejected", func(t *testing.T) {
		in := parts(ledger.BasisPoints(50), ledger.BasisPoints(49.98))
		_, err := ledger.ComputeSplit(usd(1000), in[:2], ledger.SplitPercentage, soloPayer(alice, 1000))
		var vErr *ledger.ValidationError
		require.ErrorAs(t, err, &vErr)
	})

	t.Run("percentage out of range is rejected", func(t *testing.T) {
		in := parts(ledger.BasisPoints(150), ledger.BasisPoints(-50))
		_, err := ledger.ComputeSplit(usd(1000), in[:2], ledger.SplitPercentage, soloPayer(alice, 1000))
		var vErr *ledger.ValidationError
		require.ErrorAs(t, err, &vErr)
	})
}

func TestComputeSplit_Exact(t *testing.T) {
	t.Run("amounts copied verbatim", func(t *testing.T) {
		got, err := ledger.ComputeSplit(usd(999), parts(500, 499)[:2], ledger.SplitExact, soloPayer(alice, 999))
		require.NoError(t, err)
		assert.Equal(t, []int64{500, 499}, owedMinors(got))
		assertConservation(t, usd(999), got)
	})

	t.Run("sum mismatch is rejected", func(t *testing.T) {
		_, err := ledger.ComputeSplit(usd(999), parts(500, 500)[:2], ledger.SplitExact, soloPayer(alice, 999))
		var vErr *ledger.ValidationError
		require.ErrorAs(t, err, &vErr)
	})

	t.Run("negative amount is rejected", func(t *testing.T) {
		_, err := ledger.ComputeSplit(usd(999), parts(1099, -100)[:2], ledger.SplitExact, soloPayer(alice, 999))
		var vErr *ledger.ValidationError
		require.ErrorAs(t, err, &vErr)
	})
}

func TestComputeSplit_Shares(t *testing.T) {
	t.Run("equal shares with remainder", func(t *testing.T) {
		got, err := ledger.ComputeSplit(usd(100), parts(1, 1, 1), ledger.SplitShares, soloPayer(alice, 100))
		require.NoError(t, err)
		assert.Equal(t, []int64{34, 33, 33}, owedMinors(got))
	})

	t.Run("weighted shares", func(t *testing.T) {
		got, err := ledger.ComputeSplit(usd(1000), parts(2, 1, 1), ledger.SplitShares, soloPayer(alice, 1000))
		require.NoError(t, err)
		assert.Equal(t, []int64{500, 250, 250}, owedMinors(got))
	})

	t.Run("remainder follows list order", func(t *testing.T) {
		got, err := ledger.ComputeSplit(usd(1000), parts(1, 1, 1), ledger.SplitShares, soloPayer(alice, 1000))
		require.NoError(t, err)
		assert.Equal(t, []int64{334, 333, 333}, owedMinors(got))
		assertConservation(t, usd(1000), got)
	})

	t.Run("zero or negative share is rejected", func(t *testing.T) {
		_, err := ledger.ComputeSplit(usd(1000), parts(1, 0, 1), ledger.SplitShares, soloPayer(alice, 1000))
		var vErr *ledger.ValidationError
		require.ErrorAs(t, err, &vErr)

		_, err = ledger.ComputeSplit(usd(1000), parts(1, -2, 1), ledger.SplitShares, soloPayer(alice, 1000))
		require.ErrorAs(t, err, &vErr)
	})
}

func TestComputeSplit_PaidAndNetAmounts(t *testing.T) {
	payments := []ledger.Payment{
		{UserID: alice, Amount: usd(600)},
		{UserID: bob, Amount: usd(400)},
	}

	got, err := ledger.ComputeSplit(usd(1000), parts(0, 0)[:2], ledger.SplitEqual, payments)
	require.NoError(t, err)

	assert.Equal(t, int64(600), got[0].PaidAmount.Minor())
	assert.Equal(t, int64(100), got[0].NetAmount.Minor())
	assert.Equal(t, int64(400), got[1].PaidAmount.Minor())
	assert.Equal(t, int64(-100), got[1].NetAmount.Minor())

	// Σ net == Σ paid − total
	var netSum, paidSum int64
	for _, p := range got {
		netSum += p.NetAmount.Minor()
		paidSum += p.PaidAmount.Minor()
	}
	assert.Equal(t, paidSum-usd(1000).Minor(), netSum)
}

func TestComputeSplit_Validation(t *testing.T) {
	var vErr *ledger.ValidationError

	_, err := ledger.ComputeSplit(usd(1000), nil, ledger.SplitEqual, nil)
	require.ErrorAs(t, err, &vErr)

	_, err = ledger.ComputeSplit(usd(0), parts(0, 0)[:2], ledger.SplitEqual, nil)
	require.ErrorAs(t, err, &vErr)

	_, err = ledger.ComputeSplit(usd(-500), parts(0, 0)[:2], ledger.SplitEqual, nil)
	require.ErrorAs(t, err, &vErr)

	_, err = ledger.ComputeSplit(usd(1000), parts(0, 0)[:2], ledger.SplitType("vibes"), nil)
	require.ErrorAs(t, err, &vErr)

	dup := []ledger.SplitInput{{UserID: alice}, {UserID: alice}}
	_, err = ledger.ComputeSplit(usd(1000), dup, ledger.SplitEqual, nil)
	require.ErrorAs(t, err, &vErr)
}

func TestComputeSplit_PaymentCurrencyMismatch(t *testing.T) {
	payments := []ledger.Payment{{UserID: alice, Amount: money.MustMinor(1000, money.EUR)}}
	_, err := ledger.ComputeSplit(usd(1000), parts(0, 0)[:2], ledger.SplitEqual, payments)
	require.ErrorIs(t, err, money.ErrCurrencyMismatch)
}

func TestReuseSplitInputs(t *testing.T) {
	stored := parts(ledger.BasisPoints(50), ledger.BasisPoints(30), ledger.BasisPoints(20))

	t.Run("same type carries stored values over", func(t *testing.T) {
		got, err := ledger.ReuseSplitInputs(stored, ledger.SplitPercentage, ledger.SplitPercentage)
		require.NoError(t, err)
		assert.Equal(t, stored, got)
	})

	t.Run("type change demands fresh splits", func(t *testing.T) {
		// Basis points read as share counts would silently skew every owed
		// amount, so the reuse is refused outright.
		var vErr *ledger.ValidationError
		_, err := ledger.ReuseSplitInputs(stored, ledger.SplitPercentage, ledger.SplitShares)
		require.ErrorAs(t, err, &vErr)

		_, err = ledger.ReuseSplitInputs(parts(0, 0, 0), ledger.SplitEqual, ledger.SplitExact)
		require.ErrorAs(t, err, &vErr)
	})
}

func TestComputeSplit_Deterministic(t *testing.T) {
	in := parts(
		ledger.BasisPoints(33.33),
		ledger.BasisPoints(33.33),
		ledger.BasisPoints(33.34),
	)
	first, err := ledger.ComputeSplit(usd(9999), in, ledger.SplitPercentage, soloPayer(bob, 9999))
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := ledger.ComputeSplit(usd(9999), in, ledger.SplitPercentage, soloPayer(bob, 9999))
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func assertConservation(t *testing.T, total money.Money, ps []ledger.Participant) {
	t.Helper()
	var sum int64
	for _, p := range ps {
		assert.GreaterOrEqual(t, p.OwedAmount.Minor(), int64(0))
		sum += p.OwedAmount.Minor()
	}
	assert.Equal(t, total.Minor(), sum, "owed amounts must reconstruct the total exactly")
}
