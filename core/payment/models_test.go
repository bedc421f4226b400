package payment

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo/core"
)

func TestReceiptNumber(t *testing.T) {
	defer func(fn func(int) int) { randIntn = fn }(randIntn)
	randIntn = func(int) int { return 42 }

	ts := time.Date(2024, 1, 2, 3, 4, 5, 6e6, time.UTC)
	assert.Equal(t, "RCP-1704164645006-0042", ReceiptNumber(ts))
}

func TestPayment_Settle(t *testing.T) {
	receiptRgx := regexp.MustCompile(`^RCP-\d+-\d{4}$`)

	p := Payment{Status: StatusPending}
	assert.False(t, p.settle())
	assert.Empty(t, p.ReceiptNumber)
	assert.Nil(t, p.PaidAt)

	p.Status = StatusPaid
	require.True(t, p.settle())
	assert.Regexp(t, receiptRgx, p.ReceiptNumber)
	require.NotNil(t, p.PaidAt)

	receipt, paidAt := p.ReceiptNumber, *p.PaidAt
	defer func(fn func() time.Time) { core.NowFunc = fn }(core.NowFunc)
	core.NowFunc = func() time.Time { return paidAt.Add(time.Hour) }

	// paid again, refunded, then paid: receipt never changes
	for _, status := range []Status{StatusPaid, StatusRefunded, StatusPaid} {
		p.Status = status
		assert.False(t, p.settle())
		assert.Equal(t, receipt, p.ReceiptNumber)
		assert.Equal(t, paidAt, *p.PaidAt)
	}
}
