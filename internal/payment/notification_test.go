package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testServerKey = "SB-Mid-server-test"

func signedNotification(status, fraud string) Notification {
	n := Notification{
		TransactionStatus: status,
		TransactionID:     "9aed5972-5b6a-401e-894b-a32c91ed1a3a",
		StatusCode:        "200",
		OrderID:           "MS-42-0123456789ab",
		GrossAmount:       "150000.00",
		FraudStatus:       fraud,
	}
	n.SignatureKey = Signature(n.OrderID, n.StatusCode, n.GrossAmount, testServerKey)
	return n
}

func TestNotificationVerify(t *testing.T) {
	n := signedNotification("settlement", "")
	require.NoError(t, n.Verify(testServerKey))

	padded := n
	padded.SignatureKey = "  " + n.SignatureKey + "  "
	assert.NoError(t, padded.Verify(testServerKey), "whitespace is ignored")

	tampered := n
	tampered.GrossAmount = "1.00"
	assert.ErrorIs(t, tampered.Verify(testServerKey), ErrInvalidSignature)

	assert.ErrorIs(t, n.Verify("another-key"), ErrInvalidSignature)
	assert.ErrorIs(t, n.Verify(""), ErrInvalidSignature)

	unsigned := n
	unsigned.SignatureKey = ""
	assert.ErrorIs(t, unsigned.Verify(testServerKey), ErrInvalidSignature)
}

func TestNotificationSucceeded(t *testing.T) {
	tests := []struct {
		status string
		fraud  string
		want   bool
	}{
		{"settlement", "", true},
		{"capture", "", true},
		{"capture", "accept", true},
		{"capture", "challenge", false},
		{"capture", "deny", false},
		{"pending", "", false},
		{"deny", "", false},
		{"expire", "", false},
		{"cancel", "", false},
		{"refund", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.status+"/"+tt.fraud, func(t *testing.T) {
			n := signedNotification(tt.status, tt.fraud)
			assert.Equal(t, tt.want, n.Succeeded())
		})
	}
}

func TestNotificationSessionID(t *testing.T) {
	n := signedNotification("settlement", "")
	id, err := n.SessionID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	n.OrderID = "ORDER-42"
	_, err = n.SessionID()
	assert.Error(t, err)
}

func TestGrossAmount(t *testing.T) {
	amount, err := grossAmount(15000000)
	require.NoError(t, err)
	assert.Equal(t, int64(150000), amount)

	_, err = grossAmount(15000050)
	assert.Error(t, err, "fractional units are not accepted")

	_, err = grossAmount(0)
	assert.Error(t, err)
}

func TestTruncateKeepsRunes(t *testing.T) {
	assert.Equal(t, "Занятие", truncate("Занятие", 10))
	assert.Equal(t, "Зан", truncate("Занятие", 3))
}
