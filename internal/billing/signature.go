package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/razorpay/razorpay-go/utils"
)

// PaymentSignature computes the gateway's payment signature: lowercase hex of
// HMAC-SHA256 keyed by the secret over "<remoteOrderID>|<paymentID>".
func PaymentSignature(secret, remoteOrderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(remoteOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPaymentSignature checks signature with the SDK's constant-time
// comparison. Upper-case hex is rejected.
func VerifyPaymentSignature(secret, remoteOrderID, paymentID, signature string) error {
	if secret == "" {
		return ErrNotConfigured
	}
	params := map[string]interface{}{
		"razorpay_order_id":   remoteOrderID,
		"razorpay_payment_id": paymentID,
	}
	if !utils.VerifyPaymentSignature(params, signature, secret) {
		return ErrInvalidSignature
	}
	return nil
}
