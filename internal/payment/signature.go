package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	sferrors "github.com/abgdnv/stitchnstyle/internal/errors"
)

// SignatureVerifier checks Razorpay checkout signatures:
// hex(HMAC-SHA256(gatewayOrderID + "|" + paymentID, keySecret)).
type SignatureVerifier struct {
	secret []byte
}

func NewSignatureVerifier(keySecret string) *SignatureVerifier {
	return &SignatureVerifier{secret: []byte(keySecret)}
}

// Sign computes the expected signature.
func (v *SignatureVerifier) Sign(gatewayOrderID, paymentID string) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify returns an error wrapping ErrPaymentFailed unless signature matches.
func (v *SignatureVerifier) Verify(gatewayOrderID, paymentID, signature string) error {
	if gatewayOrderID == "" || paymentID == "" || signature == "" {
		return fmt.Errorf("%w: incomplete payment confirmation", sferrors.ErrPaymentFailed)
	}
	got, err := hex.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("%w: malformed signature", sferrors.ErrPaymentFailed)
	}
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	if !hmac.Equal(got, mac.Sum(nil)) {
		return fmt.Errorf("%w: signature mismatch", sferrors.ErrPaymentFailed)
	}
	return nil
}
