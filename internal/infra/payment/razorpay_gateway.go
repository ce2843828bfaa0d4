package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

type orderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Razorpayの注文作成と署名検証
type RazorpayGateway struct {
	orders    orderCreator
	keyID     string
	keySecret string
}

func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	client := razorpay.NewClient(keyID, keySecret)
	return &RazorpayGateway{orders: client.Order, keyID: keyID, keySecret: keySecret}
}

func (g *RazorpayGateway) KeyID() string {
	return g.keyID
}

// amountは最小通貨単位（INRならpaise）
func (g *RazorpayGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string) (string, error) {
	res, err := g.orders.Create(map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	}, nil)
	if err != nil {
		return "", fmt.Errorf("razorpay create order: %w", err)
	}
	id, _ := res["id"].(string)
	if id == "" {
		return "", errors.New("razorpay create order: response has no id")
	}
	return id, nil
}

// HMAC-SHA256(secret, orderId|paymentId) の16進と一致するか
func (g *RazorpayGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return hmac.Equal([]byte(Sign(g.keySecret, orderID, paymentID)), []byte(signature))
}

func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
