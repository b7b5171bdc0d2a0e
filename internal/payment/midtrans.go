package payment

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/mentor_sessions/internal/model"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"go.uber.org/zap"
)

const maxItemNameLength = 50

// MidtransGateway запускает оплату через Midtrans Snap
type MidtransGateway struct {
	client snap.Client
	logger *zap.Logger
}

func NewMidtransGateway(serverKey string, production bool, logger *zap.Logger) *MidtransGateway {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}

	g := &MidtransGateway{logger: logger}
	g.client.New(serverKey, env)
	return g
}

type snapResult struct {
	resp *snap.Response
	err  *midtrans.Error
}

// CreateCheckout создаёт транзакцию Snap. SDK не принимает context,
// поэтому вызов идёт в горутине, а ожидание ограничено ctx.
func (g *MidtransGateway) CreateCheckout(ctx context.Context, req model.CheckoutRequest) (*model.Checkout, error) {
	gross, err := grossAmount(req.Amount)
	if err != nil {
		return nil, err
	}

	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.OrderID,
			GrossAmt: gross,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.CustomerName,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    fmt.Sprintf("session-%d", req.SessionID),
				Name:  truncate(req.ItemName, maxItemNameLength),
				Price: gross,
				Qty:   1,
			},
		},
	}

	done := make(chan snapResult, 1)
	go func() {
		resp, err := g.client.CreateTransaction(snapReq)
		done <- snapResult{resp: resp, err: err}
	}()

	select {
	case <-ctx.Done():
		g.logger.Warn("Midtrans checkout abandoned",
			zap.String("order_id", req.OrderID),
			zap.Error(ctx.Err()),
		)
		return nil, fmt.Errorf("midtrans create transaction: %w", ctx.Err())
	case res := <-done:
		if res.err != nil {
			g.logger.Error("Midtrans rejected checkout",
				zap.String("order_id", req.OrderID),
				zap.Int("status_code", res.err.StatusCode),
				zap.String("message", res.err.Message),
			)
			return nil, fmt.Errorf("midtrans create transaction: %w", res.err)
		}
		if res.resp == nil || res.resp.Token == "" {
			return nil, fmt.Errorf("midtrans create transaction: empty response")
		}

		return &model.Checkout{
			OrderID:     req.OrderID,
			Token:       res.resp.Token,
			RedirectURL: res.resp.RedirectURL,
		}, nil
	}
}

// grossAmount переводит минимальные единицы в целые единицы валюты, которые ждёт Midtrans
func grossAmount(amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("invalid amount %d", amount)
	}
	if amount%100 != 0 {
		return 0, fmt.Errorf("amount %d is not a whole currency unit", amount)
	}
	return amount / 100, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
