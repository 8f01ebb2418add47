package payment

import (
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

// SessionCreator abstracts the hosted checkout provider so the payment
// bridge can be tested without reaching Midtrans.
type SessionCreator interface {
	CreateSession(req *snap.Request) (string, error)
}

type SnapClient struct {
	client snap.Client
}

func NewSnapClient(serverKey string, production bool) *SnapClient {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	c := snap.Client{}
	c.New(serverKey, env)
	return &SnapClient{client: c}
}

func (s *SnapClient) CreateSession(req *snap.Request) (string, error) {
	resp, merr := s.client.CreateTransaction(req)
	if merr != nil {
		return "", merr
	}
	return resp.Token, nil
}
