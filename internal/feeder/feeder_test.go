package feeder

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oraclevm/oracle-vm/internal/clients/exchange"
	"github.com/oraclevm/oracle-vm/internal/consensus"
	"github.com/oraclevm/oracle-vm/internal/crypto"
	"github.com/oraclevm/oracle-vm/internal/types"
)

type stubExchange struct {
	name  string
	price float64
	err   error
}

func (s *stubExchange) Name() string { return s.name }

func (s *stubExchange) FetchPrice(context.Context) (*exchange.Quote, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &exchange.Quote{Price: s.price, Timestamp: 1_710_427_000, Source: s.name}, nil
}

type mockSubmitter struct {
	mock.Mock
}

func (m *mockSubmitter) SubmitPrice(ctx context.Context, req *types.SubmitPriceRequest) (*types.SubmitPriceResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*types.SubmitPriceResponse)
	return resp, args.Error(1)
}

func TestCollect(t *testing.T) {
	ctx := context.Background()

	t.Run("submits every fetched price", func(t *testing.T) {
		submitter := &mockSubmitter{}
		submitter.On("SubmitPrice", ctx, mock.MatchedBy(func(req *types.SubmitPriceRequest) bool {
			return req.NodeID == "node-1" && req.Signature == "" && req.PubKey == ""
		})).Return(&types.SubmitPriceResponse{Success: true}, nil).Twice()

		f := New("node-1", []exchange.Client{
			&stubExchange{name: "binance", price: 65_000},
			&stubExchange{name: "coinbase", err: errors.New("down")},
			&stubExchange{name: "kraken", price: 65_010},
		}, submitter, nil)

		require.NoError(t, f.Collect(ctx))
		submitter.AssertExpectations(t)
	})

	t.Run("no prices", func(t *testing.T) {
		f := New("node-1", []exchange.Client{
			&stubExchange{name: "binance", err: errors.New("down")},
		}, &mockSubmitter{}, nil)
		require.ErrorIs(t, f.Collect(ctx), ErrNoPrices)
	})

	t.Run("every submission rejected", func(t *testing.T) {
		submitter := &mockSubmitter{}
		submitter.On("SubmitPrice", ctx, mock.Anything).
			Return(&types.SubmitPriceResponse{Success: false, Message: "price must be positive"}, nil)

		f := New("node-1", []exchange.Client{&stubExchange{name: "binance", price: 1}}, submitter, nil)
		require.Error(t, f.Collect(ctx))
	})

	t.Run("signed submissions verify", func(t *testing.T) {
		priv, pub, err := crypto.GenerateKeyPair()
		require.NoError(t, err)

		submitter := &mockSubmitter{}
		var got *types.SubmitPriceRequest
		submitter.On("SubmitPrice", ctx, mock.Anything).Run(func(args mock.Arguments) {
			got = args.Get(1).(*types.SubmitPriceRequest)
		}).Return(&types.SubmitPriceResponse{Success: true}, nil)

		f := New("node-1", []exchange.Client{&stubExchange{name: "kraken", price: 65_000.5}}, submitter, priv)
		require.NoError(t, f.Collect(ctx))
		require.NotNil(t, got)

		key, err := crypto.ParsePublicKey(got.PubKey)
		require.NoError(t, err)
		assert.True(t, key.IsEqual(pub))
		sig, err := crypto.ParseSignature(got.Signature)
		require.NoError(t, err)
		msg := consensus.SigningMessage(got.Price, got.Timestamp, got.Source, got.NodeID)
		assert.True(t, crypto.Verify(msg, sig, key))
	})
}

func TestNewNodeID(t *testing.T) {
	id := NewNodeID()
	assert.True(t, strings.HasPrefix(id, "oracle-node-"))
	assert.Len(t, id, len("oracle-node-")+8)
	assert.NotEqual(t, id, NewNodeID())
}
