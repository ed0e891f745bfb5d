package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oraclevm/oracle-vm/internal/config"
	"github.com/oraclevm/oracle-vm/internal/consensus"
	"github.com/oraclevm/oracle-vm/internal/crypto"
	"github.com/oraclevm/oracle-vm/internal/db"
	"github.com/oraclevm/oracle-vm/internal/db/model"
	"github.com/oraclevm/oracle-vm/internal/oraclevm"
	"github.com/oraclevm/oracle-vm/internal/queue"
	"github.com/oraclevm/oracle-vm/testutil"
)

var now = time.Unix(1_710_427_000, 0)

type mockDb struct {
	mock.Mock
}

func (m *mockDb) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockDb) SavePriceRoot(ctx context.Context, doc *model.PriceRootDocument) error {
	return m.Called(ctx, doc).Error(0)
}

func (m *mockDb) GetPriceRoot(ctx context.Context, height uint64) (*model.PriceRootDocument, error) {
	args := m.Called(ctx, height)
	doc, _ := args.Get(0).(*model.PriceRootDocument)
	return doc, args.Error(1)
}

func (m *mockDb) SaveAggregatedPrice(ctx context.Context, doc *model.AggregatedPriceDocument) error {
	return m.Called(ctx, doc).Error(0)
}

func (m *mockDb) GetRecentAggregatedPrices(ctx context.Context, limit int64) ([]model.AggregatedPriceDocument, error) {
	args := m.Called(ctx, limit)
	docs, _ := args.Get(0).([]model.AggregatedPriceDocument)
	return docs, args.Error(1)
}

func (m *mockDb) SaveSettlementProof(ctx context.Context, doc *model.SettlementProofDocument) error {
	return m.Called(ctx, doc).Error(0)
}

func (m *mockDb) GetSettlementProof(ctx context.Context, id string) (*model.SettlementProofDocument, error) {
	args := m.Called(ctx, id)
	doc, _ := args.Get(0).(*model.SettlementProofDocument)
	return doc, args.Error(1)
}

func (m *mockDb) GetLastProcessedHeight(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *mockDb) UpdateLastProcessedHeight(ctx context.Context, height uint64) error {
	return m.Called(ctx, height).Error(0)
}

// proofStore keeps settlement proofs in memory and enforces unique ids the
// way the settlement_proofs collection does.
type proofStore struct {
	mockDb
	proofs map[string]*model.SettlementProofDocument
}

func newProofStore() *proofStore {
	return &proofStore{proofs: make(map[string]*model.SettlementProofDocument)}
}

func (p *proofStore) SaveSettlementProof(_ context.Context, doc *model.SettlementProofDocument) error {
	if _, ok := p.proofs[doc.ID]; ok {
		return &db.DuplicateKeyError{Key: doc.ID, Message: "settlement proof already exists"}
	}
	p.proofs[doc.ID] = doc
	return nil
}

func (p *proofStore) GetSettlementProof(_ context.Context, id string) (*model.SettlementProofDocument, error) {
	doc, ok := p.proofs[id]
	if !ok {
		return nil, &db.NotFoundError{Key: id, Message: "settlement proof not found"}
	}
	return doc, nil
}

type mockBtc struct {
	mock.Mock
}

func (m *mockBtc) GetTipHeight(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *mockBtc) GetBlockHash(ctx context.Context, height uint64) (*chainhash.Hash, error) {
	args := m.Called(ctx, height)
	hash, _ := args.Get(0).(*chainhash.Hash)
	return hash, args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishSettlementProof(ctx context.Context, ev *queue.SettlementProofEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func testConfig() *config.Config {
	return &config.Config{
		Aggregator: *config.DefaultAggregatorConfig(),
		Poller: config.PollerConfig{
			BlockPollingInterval:      time.Second,
			SettlementPollingInterval: time.Second,
			MaxSettlementsPerRun:      10,
		},
		Prover: config.ProverConfig{
			Backend:   config.ProverBackendHash,
			ProgramID: config.DefaultProgramID,
		},
	}
}

func newTestService(t *testing.T, opts ...Option) (*Service, *mockDb, *mockBtc) {
	t.Helper()
	dbMock := &mockDb{}
	btcMock := &mockBtc{}
	opts = append([]Option{WithClock(func() time.Time { return now })}, opts...)
	s, err := NewService(testConfig(), dbMock, btcMock, opts...)
	require.NoError(t, err)
	return s, dbMock, btcMock
}

func observation(source, node string, price float64) consensus.Observation {
	return consensus.Observation{
		Price:     price,
		Timestamp: now.Unix(),
		Source:    source,
		NodeID:    node,
	}
}

// reachConsensus submits agreeing prices from every required exchange.
func reachConsensus(t *testing.T, s *Service) {
	t.Helper()
	for i, source := range []string{"binance", "coinbase", "kraken"} {
		res := s.SubmitPrice(context.Background(), observation(source, "node-1", 65_000+float64(i)*10))
		require.True(t, res.Success)
	}
}

func TestSubmitPrice(t *testing.T) {
	ctx := context.Background()

	t.Run("non-positive price is rejected without storing", func(t *testing.T) {
		s, _, _ := newTestService(t)
		for _, price := range []float64{0, -1} {
			res := s.SubmitPrice(ctx, observation("binance", "node-1", price))
			assert.False(t, res.Success)
			assert.Nil(t, res.AggregatedPrice)
			assert.Equal(t, consensus.ErrNonPositivePrice.Error(), res.Message)
			assert.Equal(t, now.Unix(), res.Timestamp)
		}
		assert.Zero(t, s.aggregator.Len())
	})

	t.Run("aggregate appears once quorum is reached", func(t *testing.T) {
		s, _, _ := newTestService(t)

		res := s.SubmitPrice(ctx, observation("binance", "node-1", 65_000))
		require.True(t, res.Success)
		assert.Equal(t, priceReceivedMessage, res.Message)
		assert.Nil(t, res.AggregatedPrice)

		res = s.SubmitPrice(ctx, observation("kraken", "node-2", 65_100))
		require.True(t, res.Success)
		require.NotNil(t, res.AggregatedPrice)
		assert.InDelta(t, 65_050, *res.AggregatedPrice, 1e-9)
	})

	t.Run("signed submissions", func(t *testing.T) {
		s, _, _ := newTestService(t)
		priv, pub, err := crypto.GenerateKeyPair()
		require.NoError(t, err)

		obs := observation("coinbase", "node-1", 65_000)
		obs.PubKey = pub
		obs.Signature = crypto.Sign(obs.SigningMessage(), priv)
		assert.True(t, s.SubmitPrice(ctx, obs).Success)

		obs.Price = 66_000
		res := s.SubmitPrice(ctx, obs)
		assert.False(t, res.Success)
		assert.Equal(t, consensus.ErrInvalidSignature.Error(), res.Message)
	})
}

func TestRejectPrice(t *testing.T) {
	s, _, _ := newTestService(t)

	res := s.RejectPrice(context.Background(), "binance", "node-1", errors.New("invalid pubkey: malformed public key"))
	assert.False(t, res.Success)
	assert.Nil(t, res.AggregatedPrice)
	assert.Equal(t, "invalid pubkey: malformed public key", res.Message)
	assert.Equal(t, now.Unix(), res.Timestamp)
	assert.Zero(t, s.aggregator.Len())
}

func TestHealthCheck(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()

	watcher, feeder := testutil.RandomNodeID(t), testutil.RandomNodeID(t)

	status := s.HealthCheck(ctx, watcher)
	assert.True(t, status.Healthy)
	assert.Equal(t, Version, status.Version)
	assert.Equal(t, 1, status.ActiveNodeCount)
	assert.Equal(t, now.Unix(), status.Timestamp)

	s.SubmitPrice(ctx, observation("binance", feeder, 65_000))
	assert.Equal(t, 2, s.HealthCheck(ctx, watcher).ActiveNodeCount)
	assert.Equal(t, 2, s.HealthCheck(ctx, "").ActiveNodeCount)
}

func TestGetAggregatedPrice(t *testing.T) {
	ctx := context.Background()

	t.Run("no consensus", func(t *testing.T) {
		s, _, _ := newTestService(t)
		s.SubmitPrice(ctx, observation("binance", "node-1", 65_000))

		view := s.GetAggregatedPrice(ctx)
		assert.False(t, view.Success)
		assert.Zero(t, view.Price)
		assert.Zero(t, view.DataPoints)
		assert.Zero(t, view.LastUpdate)
		assert.NotNil(t, view.Recent)
		assert.Empty(t, view.Recent)
	})

	t.Run("consensus", func(t *testing.T) {
		s, _, _ := newTestService(t)
		reachConsensus(t, s)

		view := s.GetAggregatedPrice(ctx)
		assert.True(t, view.Success)
		assert.InDelta(t, 65_010, view.Price, 1e-9)
		assert.Equal(t, 3, view.DataPoints)
		assert.Equal(t, now.Unix(), view.LastUpdate)
		require.Len(t, view.Recent, 3)
		assert.Equal(t, "kraken", view.Recent[0].Source)
	})
}

func TestProcessNewBlocks(t *testing.T) {
	ctx := context.Background()
	blockHash := chainhash.DoubleHashH([]byte("block"))

	t.Run("anchors the aggregate root at each new height", func(t *testing.T) {
		s, dbMock, btcMock := newTestService(t)
		reachConsensus(t, s)
		expectedRoot := s.aggregator.Aggregate(ctx).Price.PriceRoot()

		btcMock.On("GetTipHeight", ctx).Return(uint64(102), nil)
		btcMock.On("GetBlockHash", ctx, mock.Anything).Return(&blockHash, nil)
		dbMock.On("GetLastProcessedHeight", ctx).Return(uint64(100), nil)
		dbMock.On("SavePriceRoot", ctx, mock.MatchedBy(func(doc *model.PriceRootDocument) bool {
			return doc.Root == crypto.HashHex(expectedRoot) && doc.PriceCents == 6_501_000
		})).Return(nil).Twice()
		dbMock.On("SaveAggregatedPrice", ctx, mock.Anything).Return(nil)
		dbMock.On("UpdateLastProcessedHeight", ctx, uint64(101)).Return(nil).Once()
		dbMock.On("UpdateLastProcessedHeight", ctx, uint64(102)).Return(nil).Once()

		require.NoError(t, s.processNewBlocks(ctx))

		state := s.VMState()
		assert.Equal(t, uint64(102), state.BlockHeight)
		assert.Equal(t, expectedRoot, state.PriceRoots[101])
		assert.Equal(t, expectedRoot, state.PriceRoots[102])
		price, ok := s.prices.PriceAt(expectedRoot)
		require.True(t, ok)
		assert.Equal(t, uint64(6_501_000), price)

		dbMock.AssertExpectations(t)
		btcMock.AssertNumberOfCalls(t, "GetBlockHash", 2)
	})

	t.Run("fresh start processes only the tip", func(t *testing.T) {
		s, dbMock, btcMock := newTestService(t)

		btcMock.On("GetTipHeight", ctx).Return(uint64(840_000), nil)
		dbMock.On("GetLastProcessedHeight", ctx).Return(uint64(0), nil)
		dbMock.On("UpdateLastProcessedHeight", ctx, uint64(840_000)).Return(nil).Once()

		require.NoError(t, s.processNewBlocks(ctx))

		// no consensus, so nothing is stored and the zero root is anchored
		root, ok := s.vm.PriceRoot(840_000)
		require.True(t, ok)
		assert.Equal(t, chainhash.Hash{}, root)
		dbMock.AssertNotCalled(t, "SavePriceRoot", mock.Anything, mock.Anything)
		btcMock.AssertNotCalled(t, "GetBlockHash", mock.Anything, mock.Anything)
	})

	t.Run("already anchored height keeps the stored root", func(t *testing.T) {
		s, dbMock, btcMock := newTestService(t)
		reachConsensus(t, s)
		stored := chainhash.DoubleHashH([]byte("stored root"))

		btcMock.On("GetTipHeight", ctx).Return(uint64(5), nil)
		btcMock.On("GetBlockHash", ctx, uint64(5)).Return(&blockHash, nil)
		dbMock.On("GetLastProcessedHeight", ctx).Return(uint64(4), nil)
		dbMock.On("SavePriceRoot", ctx, mock.Anything).Return(&db.DuplicateKeyError{Key: "5"})
		dbMock.On("GetPriceRoot", ctx, uint64(5)).Return(&model.PriceRootDocument{
			Height:     5,
			Root:       crypto.HashHex(stored),
			PriceCents: 100,
		}, nil)
		dbMock.On("SaveAggregatedPrice", ctx, mock.Anything).Return(nil)
		dbMock.On("UpdateLastProcessedHeight", ctx, uint64(5)).Return(nil)

		require.NoError(t, s.processNewBlocks(ctx))

		root, _ := s.vm.PriceRoot(5)
		assert.Equal(t, stored, root)
		price, ok := s.prices.PriceAt(stored)
		require.True(t, ok)
		assert.Equal(t, uint64(100), price)
	})

	t.Run("errors stop processing", func(t *testing.T) {
		s, dbMock, btcMock := newTestService(t)
		reachConsensus(t, s)

		btcMock.On("GetTipHeight", ctx).Return(uint64(5), nil)
		btcMock.On("GetBlockHash", ctx, uint64(5)).Return(&blockHash, nil)
		dbMock.On("GetLastProcessedHeight", ctx).Return(uint64(4), nil)
		dbMock.On("SavePriceRoot", ctx, mock.Anything).Return(errors.New("db down"))

		err := s.processNewBlocks(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db down")
		dbMock.AssertNotCalled(t, "UpdateLastProcessedHeight", mock.Anything, mock.Anything)
		assert.Zero(t, s.vm.BlockHeight())
	})

	t.Run("btc failure", func(t *testing.T) {
		s, _, btcMock := newTestService(t)
		btcMock.On("GetTipHeight", ctx).Return(uint64(0), errors.New("rpc down"))
		require.Error(t, s.processNewBlocks(ctx))
	})
}

func TestExecutePendingSettlements(t *testing.T) {
	ctx := context.Background()

	t.Run("option expiry is proven, stored, executed and published", func(t *testing.T) {
		publisher := &mockPublisher{}
		s, dbMock, _ := newTestService(t, WithPublisher(publisher))
		optionID := chainhash.DoubleHashH([]byte("option"))
		require.NoError(t, s.CreateOption(ctx, optionID, oraclevm.OptionTerms{Type: oraclevm.Call, ExpiryTime: 600}))

		require.NoError(t, s.processBlock(ctx, 1))
		require.NoError(t, s.processBlock(ctx, 2))
		require.Len(t, s.VMState().Pending, 2)

		var saved *model.SettlementProofDocument
		dbMock.On("SaveSettlementProof", ctx, mock.Anything).Run(func(args mock.Arguments) {
			saved = args.Get(1).(*model.SettlementProofDocument)
		}).Return(nil).Once()
		publisher.On("PublishSettlementProof", ctx, mock.MatchedBy(func(ev *queue.SettlementProofEvent) bool {
			return ev.SettlementID == crypto.HashHex(optionID) && ev.EventType == queue.SettlementProofEventType
		})).Return(nil).Once()

		require.NoError(t, s.executePendingSettlements(ctx))

		require.NotNil(t, saved)
		assert.Equal(t, oraclevm.KindOptionExpiry.String(), saved.Kind)
		assert.Equal(t, uint64(2), saved.Height)
		assert.Equal(t, uint64(600), saved.Time)
		assert.Equal(t, oraclevm.KindOptionExpiry.String()+":"+crypto.HashHex(optionID)+":2", saved.ID)

		state := s.VMState()
		assert.Empty(t, state.Options)
		assert.Empty(t, state.Pending)
		dbMock.AssertExpectations(t)
		publisher.AssertExpectations(t)

		// nothing left to do
		require.NoError(t, s.executePendingSettlements(ctx))
		dbMock.AssertNumberOfCalls(t, "SaveSettlementProof", 1)
	})

	t.Run("undercollateralized vault is liquidated at the anchored price", func(t *testing.T) {
		s, dbMock, btcMock := newTestService(t)
		reachConsensus(t, s)
		vaultID := chainhash.DoubleHashH([]byte("vault"))
		// 1 BTC against 50k USD of debt is a 130% ratio at 65,010 USD
		require.NoError(t, s.CreateVault(ctx, vaultID, "alice", 100_000_000, 5_000_000))

		blockHash := chainhash.DoubleHashH([]byte("block"))
		btcMock.On("GetBlockHash", ctx, uint64(7)).Return(&blockHash, nil)
		dbMock.On("SavePriceRoot", ctx, mock.Anything).Return(nil)
		dbMock.On("SaveAggregatedPrice", ctx, mock.Anything).Return(nil)
		require.NoError(t, s.processBlock(ctx, 7))

		pending := s.VMState().Pending
		require.Len(t, pending, 1)
		assert.Equal(t, oraclevm.VaultLiquidation{
			VaultID:          vaultID,
			LiquidationPrice: 6_501_000,
			Timestamp:        7 * oraclevm.BlockIntervalSeconds,
		}, pending[0])

		dbMock.On("SaveSettlementProof", ctx, mock.MatchedBy(func(doc *model.SettlementProofDocument) bool {
			return doc.Price == 6_501_000 && doc.Kind == oraclevm.KindVaultLiquidation.String()
		})).Return(nil)

		require.NoError(t, s.executePendingSettlements(ctx))
		assert.Empty(t, s.VMState().Vaults)
	})

	t.Run("reused option id is proven again", func(t *testing.T) {
		store := newProofStore()
		publisher := &mockPublisher{}
		publisher.On("PublishSettlementProof", ctx, mock.Anything).Return(nil)
		s, err := NewService(testConfig(), store, &mockBtc{},
			WithClock(func() time.Time { return now }), WithPublisher(publisher))
		require.NoError(t, err)
		optionID := testutil.RandomHash(t)

		require.NoError(t, s.CreateOption(ctx, optionID, oraclevm.OptionTerms{Type: oraclevm.Call, ExpiryTime: 600}))
		require.NoError(t, s.processBlock(ctx, 1))
		require.NoError(t, s.executePendingSettlements(ctx))
		require.Empty(t, s.VMState().Options)

		require.NoError(t, s.CreateOption(ctx, optionID, oraclevm.OptionTerms{Type: oraclevm.Put, ExpiryTime: 1200}))
		require.NoError(t, s.processBlock(ctx, 2))
		require.NoError(t, s.executePendingSettlements(ctx))
		require.Empty(t, s.VMState().Options)

		require.Len(t, store.proofs, 2)
		first := store.proofs[model.SettlementProofID(oraclevm.KindOptionExpiry, crypto.HashHex(optionID), 1)]
		second := store.proofs[model.SettlementProofID(oraclevm.KindOptionExpiry, crypto.HashHex(optionID), 2)]
		require.NotNil(t, first)
		require.NotNil(t, second)
		assert.Equal(t, uint64(600), first.Time)
		assert.Equal(t, uint64(1200), second.Time)
		assert.NotEqual(t, first.InputHash, second.InputHash)
		publisher.AssertNumberOfCalls(t, "PublishSettlementProof", 2)
	})

	t.Run("proof stored before a restart is executed but not published", func(t *testing.T) {
		store := newProofStore()
		optionID := chainhash.DoubleHashH([]byte("o"))
		terms := oraclevm.OptionTerms{Type: oraclevm.Put, ExpiryTime: 600}

		before, err := NewService(testConfig(), store, &mockBtc{}, WithClock(func() time.Time { return now }))
		require.NoError(t, err)
		require.NoError(t, before.CreateOption(ctx, optionID, terms))
		require.NoError(t, before.processBlock(ctx, 1))
		require.NoError(t, before.executePendingSettlements(ctx))
		require.Len(t, store.proofs, 1)

		publisher := &mockPublisher{}
		after, err := NewService(testConfig(), store, &mockBtc{},
			WithClock(func() time.Time { return now }), WithPublisher(publisher))
		require.NoError(t, err)
		require.NoError(t, after.CreateOption(ctx, optionID, terms))
		require.NoError(t, after.processBlock(ctx, 1))

		require.NoError(t, after.executePendingSettlements(ctx))
		assert.Empty(t, after.VMState().Options)
		assert.Len(t, store.proofs, 1)
		publisher.AssertNotCalled(t, "PublishSettlementProof", mock.Anything, mock.Anything)
	})

	t.Run("conflicting stored proof fails the run", func(t *testing.T) {
		store := newProofStore()
		optionID := chainhash.DoubleHashH([]byte("o"))
		id := model.SettlementProofID(oraclevm.KindOptionExpiry, crypto.HashHex(optionID), 1)
		store.proofs[id] = &model.SettlementProofDocument{ID: id, InputHash: crypto.HashHex(chainhash.Hash{})}

		s, err := NewService(testConfig(), store, &mockBtc{}, WithClock(func() time.Time { return now }))
		require.NoError(t, err)
		require.NoError(t, s.CreateOption(ctx, optionID, oraclevm.OptionTerms{Type: oraclevm.Call, ExpiryTime: 300}))
		require.NoError(t, s.processBlock(ctx, 1))

		err = s.executePendingSettlements(ctx)
		require.ErrorIs(t, err, ErrConflictingProof)
		assert.Len(t, s.VMState().Options, 1)
		assert.Len(t, s.VMState().Pending, 1)
	})

	t.Run("lookup failure after a duplicate fails the run", func(t *testing.T) {
		s, dbMock, _ := newTestService(t)
		require.NoError(t, s.CreateOption(ctx, chainhash.DoubleHashH([]byte("o")), oraclevm.OptionTerms{Type: oraclevm.Put}))
		require.NoError(t, s.processBlock(ctx, 1))

		dbMock.On("SaveSettlementProof", ctx, mock.Anything).Return(&db.DuplicateKeyError{})
		dbMock.On("GetSettlementProof", ctx, mock.Anything).Return(nil, errors.New("db down"))

		require.Error(t, s.executePendingSettlements(ctx))
		assert.Len(t, s.VMState().Options, 1)
	})

	t.Run("storage failure leaves the settlement pending", func(t *testing.T) {
		s, dbMock, _ := newTestService(t)
		require.NoError(t, s.CreateOption(ctx, chainhash.DoubleHashH([]byte("o")), oraclevm.OptionTerms{Type: oraclevm.Put}))
		require.NoError(t, s.processBlock(ctx, 1))

		dbMock.On("SaveSettlementProof", ctx, mock.Anything).Return(errors.New("db down"))

		require.Error(t, s.executePendingSettlements(ctx))
		assert.Len(t, s.VMState().Options, 1)
		assert.Len(t, s.VMState().Pending, 1)
	})

	t.Run("batch size is capped", func(t *testing.T) {
		s, dbMock, _ := newTestService(t)
		s.cfg.Poller.MaxSettlementsPerRun = 2
		for i := 0; i < 3; i++ {
			id := chainhash.DoubleHashH([]byte{byte(i)})
			require.NoError(t, s.CreateOption(ctx, id, oraclevm.OptionTerms{Type: oraclevm.Call}))
		}
		require.NoError(t, s.processBlock(ctx, 1))
		dbMock.On("SaveSettlementProof", ctx, mock.Anything).Return(nil)

		require.NoError(t, s.executePendingSettlements(ctx))
		assert.Len(t, s.VMState().Options, 1)
		require.NoError(t, s.executePendingSettlements(ctx))
		assert.Empty(t, s.VMState().Options)
	})
}

func TestCreateAndProve(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()
	id := chainhash.DoubleHashH([]byte("vault"))

	require.NoError(t, s.CreateVault(ctx, id, "alice", 1, 1))
	require.ErrorIs(t, s.CreateVault(ctx, id, "bob", 1, 1), oraclevm.ErrVaultExists)
	require.NoError(t, s.CreateOption(ctx, id, oraclevm.OptionTerms{Type: oraclevm.Call}))
	require.ErrorIs(t,
		s.CreateOption(ctx, id, oraclevm.OptionTerms{Type: oraclevm.Call}),
		oraclevm.ErrOptionExists,
	)

	settlement := oraclevm.VaultLiquidation{VaultID: id, LiquidationPrice: 1, Timestamp: 2}
	proof, err := s.ProveSettlement(ctx, settlement, []byte("pd"), []byte("ms"))
	require.NoError(t, err)
	assert.Equal(t, id, proof.SettlementID)
	require.NoError(t, proof.VerifyWitness())

	// proving does not execute
	assert.Len(t, s.VMState().Vaults, 1)
}
