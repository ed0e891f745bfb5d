package api

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/oraclevm/oracle-vm/internal/consensus"
	"github.com/oraclevm/oracle-vm/internal/crypto"
	"github.com/oraclevm/oracle-vm/internal/oraclevm"
	"github.com/oraclevm/oracle-vm/internal/services"
	"github.com/oraclevm/oracle-vm/internal/types"
)

// maxBodySize bounds request bodies; proof inputs are the largest.
const maxBodySize = 1 << 20

type handler struct {
	service *services.Service
}

func (h *handler) submitPrice(w http.ResponseWriter, r *http.Request) {
	var req types.SubmitPriceRequest
	if !decode(w, r, &req) {
		return
	}

	var res services.SubmitPriceResult
	if obs, err := observationFromRequest(&req); err != nil {
		res = h.service.RejectPrice(r.Context(), req.Source, req.NodeID, err)
	} else {
		res = h.service.SubmitPrice(r.Context(), obs)
	}

	writeJSON(w, r, http.StatusOK, types.SubmitPriceResponse{
		Success:         res.Success,
		Message:         res.Message,
		AggregatedPrice: res.AggregatedPrice,
		Timestamp:       res.Timestamp,
	})
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	status := h.service.HealthCheck(r.Context(), r.URL.Query().Get("node_id"))
	writeJSON(w, r, http.StatusOK, types.HealthResponse{
		Healthy:         status.Healthy,
		Timestamp:       status.Timestamp,
		ActiveNodeCount: status.ActiveNodeCount,
		Version:         status.Version,
	})
}

func (h *handler) aggregatedPrice(w http.ResponseWriter, r *http.Request) {
	view := h.service.GetAggregatedPrice(r.Context())

	recent := make([]types.PriceDataPoint, len(view.Recent))
	for i, obs := range view.Recent {
		recent[i] = types.PriceDataPoint{
			Price:     obs.Price,
			Timestamp: obs.Timestamp,
			Source:    obs.Source,
			NodeID:    obs.NodeID,
		}
	}

	writeJSON(w, r, http.StatusOK, types.AggregatedPriceResponse{
		Success:         view.Success,
		AggregatedPrice: view.Price,
		DataPoints:      view.DataPoints,
		LastUpdate:      view.LastUpdate,
		RecentPrices:    recent,
	})
}

func (h *handler) proveSettlement(w http.ResponseWriter, r *http.Request) {
	var req types.ProveSettlementRequest
	if !decode(w, r, &req) {
		return
	}

	settlement, err := settlementFromRequest(&req.Settlement)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	priceData, err := hex.DecodeString(req.PriceData)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid price_data: %w", err))
		return
	}
	marketState, err := hex.DecodeString(req.MarketState)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid market_state: %w", err))
		return
	}

	proof, err := h.service.ProveSettlement(r.Context(), settlement, priceData, marketState)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("failed to prove settlement")
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, r, http.StatusOK, types.SettlementProofResponse{
		Kind:              proof.Kind.String(),
		SettlementID:      crypto.HashHex(proof.SettlementID),
		TraceHash:         crypto.HashHex(proof.TraceHash),
		ProgramCommitment: crypto.HashHex(proof.ProgramCommitment),
		InputHash:         crypto.HashHex(proof.InputHash),
		OutputHash:        crypto.HashHex(proof.OutputHash),
		Witness:           hex.EncodeToString(proof.Witness),
	})
}

func (h *handler) createVault(w http.ResponseWriter, r *http.Request) {
	var req types.CreateVaultRequest
	if !decode(w, r, &req) {
		return
	}

	id, err := crypto.ParseHash(req.ID)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid vault id: %w", err))
		return
	}

	err = h.service.CreateVault(r.Context(), id, req.Owner, req.Collateral, req.Debt)
	writeMutation(w, r, err, "Vault created")
}

func (h *handler) createOption(w http.ResponseWriter, r *http.Request) {
	var req types.CreateOptionRequest
	if !decode(w, r, &req) {
		return
	}

	id, err := crypto.ParseHash(req.ID)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid option id: %w", err))
		return
	}
	optionType, err := oraclevm.ParseOptionType(req.OptionType)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	err = h.service.CreateOption(r.Context(), id, oraclevm.OptionTerms{
		Writer:      req.Writer,
		Type:        optionType,
		StrikePrice: req.StrikePrice,
		ExpiryTime:  req.ExpiryTime,
		Collateral:  req.Collateral,
		Premium:     req.Premium,
	})
	writeMutation(w, r, err, "Option created")
}

func (h *handler) vmState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, newVMStateResponse(h.service.VMState()))
}

func observationFromRequest(req *types.SubmitPriceRequest) (consensus.Observation, error) {
	obs := consensus.Observation{
		Price:     req.Price,
		Timestamp: req.Timestamp,
		Source:    req.Source,
		NodeID:    req.NodeID,
	}
	if req.PubKey != "" {
		key, err := crypto.ParsePublicKey(req.PubKey)
		if err != nil {
			return obs, fmt.Errorf("invalid pubkey: %w", err)
		}
		obs.PubKey = key
	}
	if req.Signature != "" {
		sig, err := crypto.ParseSignature(req.Signature)
		if err != nil {
			return obs, fmt.Errorf("invalid signature: %w", err)
		}
		obs.Signature = sig
	}
	return obs, nil
}

func settlementFromRequest(req *types.Settlement) (oraclevm.Settlement, error) {
	id, err := crypto.ParseHash(req.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid settlement id: %w", err)
	}
	return oraclevm.NewSettlement(oraclevm.SettlementKind(req.Kind), id, req.Price, req.Time)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("malformed request body: %w", err))
		return false
	}
	return true
}

func writeMutation(w http.ResponseWriter, r *http.Request, err error, okMessage string) {
	switch {
	case err == nil:
		writeJSON(w, r, http.StatusOK, types.MutationResponse{Success: true, Message: okMessage})
	case errors.Is(err, oraclevm.ErrVaultExists), errors.Is(err, oraclevm.ErrOptionExists):
		writeJSON(w, r, http.StatusConflict, types.MutationResponse{Success: false, Message: err.Error()})
	default:
		writeJSON(w, r, http.StatusBadRequest, types.MutationResponse{Success: false, Message: err.Error()})
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	writeJSON(w, r, status, types.ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("failed to write response")
	}
}
