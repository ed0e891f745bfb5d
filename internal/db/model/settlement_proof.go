package model

import (
	"encoding/hex"
	"fmt"

	"github.com/oraclevm/oracle-vm/internal/crypto"
	"github.com/oraclevm/oracle-vm/internal/oraclevm"
	"github.com/oraclevm/oracle-vm/internal/prover"
)

const SettlementProofCollection = "settlement_proofs"

type SettlementProofDocument struct {
	ID                string `bson:"_id"`
	Kind              string `bson:"kind"`
	SettlementID      string `bson:"settlement_id"`
	Price             uint64 `bson:"price"`
	Time              uint64 `bson:"time"`
	Height            uint64 `bson:"height"`
	TraceHash         string `bson:"trace_hash"`
	ProgramCommitment string `bson:"program_commitment"`
	InputHash         string `bson:"input_hash"`
	OutputHash        string `bson:"output_hash"`
	Witness           string `bson:"witness"`
	CreatedAt         int64  `bson:"created_at"`
}

// SettlementProofID identifies one settlement of an entity. Vault and option
// ids are only unique while active, so the height the settlement was proven
// at is part of the id.
func SettlementProofID(kind oraclevm.SettlementKind, settlementID string, height uint64) string {
	return fmt.Sprintf("%s:%s:%d", kind, settlementID, height)
}

func NewSettlementProofDocument(
	s oraclevm.Settlement, proof *prover.SettlementProof, height uint64, createdAt int64,
) *SettlementProofDocument {
	settlementID := crypto.HashHex(proof.SettlementID)
	return &SettlementProofDocument{
		ID:                SettlementProofID(proof.Kind, settlementID, height),
		Kind:              proof.Kind.String(),
		SettlementID:      settlementID,
		Price:             s.Price(),
		Time:              s.Time(),
		Height:            height,
		TraceHash:         crypto.HashHex(proof.TraceHash),
		ProgramCommitment: crypto.HashHex(proof.ProgramCommitment),
		InputHash:         crypto.HashHex(proof.InputHash),
		OutputHash:        crypto.HashHex(proof.OutputHash),
		Witness:           hex.EncodeToString(proof.Witness),
		CreatedAt:         createdAt,
	}
}
